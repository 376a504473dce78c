package events

import (
	"context"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/requestid"
	"github.com/google/uuid"
)

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent is published after every successful catalog mutation.
type ProductEvent struct {
	EventID   string                  `json:"event_id"`
	EventType string                  `json:"event_type"`
	ProductID string                  `json:"product_id"`
	Product   *domain.ProductResponse `json:"product,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
	RequestID string                  `json:"request_id"`
}

// NewProductEvent stamps a fresh event id and picks up the request id from ctx.
// product is nil for deletions.
func NewProductEvent(ctx context.Context, eventType, productID string, product *domain.ProductResponse) ProductEvent {
	return ProductEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ProductID: productID,
		Product:   product,
		Timestamp: time.Now().UTC(),
		RequestID: requestid.FromContext(ctx),
	}
}
