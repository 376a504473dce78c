// Package requestid carries the per-request correlation id through contexts.
package requestid

import (
	"context"

	"github.com/google/uuid"
)

const Header = "X-Request-ID"

type contextKey struct{}

func New() string {
	return uuid.NewString()
}

func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns "" when no id was attached.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
