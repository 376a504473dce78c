package repository

import (
	"context"
	"errors"
	"iter"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
)

var ErrDuplicateProduct = errors.New("product already exists")

// ProductRepository is the narrow capability set the service needs from a
// document store. Absence is never an error at this layer.
type ProductRepository interface {
	// Save inserts or replaces the product by id. An empty id is generated.
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)

	// Insert stores a new product and fails with ErrDuplicateProduct when the
	// id is already taken. An empty id is generated.
	Insert(ctx context.Context, product *domain.Product) (*domain.Product, error)

	// FindByID returns (nil, nil) when no record exists.
	FindByID(ctx context.Context, id string) (*domain.Product, error)

	// FindAll lazily walks every stored product in store order. A failure is
	// yielded once as the last element.
	FindAll(ctx context.Context) iter.Seq2[*domain.Product, error]

	ExistsByID(ctx context.Context, id string) (bool, error)

	// DeleteByID removes the product. Deleting an absent id is not an error.
	DeleteByID(ctx context.Context, id string) error
}
