package repository

import (
	"context"
	"iter"
	"sync"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryRepository keeps products in a process-local map. It backs LOCAL_MODE
// and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	logger   *zap.Logger
}

func NewMemoryRepository(logger *zap.Logger) *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]domain.Product),
		logger:   logger.Named("memory"),
	}
}

func (r *MemoryRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := *product
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[saved.ID] = saved
	return &saved, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved := *product
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[saved.ID]; exists {
		return nil, ErrDuplicateProduct
	}
	r.products[saved.ID] = saved
	return &saved, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, nil
	}
	return &product, nil
}

// FindAll iterates over a snapshot taken when iteration starts.
func (r *MemoryRepository) FindAll(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		r.mu.RLock()
		snapshot := make([]domain.Product, 0, len(r.products))
		for _, p := range r.products {
			snapshot = append(snapshot, p)
		}
		r.mu.RUnlock()

		for i := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(&snapshot[i], nil) {
				return
			}
		}
	}
}

func (r *MemoryRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.products[id]
	return exists, nil
}

func (r *MemoryRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.products, id)
	r.logger.Debug("Product removed", zap.String("product_id", id))
	return nil
}
