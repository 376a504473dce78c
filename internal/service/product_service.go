package service

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/events"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/metrics"
	"go.uber.org/zap"
)

const (
	opCreate = "create"
	opList   = "list"
	opGet    = "get"
	opUpdate = "update"
	opDelete = "delete"
)

type ProductService struct {
	productRepo repository.ProductRepository
	publisher   events.Publisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewProductService(productRepo repository.ProductRepository, publisher events.Publisher, m *metrics.Metrics, logger *zap.Logger) *ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProductService{
		productRepo: productRepo,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, req domain.ProductRequest) (resp *domain.ProductResponse, err error) {
	defer func() { s.observe(opCreate, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	product := req.ToProduct()
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now

	saved, err := s.productRepo.Insert(ctx, product)
	if err != nil {
		s.logger.Error("Failed to save product",
			zap.String("product_id", product.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created successfully",
		zap.String("product_id", saved.ID),
		zap.String("price", saved.Price.String()))

	resp = domain.ToProductResponse(saved)
	s.publish(ctx, events.ProductCreated, saved.ID, resp)

	return resp, nil
}

// GetAllProducts streams every product in store order. Iteration stops after
// the first error, which is yielded with a nil product. A full drain logs the
// number of products seen.
func (s *ProductService) GetAllProducts(ctx context.Context) iter.Seq2[*domain.ProductResponse, error] {
	return func(yield func(*domain.ProductResponse, error) bool) {
		var failure error
		defer func() { s.observe(opList, failure) }()

		count := 0
		for product, err := range s.productRepo.FindAll(ctx) {
			if err != nil {
				failure = err
				s.logger.Error("Failed to list products", zap.Error(err))
				yield(nil, err)
				return
			}
			if !yield(domain.ToProductResponse(product), nil) {
				return
			}
			count++
		}

		s.logger.Info("Products retrieved", zap.Int("count", count))
	}
}

func (s *ProductService) GetProductByID(ctx context.Context, id string) (resp *domain.ProductResponse, err error) {
	defer func() { s.observe(opGet, err) }()

	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product retrieved", zap.String("product_id", product.ID))
	return domain.ToProductResponse(product), nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, req domain.ProductRequest) (resp *domain.ProductResponse, err error) {
	defer func() { s.observe(opUpdate, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	req.Apply(product)
	product.UpdatedAt = s.now()

	saved, err := s.productRepo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product updated successfully", zap.String("product_id", saved.ID))

	resp = domain.ToProductResponse(saved)
	s.publish(ctx, events.ProductUpdated, saved.ID, resp)

	return resp, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) (err error) {
	defer func() { s.observe(opDelete, err) }()

	if id == "" {
		return &domain.NotFoundError{ID: id}
	}

	exists, err := s.productRepo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{ID: id}
	}

	if err := s.productRepo.DeleteByID(ctx, id); err != nil {
		s.logger.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(err))
		return err
	}

	s.logger.Info("Product deleted successfully", zap.String("product_id", id))
	s.publish(ctx, events.ProductDeleted, id, nil)

	return nil
}

// find treats an empty id like any other unknown id.
func (s *ProductService) find(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, &domain.NotFoundError{ID: id}
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{ID: id}
	}
	return product, nil
}

// publish never fails the caller; the mutation has already been stored.
func (s *ProductService) publish(ctx context.Context, eventType, id string, product *domain.ProductResponse) {
	event := events.NewProductEvent(ctx, eventType, id, product)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish product event",
			zap.String("event_type", eventType),
			zap.String("product_id", id),
			zap.Error(err))
	}
}

func (s *ProductService) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidProduct):
		return "invalid"
	case errors.Is(err, repository.ErrDuplicateProduct):
		return "duplicate"
	default:
		return "error"
	}
}
