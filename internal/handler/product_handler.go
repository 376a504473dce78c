package handler

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"strings"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProductService is what the HTTP layer needs from the catalog service.
type ProductService interface {
	CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.ProductResponse, error)
	GetAllProducts(ctx context.Context) iter.Seq2[*domain.ProductResponse, error]
	GetProductByID(ctx context.Context, id string) (*domain.ProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req domain.ProductRequest) (*domain.ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ProductHandler struct {
	productService ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.ProductRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to create product", req.ID, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetAllProducts drains the service sequence before writing so a store error
// still produces a clean 500.
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	products := make([]*domain.ProductResponse, 0)
	for product, err := range h.productService.GetAllProducts(c.Request.Context()) {
		if err != nil {
			h.writeError(c, "Failed to get products", "", err)
			return
		}
		products = append(products, product)
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	product, err := h.productService.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, "Failed to get product", productID, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var req domain.ProductRequest
	if !h.bind(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, req)
	if err != nil {
		h.writeError(c, "Failed to update product", productID, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	if err := h.productService.DeleteProduct(c.Request.Context(), productID); err != nil {
		h.writeError(c, "Failed to delete product", productID, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bind decodes the body and applies the binding tags. A missing required
// field is reported the same way the service reports it.
func (h *ProductHandler) bind(c *gin.Context, req *domain.ProductRequest) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	h.logger.Warn("Invalid request", zap.Error(err))

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": strings.ToLower(fieldErrs[0].Field()) + " is required",
		})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error": "Invalid request format",
	})
	return false
}

// writeError maps service errors onto status codes. Store failures are
// logged and hidden behind the generic message.
func (h *ProductHandler) writeError(c *gin.Context, message, productID string, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, repository.ErrDuplicateProduct):
		c.JSON(http.StatusConflict, gin.H{"error": "Product already exists"})
	default:
		h.logger.Error(message,
			zap.String("product_id", productID),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
