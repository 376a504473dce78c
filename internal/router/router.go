package router

import (
	"net/http"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/handler"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/metrics"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(productHandler *handler.ProductHandler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(m))

	products := router.Group("/api/product")
	{
		products.POST("", productHandler.CreateProduct)
		products.GET("", productHandler.GetAllProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}
