package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/handler"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/service"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/metrics"
	"github.com/cloud-wave-best-zizon/catalog-service/pkg/requestid"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type catalogAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newCatalogAPI(t *testing.T) *catalogAPI {
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	m := metrics.New()
	svc := service.NewProductService(repository.NewMemoryRepository(logger), nil, m, logger)
	return &catalogAPI{t: t, router: NewRouter(handler.NewProductHandler(svc, logger), m, logger)}
}

func (a *catalogAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *catalogAPI) decode(w *httptest.ResponseRecorder, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCatalog_CreateThenFetch(t *testing.T) {
	api := newCatalogAPI(t)

	w := api.do(http.MethodPost, "/api/product", `{"name":"SUV","description":"","price":10000000}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.ProductResponse
	api.decode(w, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "SUV", created.Name)
	assert.Equal(t, "10000000", created.Price.String())

	w = api.do(http.MethodGet, "/api/product/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var fetched domain.ProductResponse
	api.decode(w, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.True(t, created.Price.Equal(fetched.Price))
}

func TestCatalog_ListAll(t *testing.T) {
	api := newCatalogAPI(t)

	w := api.do(http.MethodGet, "/api/product", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	for _, name := range []string{"A", "B", "C"} {
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/product", `{"name":"`+name+`","price":1}`).Code)
	}

	w = api.do(http.MethodGet, "/api/product", "")
	require.Equal(t, http.StatusOK, w.Code)

	var all []domain.ProductResponse
	api.decode(w, &all)
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, names)
}

func TestCatalog_UpdateKeepsID(t *testing.T) {
	api := newCatalogAPI(t)

	var created domain.ProductResponse
	api.decode(api.do(http.MethodPost, "/api/product", `{"id":"car-1","name":"SUV","price":100}`), &created)
	require.Equal(t, "car-1", created.ID)

	w := api.do(http.MethodPut, "/api/product/car-1", `{"id":"other","name":"Truck","description":"4x4","price":"250.75"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var updated domain.ProductResponse
	api.decode(w, &updated)
	assert.Equal(t, "car-1", updated.ID)
	assert.Equal(t, "Truck", updated.Name)
	assert.Equal(t, "4x4", updated.Description)
	assert.Equal(t, "250.75", updated.Price.String())

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/product/other", "").Code)
}

func TestCatalog_Delete(t *testing.T) {
	api := newCatalogAPI(t)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/product", `{"id":"car-1","name":"SUV","price":1}`).Code)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/product/car-1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/product/car-1", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/product/car-1", "").Code)
}

func TestCatalog_Errors(t *testing.T) {
	api := newCatalogAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/product", `{"id":"car-1","name":"SUV","price":1}`).Code)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Delete unknown id",
			method:         http.MethodDelete,
			path:           "/api/product/non-existent-id",
			expectedStatus: http.StatusNotFound,
			expectedError:  "product not found with id: non-existent-id",
		},
		{
			name:           "Get unknown id",
			method:         http.MethodGet,
			path:           "/api/product/non-existent-id",
			expectedStatus: http.StatusNotFound,
			expectedError:  "product not found with id: non-existent-id",
		},
		{
			name:           "Update unknown id",
			method:         http.MethodPut,
			path:           "/api/product/non-existent-id",
			body:           `{"name":"SUV","price":1}`,
			expectedStatus: http.StatusNotFound,
			expectedError:  "product not found with id: non-existent-id",
		},
		{
			name:           "Missing name",
			method:         http.MethodPost,
			path:           "/api/product",
			body:           `{"price":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "name is required",
		},
		{
			name:           "Negative price",
			method:         http.MethodPost,
			path:           "/api/product",
			body:           `{"name":"SUV","price":-5}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "price must not be negative",
		},
		{
			name:           "Price scale beyond storage",
			method:         http.MethodPost,
			path:           "/api/product",
			body:           `{"name":"SUV","price":"1e-20000000"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "price must have at most 18 decimal places",
		},
		{
			name:           "Forty digit price",
			method:         http.MethodPost,
			path:           "/api/product",
			body:           `{"name":"SUV","price":1234567890123456789012345678901234567890}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "price must have at most 34 digits",
		},
		{
			name:           "Update with oversized price",
			method:         http.MethodPut,
			path:           "/api/product/car-1",
			body:           `{"name":"SUV","price":"1e20000000"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "price must have at most 34 digits",
		},
		{
			name:           "Duplicate id",
			method:         http.MethodPost,
			path:           "/api/product",
			body:           `{"id":"car-1","name":"SUV","price":1}`,
			expectedStatus: http.StatusConflict,
			expectedError:  "Product already exists",
		},
		{
			name:           "Malformed body",
			method:         http.MethodPost,
			path:           "/api/product",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Less(t, w.Body.Len(), 1024)
			var body map[string]string
			api.decode(w, &body)
			assert.Equal(t, tt.expectedError, body["error"])
		})
	}
}

func TestCatalog_HealthAndMetrics(t *testing.T) {
	api := newCatalogAPI(t)

	w := api.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	api.do(http.MethodGet, "/api/product/missing", "")

	w = api.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `catalog_http_requests_total{method="GET",route="/api/product/:id",status="404"} 1`)
	assert.Contains(t, w.Body.String(), `catalog_product_operations_total{operation="get",result="not_found"} 1`)
}

func TestCatalog_RequestIDEchoed(t *testing.T) {
	api := newCatalogAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestid.Header, "trace-42")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, "trace-42", w.Header().Get(requestid.Header))
}
