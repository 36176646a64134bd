package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/repository"
	"ecommerce/catalog-service/internal/app/catalog/service"
	"ecommerce/catalog-service/internal/app/catalog/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

// newTestApp собирает сервис целиком на SQLite в памяти и miniredis
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))

	mr := miniredis.RunT(t)
	cache, err := util.NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)

	t.Cleanup(func() {
		cache.Close()
		sqlDB.Close()
	})

	categoryService := service.NewCategoryService(repository.NewCategoryRepository(db), cache, nil, time.Minute)
	tagService := service.NewTagService(repository.NewTagRepository(db), cache, nil, time.Minute)

	router := SetupRoutes(
		NewCategoryHandler(categoryService),
		NewTagHandler(tagService),
		NewHealthCheckHandler(db, cache),
	)

	return &testApp{router: router, db: db, redis: mr}
}

func TestCategoryScenario(t *testing.T) {
	app := newTestApp(t)

	w := performRequest(app.router, http.MethodPost, "/api/categories", `{"category_name":"Fruit"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"category_name":"Fruit"}`, w.Body.String())

	w = performRequest(app.router, http.MethodGet, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"category_name":"Fruit","products":[]}`, w.Body.String())

	w = performRequest(app.router, http.MethodPut, "/api/categories/1", `{"category_name":"Produce"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Category updated successfully"}`, w.Body.String())

	// Повторное обновление тем же значением идемпотентно
	w = performRequest(app.router, http.MethodPut, "/api/categories/1", `{"category_name":"Produce"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(app.router, http.MethodGet, "/api/categories/1", "")
	assert.JSONEq(t, `{"id":1,"category_name":"Produce","products":[]}`, w.Body.String())

	w = performRequest(app.router, http.MethodDelete, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Category deleted successfully"}`, w.Body.String())

	w = performRequest(app.router, http.MethodGet, "/api/categories/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No category found with that id."}`, w.Body.String())
}

func TestCategoryMissingIDDoesNotMutate(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Create(&entity.Category{CategoryName: "Fruit"}).Error)

	for _, path := range []string{"/api/categories/404", "/api/categories/0", "/api/categories/abc"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			w := performRequest(app.router, method, path, `{"category_name":"x"}`)
			assert.Equal(t, http.StatusNotFound, w.Code, method+" "+path)
			assert.Equal(t, "No category found with that id.", decodeBody(t, w)["message"], method+" "+path)
		}
	}

	var categories []entity.Category
	require.NoError(t, app.db.Find(&categories).Error)
	require.Len(t, categories, 1)
	assert.Equal(t, "Fruit", categories[0].CategoryName)
}

func TestCategoryListCacheInvalidation(t *testing.T) {
	app := newTestApp(t)

	categoryID := uint(1)
	require.NoError(t, app.db.Create(&entity.Category{CategoryName: "Fruit"}).Error)
	require.NoError(t, app.db.Create(&entity.Product{
		ProductName: "Apple",
		Price:       decimal.RequireFromString("1.50"),
		Stock:       3,
		CategoryID:  &categoryID,
	}).Error)

	w := performRequest(app.router, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"category_name":"Fruit","products":[
		{"id":1,"product_name":"Apple","price":"1.5","stock":3,"category_id":1}
	]}]`, w.Body.String())
	assert.True(t, app.redis.Exists(util.CategoriesCacheKey))

	w = performRequest(app.router, http.MethodPost, "/api/categories", `{"category_name":"Tools"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, app.redis.Exists(util.CategoriesCacheKey))

	w = performRequest(app.router, http.MethodGet, "/api/categories", "")
	var list []entity.CategoryWithProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	// После удаления товар остается без категории
	w = performRequest(app.router, http.MethodDelete, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var product entity.Product
	require.NoError(t, app.db.First(&product).Error)
	assert.Nil(t, product.CategoryID)
}

func TestTagScenario(t *testing.T) {
	app := newTestApp(t)

	w := performRequest(app.router, http.MethodPost, "/api/tags", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w), "error")

	var count int64
	require.NoError(t, app.db.Model(&entity.Tag{}).Count(&count).Error)
	assert.Zero(t, count)

	w = performRequest(app.router, http.MethodPost, "/api/tags", `{"tag_name":"organic"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":1,"tag_name":"organic"}`, w.Body.String())

	product := entity.Product{ProductName: "Apple", Price: decimal.RequireFromString("2"), Stock: 1}
	require.NoError(t, app.db.Create(&product).Error)
	require.NoError(t, app.db.Create(&entity.ProductTag{ProductID: product.ID, TagID: 1}).Error)

	w = performRequest(app.router, http.MethodGet, "/api/tags/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tag entity.TagWithProductsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tag))
	assert.Equal(t, "organic", tag.TagName)
	require.Len(t, tag.Products, 1)
	assert.Equal(t, "Apple", tag.Products[0].ProductName)

	w = performRequest(app.router, http.MethodPut, "/api/tags/1", `{"tag_name":"bio"}`)
	assert.JSONEq(t, `{"message":"Tag updated successfully"}`, w.Body.String())

	w = performRequest(app.router, http.MethodPut, "/api/tags/9", `{"tag_name":"bio"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Tag id does not exist!"}`, w.Body.String())

	w = performRequest(app.router, http.MethodDelete, "/api/tags/1", "")
	assert.JSONEq(t, `{"message":"Tag deleted successfully"}`, w.Body.String())

	w = performRequest(app.router, http.MethodGet, "/api/tags/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No tag found with that id."}`, w.Body.String())

	require.NoError(t, app.db.Model(&entity.ProductTag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)

	w := performRequest(app.router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "healthy", "redis": "healthy"}, body["checks"])

	w = performRequest(app.router, http.MethodGet, "/health/liveness", "")
	assert.Equal(t, "alive", w.Body.String())

	w = performRequest(app.router, http.MethodGet, "/health/readiness", "")
	assert.Equal(t, http.StatusOK, w.Code)

	performRequest(app.router, http.MethodGet, "/api/categories", "")
	w = performRequest(app.router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	app.redis.Close()
	w = performRequest(app.router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = performRequest(app.router, http.MethodGet, "/health/readiness", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheck_CacheDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	router := setupTestRouter()
	NewHealthCheckHandler(db, nil).RegisterRoutes(router)

	w := performRequest(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disabled", decodeBody(t, w)["checks"].(map[string]interface{})["redis"])
}
