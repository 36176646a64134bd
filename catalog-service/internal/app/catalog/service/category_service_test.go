package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/repository"
	"ecommerce/catalog-service/internal/app/catalog/repository/mocks"
	"ecommerce/catalog-service/internal/app/catalog/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTTL = 10 * time.Minute

// Хелперы для создания тестовых данных

func newTestCategory() *entity.Category {
	id := uint(1)
	return &entity.Category{
		ID:           id,
		CategoryName: "Fruit",
		Products: []entity.Product{
			{ID: 10, ProductName: "Apple", Price: decimal.RequireFromString("1.25"), Stock: 10, CategoryID: &id},
		},
	}
}

func eventOfType(eventType string, id uint) interface{} {
	return mock.MatchedBy(func(payload []byte) bool {
		var event entity.CatalogEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return false
		}
		return event.EventType == eventType && event.EntityID == id
	})
}

func strPtr(s string) *string {
	return &s
}

// ==================== GetAll ====================

func TestCategoryService_GetAll_CacheHit(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	cached := []entity.Category{*newTestCategory()}
	cache.On("GetCategories", ctx).Return(cached, true, nil)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	categories, err := svc.GetAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, cached, categories)
	repo.AssertNotCalled(t, "GetAll", mock.Anything)
	cache.AssertExpectations(t)
}

func TestCategoryService_GetAll_CacheMiss(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	fromDB := []entity.Category{*newTestCategory()}
	cache.On("GetCategories", ctx).Return(nil, false, nil)
	cache.On("CategoriesVersion", ctx).Return(int64(2), nil)
	repo.On("GetAll", ctx).Return(fromDB, nil)
	cache.On("SetCategories", ctx, fromDB, int64(2), testTTL).Return(nil)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	categories, err := svc.GetAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, fromDB, categories)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCategoryService_GetAll_CacheErrorFallsBackToDB(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	cache.On("GetCategories", ctx).Return(nil, false, errors.New("redis down"))
	cache.On("CategoriesVersion", ctx).Return(int64(0), errors.New("redis down"))
	repo.On("GetAll", ctx).Return([]entity.Category{}, nil)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	categories, err := svc.GetAll(ctx)

	require.NoError(t, err)
	assert.Empty(t, categories)
	cache.AssertNotCalled(t, "SetCategories", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_GetAll_CachedEmptyListIsHit(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	cache.On("GetCategories", ctx).Return([]entity.Category{}, true, nil)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	categories, err := svc.GetAll(ctx)

	require.NoError(t, err)
	assert.Empty(t, categories)
	repo.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestCategoryService_GetAll_UpdateDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache, err := util.NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	defer cache.Close()

	repo := new(mocks.MockCategoryRepository)
	svc := NewCategoryService(repo, cache, nil, time.Hour)

	stale := []entity.Category{{ID: 1, CategoryName: "Fruit", Products: []entity.Product{}}}
	fresh := []entity.Category{{ID: 1, CategoryName: "Produce", Products: []entity.Product{}}}

	repo.On("Update", ctx, uint(1), map[string]interface{}{"category_name": "Produce"}).Return(nil)
	// Пока список читается из БД, категория переименовывается
	repo.On("GetAll", ctx).
		Run(func(mock.Arguments) {
			require.NoError(t, svc.Update(ctx, 1, &entity.UpdateCategoryRequest{CategoryName: strPtr("Produce")}))
		}).
		Return(stale, nil).Once()
	repo.On("GetAll", ctx).Return(fresh, nil).Once()

	first, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fruit", first[0].CategoryName)
	assert.False(t, mr.Exists(util.CategoriesCacheKey))

	second, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Produce", second[0].CategoryName)
	assert.True(t, mr.Exists(util.CategoriesCacheKey))

	third, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Produce", third[0].CategoryName)
	repo.AssertNumberOfCalls(t, "GetAll", 2)
}

func TestCategoryService_GetAll_WithoutCache(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	repo.On("GetAll", ctx).Return([]entity.Category{*newTestCategory()}, nil)

	svc := NewCategoryService(repo, nil, nil, testTTL)

	categories, err := svc.GetAll(ctx)

	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCategoryService_GetAll_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	dbErr := errors.New("connection refused")
	repo.On("GetAll", ctx).Return(nil, dbErr)

	svc := NewCategoryService(repo, nil, nil, testTTL)

	categories, err := svc.GetAll(ctx)

	assert.Nil(t, categories)
	assert.ErrorIs(t, err, dbErr)
}

// ==================== Get ====================

func TestCategoryService_Get(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("boom")

	tests := []struct {
		name        string
		repoResult  *entity.Category
		repoErr     error
		expectedErr error
	}{
		{name: "found", repoResult: newTestCategory()},
		{name: "not found", repoErr: repository.ErrCategoryNotFound, expectedErr: ErrCategoryNotFound},
		{name: "db error", repoErr: dbErr, expectedErr: dbErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockCategoryRepository)
			if tt.repoResult != nil {
				repo.On("GetByID", ctx, uint(1)).Return(tt.repoResult, nil)
			} else {
				repo.On("GetByID", ctx, uint(1)).Return(nil, tt.repoErr)
			}

			svc := NewCategoryService(repo, nil, nil, testTTL)
			category, err := svc.Get(ctx, 1)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Fruit", category.CategoryName)
			assert.Len(t, category.Products, 1)
		})
	}
}

// ==================== Create ====================

func TestCategoryService_Create_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)
	publisher := new(mocks.MockMessagePublisher)

	repo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.Category).ID = 7
		}).
		Return(nil)
	cache.On("DeleteCategories", ctx).Return(nil)
	publisher.On("PublishMessage", mock.Anything, "category:7", eventOfType(entity.EventCategoryCreated, 7)).Return(nil)

	svc := NewCategoryService(repo, cache, publisher, testTTL)

	category, err := svc.Create(ctx, &entity.CreateCategoryRequest{CategoryName: "Fruit"})

	require.NoError(t, err)
	assert.Equal(t, uint(7), category.ID)
	assert.Equal(t, "Fruit", category.CategoryName)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCategoryService_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)
	publisher := new(mocks.MockMessagePublisher)

	repo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(repository.ErrDuplicateKey)

	svc := NewCategoryService(repo, cache, publisher, testTTL)

	category, err := svc.Create(ctx, &entity.CreateCategoryRequest{CategoryName: "Fruit"})

	assert.Nil(t, category)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	cache.AssertNotCalled(t, "DeleteCategories", mock.Anything)
	publisher.AssertNotCalled(t, "PublishMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_Create_SideEffectFailuresIgnored(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)
	publisher := new(mocks.MockMessagePublisher)

	repo.On("Create", ctx, mock.AnythingOfType("*entity.Category")).Return(nil)
	cache.On("DeleteCategories", ctx).Return(errors.New("redis down"))
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	svc := NewCategoryService(repo, cache, publisher, testTTL)

	category, err := svc.Create(ctx, &entity.CreateCategoryRequest{CategoryName: "Fruit"})

	require.NoError(t, err)
	assert.NotNil(t, category)
	publisher.AssertExpectations(t)
}

// ==================== Update ====================

func TestCategoryService_Update_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)
	publisher := new(mocks.MockMessagePublisher)

	repo.On("Update", ctx, uint(1), map[string]interface{}{"category_name": "Produce"}).Return(nil)
	cache.On("DeleteCategories", ctx).Return(nil)
	publisher.On("PublishMessage", mock.Anything, "category:1", eventOfType(entity.EventCategoryUpdated, 1)).Return(nil)

	svc := NewCategoryService(repo, cache, publisher, testTTL)

	err := svc.Update(ctx, 1, &entity.UpdateCategoryRequest{CategoryName: strPtr("Produce")})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCategoryService_Update_NoFields(t *testing.T) {
	repo := new(mocks.MockCategoryRepository)
	svc := NewCategoryService(repo, nil, nil, testTTL)

	err := svc.Update(context.Background(), 1, &entity.UpdateCategoryRequest{})

	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategoryService_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	repo.On("Update", ctx, uint(99), mock.Anything).Return(repository.ErrCategoryNotFound)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	err := svc.Update(ctx, 99, &entity.UpdateCategoryRequest{CategoryName: strPtr("Produce")})

	assert.ErrorIs(t, err, ErrCategoryNotFound)
	cache.AssertNotCalled(t, "DeleteCategories", mock.Anything)
}

// ==================== Delete ====================

func TestCategoryService_Delete_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)
	publisher := new(mocks.MockMessagePublisher)

	repo.On("Delete", ctx, uint(1)).Return(nil)
	cache.On("DeleteCategories", ctx).Return(nil)
	publisher.On("PublishMessage", mock.Anything, "category:1", eventOfType(entity.EventCategoryDeleted, 1)).Return(nil)

	svc := NewCategoryService(repo, cache, publisher, testTTL)

	require.NoError(t, svc.Delete(ctx, 1))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCategoryService_Delete_Errors(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("deadlock")

	tests := []struct {
		name     string
		repoErr  error
		expected error
	}{
		{name: "not found", repoErr: repository.ErrCategoryNotFound, expected: ErrCategoryNotFound},
		{name: "db error", repoErr: dbErr, expected: dbErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockCategoryRepository)
			repo.On("Delete", ctx, uint(5)).Return(tt.repoErr)

			svc := NewCategoryService(repo, nil, nil, testTTL)
			err := svc.Delete(ctx, 5)

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

// ==================== WarmCache ====================

func TestCategoryService_WarmCache(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	fromDB := []entity.Category{*newTestCategory()}
	cache.On("CategoriesVersion", ctx).Return(int64(5), nil)
	repo.On("GetAll", ctx).Return(fromDB, nil)
	cache.On("SetCategories", ctx, fromDB, int64(5), testTTL).Return(nil)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	require.NoError(t, svc.WarmCache(ctx))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCategoryService_WarmCache_Disabled(t *testing.T) {
	repo := new(mocks.MockCategoryRepository)
	svc := NewCategoryService(repo, nil, nil, testTTL)

	require.NoError(t, svc.WarmCache(context.Background()))
	repo.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestCategoryService_WarmCache_StaleSnapshotSkipped(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockCategoryRepository)
	cache := new(mocks.MockRedisCache)

	fromDB := []entity.Category{*newTestCategory()}
	cache.On("CategoriesVersion", ctx).Return(int64(1), nil)
	repo.On("GetAll", ctx).Return(fromDB, nil)
	cache.On("SetCategories", ctx, fromDB, int64(1), testTTL).Return(util.ErrStaleSnapshot)

	svc := NewCategoryService(repo, cache, nil, testTTL)

	require.NoError(t, svc.WarmCache(ctx))
	cache.AssertExpectations(t)
}
