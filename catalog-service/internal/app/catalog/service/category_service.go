package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/repository"
	"ecommerce/catalog-service/internal/app/catalog/util"
	"ecommerce/pkg/logger"
	"ecommerce/pkg/metrics"
)

// CategoryService обрабатывает бизнес-логику категорий
// Координирует репозиторий, Redis кеш списка и Kafka события
type CategoryService struct {
	repo      repository.CategoryRepository
	cache     util.RedisCache       // nil, если Redis отключен
	publisher util.MessagePublisher // nil, если Kafka отключена
	cacheTTL  time.Duration
}

// NewCategoryService создает сервис категорий
// cache и publisher необязательны
func NewCategoryService(
	repo repository.CategoryRepository,
	cache util.RedisCache,
	publisher util.MessagePublisher,
	cacheTTL time.Duration,
) *CategoryService {
	return &CategoryService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
	}
}

// GetAll получает все категории с товарами
// Сначала проверяет кеш, при промахе загружает из БД и кеширует
func (s *CategoryService) GetAll(ctx context.Context) ([]entity.Category, error) {
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, found, err := s.cache.GetCategories(ctx)
		if err == nil && found {
			return cached, nil
		}
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read categories from cache")
		}

		// Версия читается до запроса в БД, Set* отклонит снимок после инвалидации
		if version, err = s.cache.CategoriesVersion(ctx); err == nil {
			cacheable = true
		} else {
			logger.Warn().Err(err).Msg("Failed to read categories cache version")
		}
	}

	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	if cacheable {
		s.storeInCache(ctx, categories, version)
	}

	return categories, nil
}

// Get получает категорию с товарами из БД
func (s *CategoryService) Get(ctx context.Context, id uint) (*entity.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryError(err, "failed to get category")
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	category := &entity.Category{CategoryName: req.CategoryName}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapCategoryError(err, "failed to create category")
	}

	s.afterMutation(ctx, entity.EventCategoryCreated, category.ID, category.CategoryName, "create")

	logger.Info().Uint("category_id", category.ID).Msg("Category created")
	return category, nil
}

// Update применяет частичное обновление, запись повторно не читается
func (s *CategoryService) Update(ctx context.Context, id uint, req *entity.UpdateCategoryRequest) error {
	changes := req.Changes()
	if len(changes) == 0 {
		return ErrNoFieldsToUpdate
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return mapCategoryError(err, "failed to update category")
	}

	var name string
	if req.CategoryName != nil {
		name = *req.CategoryName
	}
	s.afterMutation(ctx, entity.EventCategoryUpdated, id, name, "update")

	return nil
}

// Delete удаляет категорию, товары остаются без категории
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapCategoryError(err, "failed to delete category")
	}

	s.afterMutation(ctx, entity.EventCategoryDeleted, id, "", "delete")

	logger.Info().Uint("category_id", id).Msg("Category deleted")
	return nil
}

// WarmCache перезагружает список категорий в кеш
func (s *CategoryService) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	version, err := s.cache.CategoriesVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read categories cache version: %w", err)
	}

	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	if err := s.cache.SetCategories(ctx, categories, version, s.cacheTTL); err != nil {
		if errors.Is(err, util.ErrStaleSnapshot) {
			logger.Debug().Msg("Categories changed during warm-up, snapshot skipped")
			return nil
		}
		return fmt.Errorf("failed to cache categories: %w", err)
	}

	return nil
}

func (s *CategoryService) storeInCache(ctx context.Context, categories []entity.Category, version int64) {
	err := s.cache.SetCategories(ctx, categories, version, s.cacheTTL)
	switch {
	case err == nil:
	case errors.Is(err, util.ErrStaleSnapshot):
		logger.Debug().Msg("Categories changed while loading, snapshot not cached")
	default:
		logger.Warn().Err(err).Msg("Failed to cache categories")
	}
}

// afterMutation инвалидирует кеш, пишет метрику и отправляет событие
func (s *CategoryService) afterMutation(ctx context.Context, eventType string, id uint, name, operation string) {
	metrics.RecordMutation("category", operation)

	if s.cache != nil {
		if err := s.cache.DeleteCategories(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate categories cache")
		}
	}

	publishEvent(ctx, s.publisher, categoryKey(id), newEvent(eventType, id, name))
}

func mapCategoryError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrAlreadyExists
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
