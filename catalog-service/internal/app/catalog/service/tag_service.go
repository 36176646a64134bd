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

// TagService обрабатывает бизнес-логику тегов
// Координирует репозиторий, Redis кеш списка и Kafka события
type TagService struct {
	repo      repository.TagRepository
	cache     util.RedisCache       // nil, если Redis отключен
	publisher util.MessagePublisher // nil, если Kafka отключена
	cacheTTL  time.Duration
}

// NewTagService создает сервис тегов
// cache и publisher необязательны
func NewTagService(
	repo repository.TagRepository,
	cache util.RedisCache,
	publisher util.MessagePublisher,
	cacheTTL time.Duration,
) *TagService {
	return &TagService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
	}
}

// GetAll получает все теги с товарами
// Сначала проверяет кеш, при промахе загружает из БД и кеширует
func (s *TagService) GetAll(ctx context.Context) ([]entity.Tag, error) {
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, found, err := s.cache.GetTags(ctx)
		if err == nil && found {
			return cached, nil
		}
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read tags from cache")
		}

		// Версия читается до запроса в БД, Set* отклонит снимок после инвалидации
		if version, err = s.cache.TagsVersion(ctx); err == nil {
			cacheable = true
		} else {
			logger.Warn().Err(err).Msg("Failed to read tags cache version")
		}
	}

	tags, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}

	if cacheable {
		s.storeInCache(ctx, tags, version)
	}

	return tags, nil
}

// Get получает тег с товарами из БД
func (s *TagService) Get(ctx context.Context, id uint) (*entity.Tag, error) {
	tag, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTagError(err, "failed to get tag")
	}
	return tag, nil
}

func (s *TagService) Create(ctx context.Context, req *entity.CreateTagRequest) (*entity.Tag, error) {
	tag := &entity.Tag{TagName: req.TagName}

	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, mapTagError(err, "failed to create tag")
	}

	s.afterMutation(ctx, entity.EventTagCreated, tag.ID, tag.TagName, "create")

	logger.Info().Uint("tag_id", tag.ID).Msg("Tag created")
	return tag, nil
}

// Update применяет частичное обновление, запись повторно не читается
func (s *TagService) Update(ctx context.Context, id uint, req *entity.UpdateTagRequest) error {
	changes := req.Changes()
	if len(changes) == 0 {
		return ErrNoFieldsToUpdate
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return mapTagError(err, "failed to update tag")
	}

	var name string
	if req.TagName != nil {
		name = *req.TagName
	}
	s.afterMutation(ctx, entity.EventTagUpdated, id, name, "update")

	return nil
}

// Delete удаляет тег вместе со связями product_tag
func (s *TagService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapTagError(err, "failed to delete tag")
	}

	s.afterMutation(ctx, entity.EventTagDeleted, id, "", "delete")

	logger.Info().Uint("tag_id", id).Msg("Tag deleted")
	return nil
}

// WarmCache перезагружает список тегов в кеш
func (s *TagService) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	version, err := s.cache.TagsVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tags cache version: %w", err)
	}

	tags, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}

	if err := s.cache.SetTags(ctx, tags, version, s.cacheTTL); err != nil {
		if errors.Is(err, util.ErrStaleSnapshot) {
			logger.Debug().Msg("Tags changed during warm-up, snapshot skipped")
			return nil
		}
		return fmt.Errorf("failed to cache tags: %w", err)
	}

	return nil
}

func (s *TagService) storeInCache(ctx context.Context, tags []entity.Tag, version int64) {
	err := s.cache.SetTags(ctx, tags, version, s.cacheTTL)
	switch {
	case err == nil:
	case errors.Is(err, util.ErrStaleSnapshot):
		logger.Debug().Msg("Tags changed while loading, snapshot not cached")
	default:
		logger.Warn().Err(err).Msg("Failed to cache tags")
	}
}

// afterMutation инвалидирует кеш, пишет метрику и отправляет событие
func (s *TagService) afterMutation(ctx context.Context, eventType string, id uint, name, operation string) {
	metrics.RecordMutation("tag", operation)

	if s.cache != nil {
		if err := s.cache.DeleteTags(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate tags cache")
		}
	}

	publishEvent(ctx, s.publisher, tagKey(id), newEvent(eventType, id, name))
}

func mapTagError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrTagNotFound):
		return ErrTagNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrAlreadyExists
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
