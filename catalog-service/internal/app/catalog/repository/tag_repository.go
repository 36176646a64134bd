package repository

import (
	"context"
	"errors"
	"fmt"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/pkg/metrics"

	"gorm.io/gorm"
)

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "tag")

	err := r.db.WithContext(ctx).Omit("Products").Create(tag).Error
	timer.ObserveDuration(err)

	if err != nil {
		if err = translateError(err); errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}

	return nil
}

// GetByID получает тег с товарами через product_tag
func (r *tagRepository) GetByID(ctx context.Context, id uint) (*entity.Tag, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "tag")

	var tag entity.Tag
	err := r.db.WithContext(ctx).
		Preload("Products").
		First(&tag, id).Error
	timer.ObserveDuration(ignoreNotFound(err))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &tag, nil
}

func (r *tagRepository) GetAll(ctx context.Context) ([]entity.Tag, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "tag")

	var tags []entity.Tag
	err := r.db.WithContext(ctx).
		Preload("Products").
		Order("id").
		Find(&tags).Error
	timer.ObserveDuration(err)

	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}

	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, id uint, changes map[string]interface{}) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "tag")

	result := r.db.WithContext(ctx).
		Model(&entity.Tag{}).
		Where("id = ?", id).
		Updates(changes)
	timer.ObserveDuration(result.Error)

	if result.Error != nil {
		if err := translateError(result.Error); errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("failed to update tag: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}

	return nil
}

// Delete удаляет тег и его связи с товарами, сами товары не трогает
func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "tag")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&entity.ProductTag{}).Error; err != nil {
			return fmt.Errorf("failed to delete product tags: %w", err)
		}

		result := tx.Delete(&entity.Tag{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete tag: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTagNotFound
		}

		return nil
	})
	timer.ObserveDuration(ignoreNotFound(err))

	return err
}
