package repository

import (
	"context"
	"errors"
	"fmt"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/pkg/metrics"

	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository создает репозиторий категорий поверх GORM
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create сохраняет категорию, ID заполняется базой
func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "category")

	err := r.db.WithContext(ctx).Omit("Products").Create(category).Error
	timer.ObserveDuration(err)

	if err != nil {
		if err = translateError(err); errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetByID получает категорию вместе с товарами
func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*entity.Category, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "category")

	var category entity.Category
	err := r.db.WithContext(ctx).
		Preload("Products").
		First(&category, id).Error
	timer.ObserveDuration(ignoreNotFound(err))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

// GetAll получает все категории с товарами
func (r *categoryRepository) GetAll(ctx context.Context) ([]entity.Category, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "category")

	var categories []entity.Category
	err := r.db.WithContext(ctx).
		Preload("Products").
		Order("id").
		Find(&categories).Error
	timer.ObserveDuration(err)

	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	return categories, nil
}

// Update применяет частичное обновление
// Возвращает ErrCategoryNotFound, если ни одна строка не изменена
func (r *categoryRepository) Update(ctx context.Context, id uint, changes map[string]interface{}) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "category")

	result := r.db.WithContext(ctx).
		Model(&entity.Category{}).
		Where("id = ?", id).
		Updates(changes)
	timer.ObserveDuration(result.Error)

	if result.Error != nil {
		if err := translateError(result.Error); errors.Is(err, ErrDuplicateKey) {
			return err
		}
		return fmt.Errorf("failed to update category: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete удаляет категорию
// Товары категории не удаляются: category_id обнуляется в той же транзакции
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "category")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Product{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach products: %w", err)
		}

		result := tx.Delete(&entity.Category{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete category: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCategoryNotFound
		}

		return nil
	})
	timer.ObserveDuration(ignoreNotFound(err))

	return err
}

// ignoreNotFound - отсутствие записи не считается ошибкой БД в метриках
func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrTagNotFound) {
		return nil
	}
	return err
}
