package repository

import (
	"context"
	"errors"

	"ecommerce/catalog-service/internal/app/catalog/entity"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const serviceName = "catalog-service"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation = "23505"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uint) (*entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, id uint, changes map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type TagRepository interface {
	Create(ctx context.Context, tag *entity.Tag) error
	GetByID(ctx context.Context, id uint) (*entity.Tag, error)
	GetAll(ctx context.Context) ([]entity.Tag, error)
	Update(ctx context.Context, id uint, changes map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

// AutoMigrate создает таблицы category, tag, product и product_tag
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Category{},
		&entity.Product{},
		&entity.Tag{},
		&entity.ProductTag{},
	)
}

// translateError приводит ошибки драйвера к ошибкам репозитория
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateKey
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
