package service

import (
	"context"

	"ecommerce/catalog-service/internal/app/catalog/entity"
)

type CategoryServiceInterface interface {
	GetAll(ctx context.Context) ([]entity.Category, error)
	Get(ctx context.Context, id uint) (*entity.Category, error)
	Create(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	Update(ctx context.Context, id uint, req *entity.UpdateCategoryRequest) error
	Delete(ctx context.Context, id uint) error
	WarmCache(ctx context.Context) error
}

type TagServiceInterface interface {
	GetAll(ctx context.Context) ([]entity.Tag, error)
	Get(ctx context.Context, id uint) (*entity.Tag, error)
	Create(ctx context.Context, req *entity.CreateTagRequest) (*entity.Tag, error)
	Update(ctx context.Context, id uint, req *entity.UpdateTagRequest) error
	Delete(ctx context.Context, id uint) error
	WarmCache(ctx context.Context) error
}
