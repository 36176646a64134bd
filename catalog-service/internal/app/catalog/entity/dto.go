package entity

// CreateCategoryRequest - тело POST /api/categories
type CreateCategoryRequest struct {
	CategoryName string `json:"category_name" validate:"required,max=255"`
}

// UpdateCategoryRequest - тело PUT /api/categories/:id
// Поля необязательные, обновляются только переданные
type UpdateCategoryRequest struct {
	CategoryName *string `json:"category_name" validate:"omitempty,min=1,max=255"`
}

// Changes возвращает набор колонок для частичного обновления
func (r *UpdateCategoryRequest) Changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if r.CategoryName != nil {
		changes["category_name"] = *r.CategoryName
	}
	return changes
}

// CreateTagRequest - тело POST /api/tags
type CreateTagRequest struct {
	TagName string `json:"tag_name" validate:"required,max=255"`
}

// UpdateTagRequest - тело PUT /api/tags/:id
type UpdateTagRequest struct {
	TagName *string `json:"tag_name" validate:"omitempty,min=1,max=255"`
}

func (r *UpdateTagRequest) Changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if r.TagName != nil {
		changes["tag_name"] = *r.TagName
	}
	return changes
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CategoryResponse - категория без товаров (ответ на создание)
type CategoryResponse struct {
	ID           uint   `json:"id"`
	CategoryName string `json:"category_name"`
}

// CategoryWithProductsResponse - категория с товарами, products всегда массив
type CategoryWithProductsResponse struct {
	CategoryResponse
	Products []Product `json:"products"`
}

type TagResponse struct {
	ID      uint   `json:"id"`
	TagName string `json:"tag_name"`
}

type TagWithProductsResponse struct {
	TagResponse
	Products []Product `json:"products"`
}

// NewCategoryWithProductsResponse собирает ответ, заменяя nil на пустой список товаров
func NewCategoryWithProductsResponse(category *Category) CategoryWithProductsResponse {
	products := category.Products
	if products == nil {
		products = []Product{}
	}
	return CategoryWithProductsResponse{
		CategoryResponse: CategoryResponse{ID: category.ID, CategoryName: category.CategoryName},
		Products:         products,
	}
}

func NewTagWithProductsResponse(tag *Tag) TagWithProductsResponse {
	products := tag.Products
	if products == nil {
		products = []Product{}
	}
	return TagWithProductsResponse{
		TagResponse: TagResponse{ID: tag.ID, TagName: tag.TagName},
		Products:    products,
	}
}
