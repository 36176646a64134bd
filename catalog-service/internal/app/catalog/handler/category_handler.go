package handler

import (
	"net/http"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/service"
	"ecommerce/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const categoryMissingMessage = "Category id does not exist!"

// CategoryHandler обрабатывает HTTP запросы для категорий
type CategoryHandler struct {
	categoryService service.CategoryServiceInterface
	validator       *validator.Validate
}

// NewCategoryHandler создает новый обработчик категорий
func NewCategoryHandler(categoryService service.CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       newValidator(),
	}
}

// RegisterRoutes регистрирует маршруты /categories
// Все маршруты с :id проходят через LoadCategory
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	{
		categories.GET("", h.GetAllCategories)
		categories.POST("", h.CreateCategory)

		byID := categories.Group("/:id", h.LoadCategory())
		byID.GET("", h.GetCategory)
		byID.PUT("", h.UpdateCategory)
		byID.DELETE("", h.DeleteCategory)
	}
}

// GetAllCategories обрабатывает GET /categories (с кешированием)
func (h *CategoryHandler) GetAllCategories(c *gin.Context) {
	categories, err := h.categoryService.GetAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "", "Category")
		return
	}

	response := make([]entity.CategoryWithProductsResponse, 0, len(categories))
	for i := range categories {
		response = append(response, entity.NewCategoryWithProductsResponse(&categories[i]))
	}

	c.JSON(http.StatusOK, response)
}

// GetCategory обрабатывает GET /categories/:id
// Категория уже загружена LoadCategory, повторного запроса нет
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, ok := CategoryFromContext(c)
	if !ok {
		logger.Error().Str("route", c.FullPath()).Msg("Category missing from request context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}

	c.JSON(http.StatusOK, entity.NewCategoryWithProductsResponse(category))
}

// CreateCategory обрабатывает POST /categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "", "Category")
		return
	}

	c.JSON(http.StatusCreated, entity.CategoryResponse{
		ID:           category.ID,
		CategoryName: category.CategoryName,
	})
}

// UpdateCategory обрабатывает PUT /categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	category, ok := CategoryFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}

	var req entity.UpdateCategoryRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.categoryService.Update(c.Request.Context(), category.ID, &req); err != nil {
		respondServiceError(c, err, categoryMissingMessage, "Category")
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Category updated successfully"})
}

// DeleteCategory обрабатывает DELETE /categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	category, ok := CategoryFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), category.ID); err != nil {
		respondServiceError(c, err, categoryMissingMessage, "Category")
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Category deleted successfully"})
}
