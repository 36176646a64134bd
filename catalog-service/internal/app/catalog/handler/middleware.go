package handler

import (
	"net/http"

	"ecommerce/catalog-service/internal/app/catalog/entity"

	"github.com/gin-gonic/gin"
)

const (
	categoryContextKey      = "category"
	categoryNotFoundMessage = "No category found with that id."
)

// LoadCategory загружает категорию с товарами по :id и кладет ее в контекст запроса
// Если категории нет, отвечает 404 и прерывает цепочку
func (h *CategoryHandler) LoadCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": categoryNotFoundMessage})
			return
		}

		category, err := h.categoryService.Get(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err, categoryNotFoundMessage, "Category")
			c.Abort()
			return
		}

		c.Set(categoryContextKey, category)
		c.Next()
	}
}

// CategoryFromContext возвращает категорию, загруженную LoadCategory
func CategoryFromContext(c *gin.Context) (*entity.Category, bool) {
	value, exists := c.Get(categoryContextKey)
	if !exists {
		return nil, false
	}
	category, ok := value.(*entity.Category)
	return category, ok && category != nil
}
