package handler

import (
	"net/http"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	tagNotFoundMessage = "No tag found with that id."
	tagMissingMessage  = "Tag id does not exist!"
)

// TagHandler обрабатывает HTTP запросы для тегов
// Каждый обработчик читает тег сам, без предзагрузки
type TagHandler struct {
	tagService service.TagServiceInterface
	validator  *validator.Validate
}

func NewTagHandler(tagService service.TagServiceInterface) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		validator:  newValidator(),
	}
}

func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tags := rg.Group("/tags")
	{
		tags.GET("", h.GetAllTags)
		tags.GET("/:id", h.GetTag)
		tags.POST("", h.CreateTag)
		tags.PUT("/:id", h.UpdateTag)
		tags.DELETE("/:id", h.DeleteTag)
	}
}

// GetAllTags обрабатывает GET /tags (с кешированием)
func (h *TagHandler) GetAllTags(c *gin.Context) {
	tags, err := h.tagService.GetAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "", "Tag")
		return
	}

	response := make([]entity.TagWithProductsResponse, 0, len(tags))
	for i := range tags {
		response = append(response, entity.NewTagWithProductsResponse(&tags[i]))
	}

	c.JSON(http.StatusOK, response)
}

// GetTag обрабатывает GET /tags/:id
func (h *TagHandler) GetTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": tagNotFoundMessage})
		return
	}

	tag, err := h.tagService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, tagNotFoundMessage, "Tag")
		return
	}

	c.JSON(http.StatusOK, entity.NewTagWithProductsResponse(tag))
}

// CreateTag обрабатывает POST /tags
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req entity.CreateTagRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "", "Tag")
		return
	}

	c.JSON(http.StatusCreated, entity.TagResponse{ID: tag.ID, TagName: tag.TagName})
}

// UpdateTag обрабатывает PUT /tags/:id
func (h *TagHandler) UpdateTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": tagMissingMessage})
		return
	}

	var req entity.UpdateTagRequest
	if !bindAndValidate(c, h.validator, &req) {
		return
	}

	if err := h.tagService.Update(c.Request.Context(), id, &req); err != nil {
		respondServiceError(c, err, tagMissingMessage, "Tag")
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Tag updated successfully"})
}

// DeleteTag обрабатывает DELETE /tags/:id
func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": tagMissingMessage})
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, tagMissingMessage, "Tag")
		return
	}

	c.JSON(http.StatusOK, entity.MessageResponse{Message: "Tag deleted successfully"})
}
