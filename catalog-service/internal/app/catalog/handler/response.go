package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"ecommerce/catalog-service/internal/app/catalog/service"
	"ecommerce/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const internalErrorMessage = "An error occurred"

// newValidator возвращает валидатор, который называет поля по json тегам
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate разбирает JSON тело и проверяет его validate тегами
// При ошибке сам отвечает 400 и возвращает false
func bindAndValidate(c *gin.Context, v *validator.Validate, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}

	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return false
	}

	return true
}

// parseID читает положительный :id из пути
// false означает, что строки с таким id быть не может, ответ - 404 без запроса в БД
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// respondServiceError - общее отображение ошибок сервиса на HTTP ответы
// resource используется в сообщении о конфликте ("Category already exists")
func respondServiceError(c *gin.Context, err error, notFoundMessage, resource string) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound), errors.Is(err, service.ErrTagNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundMessage})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": resource + " already exists"})
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
	default:
		logger.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
	}
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
