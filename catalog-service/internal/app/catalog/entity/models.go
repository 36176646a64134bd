package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category представляет категорию товаров
// Один ко многим с Product через product.category_id
type Category struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	CategoryName string    `json:"category_name" gorm:"type:varchar(255);not null"`
	Products     []Product `json:"products" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName указывает имя таблицы для GORM
func (Category) TableName() string {
	return "category"
}

// Tag представляет тег товара
// Многие ко многим с Product через таблицу product_tag
type Tag struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	TagName  string    `json:"tag_name" gorm:"type:varchar(255);not null"`
	Products []Product `json:"products" gorm:"many2many:product_tag;"`
}

func (Tag) TableName() string {
	return "tag"
}

// Product - товар, которым владеет внешний сервис
// Здесь только читается как вложение категории или тега
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ProductName string          `json:"product_name" gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:10"`
	CategoryID  *uint           `json:"category_id" gorm:"index"`
}

func (Product) TableName() string {
	return "product"
}

// ProductTag - строка связи product_tag
type ProductTag struct {
	ProductID uint `json:"product_id" gorm:"primaryKey"`
	TagID     uint `json:"tag_id" gorm:"primaryKey"`
}

func (ProductTag) TableName() string {
	return "product_tag"
}

// Типы событий каталога для Kafka
const (
	EventCategoryCreated = "CATEGORY_CREATED"
	EventCategoryUpdated = "CATEGORY_UPDATED"
	EventCategoryDeleted = "CATEGORY_DELETED"
	EventTagCreated      = "TAG_CREATED"
	EventTagUpdated      = "TAG_UPDATED"
	EventTagDeleted      = "TAG_DELETED"
)

// CatalogEvent - событие изменения категории или тега
type CatalogEvent struct {
	EventType string    `json:"event_type"`
	EntityID  uint      `json:"entity_id"`
	Name      string    `json:"name,omitempty"` // Пусто для частичных обновлений без имени и для удаления
	Timestamp time.Time `json:"timestamp"`
}

// ProductEvent - событие внешнего сервиса товаров из топика product_events
// Любое изменение товара делает кешированные списки устаревшими
type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID uint      `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}
