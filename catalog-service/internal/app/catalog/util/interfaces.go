package util

import (
	"context"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
)

// RedisCache интерфейс кеша списков категорий и тегов
// Используется для dependency injection и упрощения тестирования
//
// Каждый Delete* увеличивает версию списка. Set* записывает снимок, только если
// версия не изменилась с момента *Version, иначе возвращает ErrStaleSnapshot
type RedisCache interface {
	CategoriesVersion(ctx context.Context) (int64, error)
	SetCategories(ctx context.Context, categories []entity.Category, version int64, ttl time.Duration) error
	GetCategories(ctx context.Context) ([]entity.Category, bool, error)
	DeleteCategories(ctx context.Context) error
	TagsVersion(ctx context.Context) (int64, error)
	SetTags(ctx context.Context, tags []entity.Tag, version int64, ttl time.Duration) error
	GetTags(ctx context.Context) ([]entity.Tag, bool, error)
	DeleteTags(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
