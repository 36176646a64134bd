package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/util"
	"ecommerce/pkg/logger"
)

const publishTimeout = 3 * time.Second

// publishEvent отправляет событие каталога, ошибки только логируются
// Изменение уже сохранено в БД, поэтому отмена запроса клиентом отправку не прерывает
func publishEvent(ctx context.Context, publisher util.MessagePublisher, key string, event entity.CatalogEvent) {
	if publisher == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", event.EventType).Msg("Failed to marshal catalog event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.PublishMessage(ctx, key, payload); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", event.EventType).
			Str("key", key).
			Msg("Failed to publish catalog event")
	}
}

func newEvent(eventType string, id uint, name string) entity.CatalogEvent {
	return entity.CatalogEvent{
		EventType: eventType,
		EntityID:  id,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}
}

func categoryKey(id uint) string {
	return fmt.Sprintf("category:%d", id)
}

func tagKey(id uint) string {
	return fmt.Sprintf("tag:%d", id)
}
