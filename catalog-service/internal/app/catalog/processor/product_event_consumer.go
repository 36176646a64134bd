package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/catalog-service/internal/app/catalog/util"
	"ecommerce/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// messageReader - часть kafka.Reader, которую использует consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProductEventConsumer читает события товаров и сбрасывает кеш списков
// Списки категорий и тегов содержат товары, поэтому устаревают при их изменении
type ProductEventConsumer struct {
	reader          messageReader
	cache           util.RedisCache
	retryBackoffMin time.Duration
	retryBackoffMax time.Duration
	stopChan        chan struct{}
	doneChan        chan struct{}
}

func NewProductEventConsumer(brokers []string, topic, groupID string, cache util.RedisCache) *ProductEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1e6,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	return newProductEventConsumer(reader, cache)
}

func newProductEventConsumer(reader messageReader, cache util.RedisCache) *ProductEventConsumer {
	return &ProductEventConsumer{
		reader:          reader,
		cache:           cache,
		retryBackoffMin: 500 * time.Millisecond,
		retryBackoffMax: 10 * time.Second,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *ProductEventConsumer) Start(ctx context.Context) {
	logger.Info().Msg("Starting product event consumer...")
	go c.consume(ctx)
}

func (c *ProductEventConsumer) Stop() {
	logger.Info().Msg("Stopping product event consumer...")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close kafka reader")
	}
	logger.Info().Msg("Product event consumer stopped")
}

func (c *ProductEventConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Debug().Err(err).Msg("No product event fetched")
			continue
		}

		// Коммит покрывает все предыдущие offset'ы партиции, поэтому
		// следующее сообщение читается только после успешной обработки текущего
		if !c.processWithRetry(ctx, message) {
			return
		}

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			logger.Warn().Err(err).Msg("Failed to commit product event")
		}
	}
}

// processWithRetry повторяет обработку с экспоненциальной задержкой
// Возвращает false, если consumer остановлен до успешной обработки
func (c *ProductEventConsumer) processWithRetry(ctx context.Context, message kafka.Message) bool {
	backoff := c.retryBackoffMin

	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, message)
		if err == nil {
			return true
		}

		logger.Error().
			Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Int("attempt", attempt).
			Dur("retry_in", backoff).
			Msg("Failed to process product event")

		select {
		case <-c.stopChan:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > c.retryBackoffMax {
			backoff = c.retryBackoffMax
		}
	}
}

// processMessage сбрасывает оба списка
// Нераспознанное сообщение пропускается, повторное чтение его не исправит
func (c *ProductEventConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ProductEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		logger.Warn().Err(err).Int64("offset", message.Offset).Msg("Skipping malformed product event")
		return nil
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Uint("product_id", event.ProductID).
		Msg("Product event received, invalidating list caches")

	if err := c.cache.DeleteCategories(ctx); err != nil {
		return fmt.Errorf("failed to invalidate categories cache: %w", err)
	}
	if err := c.cache.DeleteTags(ctx); err != nil {
		return fmt.Errorf("failed to invalidate tags cache: %w", err)
	}

	return nil
}
