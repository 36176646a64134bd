package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecommerce/catalog-service/internal/app/catalog/entity"
	"ecommerce/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "catalog-service"

	CategoriesCacheKey   = "categories:all"
	CategoriesVersionKey = "categories:version"
	TagsCacheKey         = "tags:all"
	TagsVersionKey       = "tags:version"
)

// ErrStaleSnapshot - список был инвалидирован, пока снимок читался из БД
var ErrStaleSnapshot = errors.New("cache invalidated while snapshot was loading")

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) CategoriesVersion(ctx context.Context) (int64, error) {
	return r.version(ctx, CategoriesVersionKey)
}

func (r *RedisClient) SetCategories(ctx context.Context, categories []entity.Category, version int64, ttl time.Duration) error {
	return r.setJSON(ctx, CategoriesCacheKey, CategoriesVersionKey, version, categories, ttl)
}

// GetCategories возвращает found=false при промахе кеша
// Закешированный пустой список - это попадание
func (r *RedisClient) GetCategories(ctx context.Context) ([]entity.Category, bool, error) {
	var categories []entity.Category
	found, err := r.getJSON(ctx, CategoriesCacheKey, &categories)
	if err != nil || !found {
		return nil, false, err
	}
	return categories, true, nil
}

func (r *RedisClient) DeleteCategories(ctx context.Context) error {
	return r.invalidate(ctx, CategoriesCacheKey, CategoriesVersionKey)
}

func (r *RedisClient) TagsVersion(ctx context.Context) (int64, error) {
	return r.version(ctx, TagsVersionKey)
}

func (r *RedisClient) SetTags(ctx context.Context, tags []entity.Tag, version int64, ttl time.Duration) error {
	return r.setJSON(ctx, TagsCacheKey, TagsVersionKey, version, tags, ttl)
}

func (r *RedisClient) GetTags(ctx context.Context) ([]entity.Tag, bool, error) {
	var tags []entity.Tag
	found, err := r.getJSON(ctx, TagsCacheKey, &tags)
	if err != nil || !found {
		return nil, false, err
	}
	return tags, true, nil
}

func (r *RedisClient) DeleteTags(ctx context.Context) error {
	return r.invalidate(ctx, TagsCacheKey, TagsVersionKey)
}

func (r *RedisClient) Ping(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpPing)
	defer timer.ObserveDuration()

	if err := r.client.Ping(ctx).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpPing)
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// version возвращает текущую версию списка, 0 если ключа еще нет
func (r *RedisClient) version(ctx context.Context, versionKey string) (int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	version, err := r.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return 0, fmt.Errorf("failed to get %s from cache: %w", versionKey, err)
	}
	return version, nil
}

// setJSON записывает значение под WATCH ключа версии
// Если версия изменилась до или во время записи, значение не сохраняется
func (r *RedisClient) setJSON(ctx context.Context, key, versionKey string, version int64, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStaleSnapshot
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleSnapshot):
		return ErrStaleSnapshot
	case errors.Is(err, redis.TxFailedErr):
		return ErrStaleSnapshot
	default:
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}
}

func (r *RedisClient) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := r.client.Get(ctx, key).Bytes()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, key)
			return false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	metrics.RecordCacheHit(serviceName, key)
	return true, nil
}

// invalidate удаляет список и увеличивает его версию в одной транзакции
func (r *RedisClient) invalidate(ctx context.Context, key, versionKey string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete %s from cache: %w", key, err)
	}
	return nil
}
