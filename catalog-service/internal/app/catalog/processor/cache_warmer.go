package processor

import (
	"context"
	"fmt"

	"ecommerce/pkg/logger"
	"ecommerce/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Warmer перезагружает свой список в кеш
type Warmer interface {
	WarmCache(ctx context.Context) error
}

// CacheWarmer периодически прогревает Redis кеш списков категорий и тегов
type CacheWarmer struct {
	cron    *cron.Cron
	targets map[string]Warmer
}

func NewCacheWarmer(targets map[string]Warmer) *CacheWarmer {
	cl := cronLogger{}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &CacheWarmer{
		cron:    c,
		targets: targets,
	}
}

// Start регистрирует задачу по расписанию и сразу выполняет первый прогрев
func (w *CacheWarmer) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cache warmer")

	if _, err := w.cron.AddFunc(schedule, func() { w.WarmAll(ctx) }); err != nil {
		return fmt.Errorf("invalid cache warm schedule %q: %w", schedule, err)
	}

	w.cron.Start()

	w.WarmAll(ctx)
	return nil
}

// WarmAll прогревает все списки, ошибка одного не мешает остальным
func (w *CacheWarmer) WarmAll(ctx context.Context) {
	for name, target := range w.targets {
		if err := target.WarmCache(ctx); err != nil {
			metrics.CatalogCacheWarmups.WithLabelValues("failed").Inc()
			logger.Warn().Err(err).Str("target", name).Msg("Cache warm-up failed")
			continue
		}
		metrics.CatalogCacheWarmups.WithLabelValues("success").Inc()
		logger.Debug().Str("target", name).Msg("Cache warmed")
	}
}

func (w *CacheWarmer) Stop() {
	logger.Info().Msg("Stopping cache warmer...")
	ctx := w.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cache warmer stopped")
}

func (w *CacheWarmer) GetEntries() []cron.Entry {
	return w.cron.Entries()
}

// cronLogger направляет логи cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
