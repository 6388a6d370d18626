package selection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
)

// CategoryCounterKey: ключ Redis со счётчиком выборок по категории
func CategoryCounterKey(categoryID uint) string {
	return fmt.Sprintf("selection:category:%d:count", categoryID)
}

// StoreUsageRecorder записывает использование в Postgres и счётчики в Redis
type StoreUsageRecorder struct {
	items  repository.ItemRepository
	audits repository.SelectionAuditRepository
	cache  repository.CacheRepository
}

// NewStoreUsageRecorder создаёт рекордер. cache может быть nil.
func NewStoreUsageRecorder(
	items repository.ItemRepository,
	audits repository.SelectionAuditRepository,
	cache repository.CacheRepository,
) *StoreUsageRecorder {
	return &StoreUsageRecorder{items: items, audits: audits, cache: cache}
}

// BumpUsage атомарно увеличивает usage_count выбранных вопросов
func (r *StoreUsageRecorder) BumpUsage(ctx context.Context, itemIDs []uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	if _, err := r.items.IncrementUsage(ctx, itemIDs); err != nil {
		return fmt.Errorf("%w: bump usage: %v", ErrRecorderFailure, err)
	}
	return nil
}

// RecordAudit сохраняет запись аудита и увеличивает счётчик категории
func (r *StoreUsageRecorder) RecordAudit(ctx context.Context, event AuditEvent) error {
	audit := &entity.SelectionAudit{
		ID:          uuid.NewString(),
		Algorithm:   string(event.Algorithm),
		RequesterID: event.RequesterID,
		CategoryID:  event.CategoryID,
		ItemIDs:     entity.UintArray(event.ItemIDs),
		OverlapUsed: event.OverlapUsed,
		CreatedAt:   event.Timestamp,
	}
	if err := r.audits.Create(ctx, audit); err != nil {
		return fmt.Errorf("%w: record audit: %v", ErrRecorderFailure, err)
	}

	if r.cache != nil {
		if _, err := r.cache.Increment(ctx, CategoryCounterKey(event.CategoryID)); err != nil {
			return fmt.Errorf("%w: category counter: %v", ErrRecorderFailure, err)
		}
	}
	return nil
}

// recordDispatcher запускает запись использования в фоне
// и позволяет дождаться её завершения при остановке сервера.
type recordDispatcher struct {
	recorder UsageRecorder
	timeout  time.Duration
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// dispatch не блокирует вызывающего. Контекст запроса отвязывается от отмены,
// но значения (trace id и т.п.) сохраняются.
func (d *recordDispatcher) dispatch(ctx context.Context, event AuditEvent, bumpUsage bool) {
	if d.recorder == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.record(context.WithoutCancel(ctx), event, bumpUsage)
	}()
}

func (d *recordDispatcher) record(ctx context.Context, event AuditEvent, bumpUsage bool) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var g errgroup.Group
	if bumpUsage {
		g.Go(func() error {
			if err := d.recorder.BumpUsage(ctx, event.ItemIDs); err != nil {
				recorderFailures.WithLabelValues("bump_usage").Inc()
				d.logger.Error().Err(err).
					Uint("category_id", event.CategoryID).
					Int("items", len(event.ItemIDs)).
					Msg("Failed to bump item usage")
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := d.recorder.RecordAudit(ctx, event); err != nil {
			recorderFailures.WithLabelValues("record_audit").Inc()
			d.logger.Error().Err(err).
				Uint("category_id", event.CategoryID).
				Uint("requester_id", event.RequesterID).
				Msg("Failed to record selection audit")
			return err
		}
		return nil
	})

	// Ошибки уже залогированы, вызывающему они не нужны
	_ = g.Wait()
}

// wait дожидается завершения фоновых записей или отмены ctx
func (d *recordDispatcher) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
