package selection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
)

// CatalogCacheKey: ключ снимка каталога категории
func CatalogCacheKey(categoryID uint) string {
	return fmt.Sprintf("catalog:category:%d:items", categoryID)
}

// catalogEntry: поля вопроса, нужные для выборки. Текст и правильный ответ в кеш не попадают.
type catalogEntry struct {
	ID                uint              `json:"id"`
	CategoryID        uint              `json:"category_id"`
	Difficulty        entity.Difficulty `json:"difficulty"`
	UsageCount        int64             `json:"usage_count"`
	CorrectAnswerRate float64           `json:"correct_answer_rate"`
	IsActive          bool              `json:"is_active"`
	IsPublic          bool              `json:"is_public"`
}

// catalogLoadTimeout ограничивает общую загрузку каталога, не привязанную к запросу
const catalogLoadTimeout = 10 * time.Second

// CachedCatalogSource кеширует пул категории в Redis на короткий TTL.
// Устаревший usage_count в пределах TTL допустим: счётчики влияют только на веса.
type CachedCatalogSource struct {
	next   CatalogSource
	cache  repository.CacheRepository
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

// NewCachedCatalogSource создаёт кеширующий источник каталога
func NewCachedCatalogSource(next CatalogSource, cache repository.CacheRepository, ttl time.Duration) *CachedCatalogSource {
	return &CachedCatalogSource{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.With().Str("component", "catalog_cache").Logger(),
	}
}

// ListActiveItems реализует CatalogSource
func (c *CachedCatalogSource) ListActiveItems(ctx context.Context, categoryID uint) ([]entity.Item, error) {
	key := CatalogCacheKey(categoryID)

	var cached []catalogEntry
	err := c.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		catalogCacheLookups.WithLabelValues("hit").Inc()
		return fromCatalogEntries(cached), nil
	case errors.Is(err, apperrors.ErrNotFound):
		catalogCacheLookups.WithLabelValues("miss").Inc()
	default:
		catalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn().Err(err).Uint("category_id", categoryID).Msg("Catalog cache read failed, loading from store")
	}

	// Одновременные промахи по одной категории превращаются в один запрос к базе.
	// Загрузка общая, поэтому идёт без отмены первого вызывающего; каждый
	// вызывающий ждёт её только до отмены собственного контекста.
	ch := c.group.DoChan(strconv.FormatUint(uint64(categoryID), 10), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()

		items, err := c.next.ListActiveItems(loadCtx, categoryID)
		if err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(loadCtx, key, toCatalogEntries(items), c.ttl); err != nil {
			c.logger.Warn().Err(err).Uint("category_id", categoryID).Msg("Failed to cache catalog snapshot")
		}
		return items, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v = res.Val
	}

	// Вызывающие получают собственную копию: результат singleflight общий
	shared := v.([]entity.Item)
	items := make([]entity.Item, len(shared))
	copy(items, shared)
	return items, nil
}

// Invalidate удаляет снимок категории (после загрузки или изменения вопросов)
func (c *CachedCatalogSource) Invalidate(ctx context.Context, categoryIDs ...uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		keys = append(keys, CatalogCacheKey(id))
	}
	return c.cache.Delete(ctx, keys...)
}

func toCatalogEntries(items []entity.Item) []catalogEntry {
	entries := make([]catalogEntry, len(items))
	for i, item := range items {
		entries[i] = catalogEntry{
			ID:                item.ID,
			CategoryID:        item.CategoryID,
			Difficulty:        item.Difficulty,
			UsageCount:        item.UsageCount,
			CorrectAnswerRate: item.CorrectAnswerRate,
			IsActive:          item.IsActive,
			IsPublic:          item.IsPublic,
		}
	}
	return entries
}

func fromCatalogEntries(entries []catalogEntry) []entity.Item {
	items := make([]entity.Item, len(entries))
	for i, e := range entries {
		items[i] = entity.Item{
			ID:                e.ID,
			CategoryID:        e.CategoryID,
			Difficulty:        e.Difficulty,
			UsageCount:        e.UsageCount,
			CorrectAnswerRate: e.CorrectAnswerRate,
			IsActive:          e.IsActive,
			IsPublic:          e.IsPublic,
		}
	}
	return items
}
