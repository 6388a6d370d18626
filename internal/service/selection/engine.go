package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// Dependencies содержит внешние источники движка выборки
type Dependencies struct {
	Catalog  CatalogSource
	History  HistorySource // nil: всегда cold start
	Recorder UsageRecorder // nil: использование не записывается
}

// Option настраивает Engine
type Option func(*Engine)

// WithRand задаёт источник случайности. Источник должен быть безопасен для горутин:
// сид-генератор оборачивается так: WithRand(NewLockedRand(rand.New(rand.NewPCG(seed, seed)))).
func WithRand(rng Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock задаёт источник текущего времени для окон недавности
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger задаёт логгер движка
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// selectorFunc: стратегия выборки поверх общего сэмплера
type selectorFunc func(s *sampler, pool []entity.Item, history History, req Request, wc weightContext) (sampleResult, error)

// Engine выбирает вопросы для попыток. Безопасен для одновременного использования.
type Engine struct {
	config    *Config
	deps      *Dependencies
	rng       Rand
	now       func() time.Time
	logger    zerolog.Logger
	selectors map[Algorithm]selectorFunc
	recorder  *recordDispatcher
}

// NewEngine создаёт движок выборки
func NewEngine(config *Config, deps *Dependencies, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selection config: %w", err)
	}
	if deps == nil || deps.Catalog == nil {
		return nil, errors.New("selection engine requires a catalog source")
	}

	e := &Engine{
		config: config,
		deps:   deps,
		rng:    globalRand{},
		now:    time.Now,
		logger: log.With().Str("component", "selection").Logger(),
		selectors: map[Algorithm]selectorFunc{
			AlgorithmWeightedRandom:     selectWeightedRandom,
			AlgorithmDifficultyBalanced: selectBalanced,
			AlgorithmUsageBased:         selectUsageBased,
			AlgorithmAdaptive:           selectAdaptive,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recorder = &recordDispatcher{
		recorder: deps.Recorder,
		timeout:  config.RecorderTimeout,
		logger:   e.logger.With().Str("component", "recorder").Logger(),
	}
	return e, nil
}

// Select выбирает DesiredCount различных вопросов категории.
// Возвращает ErrInvalidRequest, ErrUnknownAlgorithm или ErrInsufficientPool;
// частичный результат наружу не отдаётся. Недоступность истории не является ошибкой.
// Если запрос не DryRun, выбранные вопросы асинхронно передаются в UsageRecorder.
func (e *Engine) Select(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	algorithm := string(req.Algorithm)

	if err := req.Validate(); err != nil {
		selectionRequests.WithLabelValues(algorithm, "invalid").Inc()
		return nil, err
	}

	// Стратегия проверяется до любого I/O: неизвестное имя — ошибка конфигурации
	selector, ok := e.selectors[req.Algorithm]
	if !ok {
		selectionRequests.WithLabelValues("unknown", "unknown_algorithm").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, req.Algorithm)
	}

	items, err := e.deps.Catalog.ListActiveItems(ctx, req.CategoryID)
	if err != nil {
		selectionRequests.WithLabelValues(algorithm, "error").Inc()
		return nil, fmt.Errorf("failed to load catalog for category %d: %w", req.CategoryID, err)
	}

	pool := selectablePool(items, req.CategoryID)
	if len(pool) < req.DesiredCount {
		selectionRequests.WithLabelValues(algorithm, "insufficient_pool").Inc()
		return nil, fmt.Errorf("%w: category %d has %d selectable items, %d requested",
			ErrInsufficientPool, req.CategoryID, len(pool), req.DesiredCount)
	}

	history := e.loadHistory(ctx, req)

	s := &sampler{rng: e.rng}
	wc := weightContext{cfg: e.config, now: e.now()}
	res, err := selector(s, pool, history, req, wc)
	if err == nil && len(res.ids) != req.DesiredCount {
		err = ErrInsufficientPool
	}
	if err != nil {
		if errors.Is(err, ErrInsufficientPool) {
			selectionRequests.WithLabelValues(algorithm, "insufficient_pool").Inc()
			return nil, fmt.Errorf("%w: selected %d of %d from category %d",
				ErrInsufficientPool, len(res.ids), req.DesiredCount, req.CategoryID)
		}
		selectionRequests.WithLabelValues(algorithm, "error").Inc()
		return nil, err
	}

	result := &Result{
		ItemIDs:     res.ids,
		OverlapUsed: res.overlapUsed,
		Algorithm:   req.Algorithm,
	}

	selectionRequests.WithLabelValues(algorithm, "ok").Inc()
	selectionDuration.WithLabelValues(algorithm).Observe(time.Since(start).Seconds())
	selectionOverlapUsed.Observe(float64(result.OverlapUsed))

	e.logger.Debug().
		Str("algorithm", algorithm).
		Uint("category_id", req.CategoryID).
		Uint("requester_id", req.RequesterID).
		Int("pool", len(pool)).
		Int("history", len(history)).
		Int("overlap_used", result.OverlapUsed).
		Bool("dry_run", req.DryRun).
		Msg("Items selected")

	if !req.DryRun {
		e.recorder.dispatch(ctx, e.auditEvent(req, result), true)
	}
	return result, nil
}

// Commit передаёт в UsageRecorder результат, полученный в режиме DryRun.
// Так вызывающий может сначала сохранить попытку и только потом засчитать использование.
func (e *Engine) Commit(ctx context.Context, req Request, result *Result) {
	if result == nil {
		return
	}
	e.recorder.dispatch(ctx, e.auditEvent(req, result), true)
}

// Audit записывает в журнал результат, полученный в режиме DryRun,
// не увеличивая usage_count вопросов
func (e *Engine) Audit(ctx context.Context, req Request, result *Result) {
	if result == nil {
		return
	}
	e.recorder.dispatch(ctx, e.auditEvent(req, result), false)
}

// Wait дожидается завершения фоновой записи использования (для graceful shutdown)
func (e *Engine) Wait(ctx context.Context) error {
	return e.recorder.wait(ctx)
}

// Config возвращает настройки движка
func (e *Engine) Config() *Config {
	return e.config
}

func (e *Engine) auditEvent(req Request, result *Result) AuditEvent {
	ids := make([]uint, len(result.ItemIDs))
	copy(ids, result.ItemIDs)
	return AuditEvent{
		Algorithm:   result.Algorithm,
		RequesterID: req.RequesterID,
		CategoryID:  req.CategoryID,
		ItemIDs:     ids,
		OverlapUsed: result.OverlapUsed,
		Timestamp:   e.now(),
	}
}

// loadHistory возвращает историю пользователя; при сбое источника — пустую историю
func (e *Engine) loadHistory(ctx context.Context, req Request) History {
	if e.deps.History == nil {
		return History{}
	}
	history, err := e.deps.History.RecentHistory(ctx, req.RequesterID, req.CategoryID, e.config.HistoryAttempts)
	if err != nil {
		historyFallbacks.Inc()
		e.logger.Warn().Err(err).
			Uint("requester_id", req.RequesterID).
			Uint("category_id", req.CategoryID).
			Msg("History unavailable, selecting as cold start")
		return History{}
	}
	if history == nil {
		return History{}
	}
	return history
}

// selectablePool повторно применяет фильтр active && public && category
// и убирает дубликаты ID, сохраняя порядок
func selectablePool(items []entity.Item, categoryID uint) []entity.Item {
	pool := make([]entity.Item, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if !item.IsSelectable(categoryID) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		pool = append(pool, item)
	}
	return pool
}

func selectWeightedRandom(s *sampler, pool []entity.Item, history History, req Request, wc weightContext) (sampleResult, error) {
	weights := weighPool(pool, history, wc, weightedRandomWeight)
	return s.sample(pool, weights, req.DesiredCount, history, OverlapBudget(req.DesiredCount, req.OverlapPercentage))
}

func selectUsageBased(s *sampler, pool []entity.Item, history History, req Request, wc weightContext) (sampleResult, error) {
	ranked, weights := usageRankedPool(pool, history, wc, s.rng)
	return s.sample(ranked, weights, req.DesiredCount, history, OverlapBudget(req.DesiredCount, req.OverlapPercentage))
}

func selectAdaptive(s *sampler, pool []entity.Item, history History, req Request, wc weightContext) (sampleResult, error) {
	weights := weighPool(pool, history, wc, adaptiveWeight)
	return s.sample(pool, weights, req.DesiredCount, history, OverlapBudget(req.DesiredCount, req.OverlapPercentage))
}
