package selection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// Algorithm: стратегия взвешивания вопросов
type Algorithm string

const (
	AlgorithmWeightedRandom     Algorithm = "weighted_random"
	AlgorithmDifficultyBalanced Algorithm = "difficulty_balanced"
	AlgorithmUsageBased         Algorithm = "usage_based"
	AlgorithmAdaptive           Algorithm = "adaptive"
)

// Algorithms возвращает все поддерживаемые стратегии
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmWeightedRandom,
		AlgorithmDifficultyBalanced,
		AlgorithmUsageBased,
		AlgorithmAdaptive,
	}
}

// ParseAlgorithm принимает как "weighted_random", так и "WeightedRandom" / "weighted-random"
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(name))
	for _, a := range Algorithms() {
		if strings.ReplaceAll(string(a), "_", "") == normalized {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Request: запрос на выборку вопросов для попытки
type Request struct {
	CategoryID        uint
	DesiredCount      int
	OverlapPercentage int // 0..100
	Algorithm         Algorithm
	RequesterID       uint

	// DryRun отключает запись использования (предпросмотр выборки)
	DryRun bool
}

// Validate проверяет входные параметры запроса
func (r Request) Validate() error {
	if r.CategoryID == 0 {
		return fmt.Errorf("%w: category id is required", ErrInvalidRequest)
	}
	if r.RequesterID == 0 {
		return fmt.Errorf("%w: requester id is required", ErrInvalidRequest)
	}
	if r.DesiredCount <= 0 {
		return fmt.Errorf("%w: desired count must be positive, got %d", ErrInvalidRequest, r.DesiredCount)
	}
	if r.OverlapPercentage < 0 || r.OverlapPercentage > 100 {
		return fmt.Errorf("%w: overlap percentage must be within 0..100, got %d", ErrInvalidRequest, r.OverlapPercentage)
	}
	return nil
}

// Result: упорядоченный набор выбранных вопросов
type Result struct {
	ItemIDs     []uint
	OverlapUsed int
	Algorithm   Algorithm
}

// History: история пользователя по вопросам категории, ключ — ID вопроса.
// Отсутствие записи означает «холодный» вопрос.
type History map[uint]entity.HistoryEntry

// Seen проверяет, видел ли пользователь вопрос
func (h History) Seen(itemID uint) bool {
	_, ok := h[itemID]
	return ok
}

// AuditEvent: запись журнала о выполненной выборке
type AuditEvent struct {
	Algorithm   Algorithm
	RequesterID uint
	CategoryID  uint
	ItemIDs     []uint
	OverlapUsed int
	Timestamp   time.Time
}

// CatalogSource поставляет пул кандидатов категории (только active && public)
type CatalogSource interface {
	ListActiveItems(ctx context.Context, categoryID uint) ([]entity.Item, error)
}

// CatalogSourceFunc позволяет использовать функцию как CatalogSource
type CatalogSourceFunc func(ctx context.Context, categoryID uint) ([]entity.Item, error)

// ListActiveItems реализует CatalogSource
func (f CatalogSourceFunc) ListActiveItems(ctx context.Context, categoryID uint) ([]entity.Item, error) {
	return f(ctx, categoryID)
}

// HistorySource поставляет историю пользователя по категории
type HistorySource interface {
	RecentHistory(ctx context.Context, requesterID, categoryID uint, limit int) (History, error)
}

// UsageRecorder принимает побочные эффекты выборки. Вызывается асинхронно,
// ошибки только логируются.
type UsageRecorder interface {
	BumpUsage(ctx context.Context, itemIDs []uint) error
	RecordAudit(ctx context.Context, event AuditEvent) error
}
