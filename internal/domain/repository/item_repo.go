package repository

import (
	"context"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// CategoryStats: статистика каталога категории
type CategoryStats struct {
	Total        int64
	Selectable   int64
	TotalUsage   int64
	ByDifficulty map[entity.Difficulty]int64
}

// ItemRepository определяет методы для работы с каталогом вопросов
type ItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.Item) error
	GetByID(ctx context.Context, id uint) (*entity.Item, error)
	GetByIDs(ctx context.Context, ids []uint) ([]entity.Item, error)

	// ListActiveByCategory возвращает только активные и публичные вопросы категории
	ListActiveByCategory(ctx context.Context, categoryID uint) ([]entity.Item, error)

	// IncrementUsage атомарно увеличивает usage_count на 1 (UPDATE ... SET x = x + 1)
	IncrementUsage(ctx context.Context, ids []uint) (int64, error)

	// GetCategoryStats возвращает статистику по категории (выбираемые вопросы по сложности)
	GetCategoryStats(ctx context.Context, categoryID uint) (*CategoryStats, error)
}
