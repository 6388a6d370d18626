package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
)

// createBatchSize: размер пачки при массовой загрузке вопросов
const createBatchSize = 200

// ItemRepo реализует repository.ItemRepository
type ItemRepo struct {
	db *gorm.DB
}

// NewItemRepo создает новый репозиторий вопросов
func NewItemRepo(db *gorm.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// CreateBatch создает пакет вопросов в одной транзакции
func (r *ItemRepo) CreateBatch(ctx context.Context, items []entity.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&items, createBatchSize).Error
	})
}

// GetByID возвращает вопрос по ID
func (r *ItemRepo) GetByID(ctx context.Context, id uint) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDs возвращает вопросы по списку ID (порядок не гарантируется)
func (r *ItemRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Item, error) {
	if len(ids) == 0 {
		return []entity.Item{}, nil
	}
	var items []entity.Item
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// ListActiveByCategory возвращает активные публичные вопросы категории
func (r *ItemRepo) ListActiveByCategory(ctx context.Context, categoryID uint) ([]entity.Item, error) {
	var items []entity.Item
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_active = ? AND is_public = ?", categoryID, true, true).
		Order("id").
		Find(&items).Error
	return items, err
}

// IncrementUsage атомарно увеличивает usage_count выбранных вопросов.
// UpdateColumn не трогает updated_at: счётчик не является правкой вопроса.
func (r *ItemRepo) IncrementUsage(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&entity.Item{}).
		Where("id IN ?", ids).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	return result.RowsAffected, result.Error
}

// GetCategoryStats возвращает статистику каталога категории
func (r *ItemRepo) GetCategoryStats(ctx context.Context, categoryID uint) (*repository.CategoryStats, error) {
	db := r.db.WithContext(ctx)
	stats := &repository.CategoryStats{ByDifficulty: make(map[entity.Difficulty]int64)}

	// Всего вопросов категории
	if err := db.Model(&entity.Item{}).Where("category_id = ?", categoryID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// Доступных для выборки
	selectable := db.Model(&entity.Item{}).
		Where("category_id = ? AND is_active = ? AND is_public = ?", categoryID, true, true)
	if err := selectable.Count(&stats.Selectable).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&entity.Item{}).
		Where("category_id = ?", categoryID).
		Select("COALESCE(SUM(usage_count), 0)").
		Scan(&stats.TotalUsage).Error; err != nil {
		return nil, err
	}

	// По сложности (только доступные)
	var rows []struct {
		Difficulty entity.Difficulty
		Count      int64
	}
	if err := db.Model(&entity.Item{}).
		Select("difficulty, COUNT(*) AS count").
		Where("category_id = ? AND is_active = ? AND is_public = ?", categoryID, true, true).
		Group("difficulty").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, d := range entity.AllDifficulties() {
		stats.ByDifficulty[d] = 0
	}
	for _, row := range rows {
		stats.ByDifficulty[row.Difficulty] = row.Count
	}

	return stats, nil
}
