package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// SelectionAuditRepo реализует repository.SelectionAuditRepository
type SelectionAuditRepo struct {
	db *gorm.DB
}

// NewSelectionAuditRepo создает новый репозиторий журнала выборок
func NewSelectionAuditRepo(db *gorm.DB) *SelectionAuditRepo {
	return &SelectionAuditRepo{db: db}
}

// Create сохраняет запись журнала
func (r *SelectionAuditRepo) Create(ctx context.Context, audit *entity.SelectionAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

// ListByCategory возвращает записи категории начиная с since, от новых к старым
func (r *SelectionAuditRepo) ListByCategory(ctx context.Context, categoryID uint, since time.Time, limit int) ([]entity.SelectionAudit, error) {
	var audits []entity.SelectionAudit
	query := r.db.WithContext(ctx).Where("category_id = ?", categoryID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&audits).Error
	return audits, err
}
