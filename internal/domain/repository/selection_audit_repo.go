package repository

import (
	"context"
	"time"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// SelectionAuditRepository определяет методы для журнала выборок
type SelectionAuditRepository interface {
	Create(ctx context.Context, audit *entity.SelectionAudit) error
	ListByCategory(ctx context.Context, categoryID uint, since time.Time, limit int) ([]entity.SelectionAudit, error)
}
