package repository

import (
	"context"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с попытками сдачи экзамена
type AttemptRepository interface {
	Create(ctx context.Context, attempt *entity.ExamAttempt) error
	GetByID(ctx context.Context, id uint) (*entity.ExamAttempt, error)

	// Complete сохраняет ответы и переводит попытку в completed в одной транзакции
	Complete(ctx context.Context, attempt *entity.ExamAttempt, answers []entity.AttemptAnswer) error

	// ListRecentCompleted возвращает последние limit завершённых попыток пользователя
	// в категории вместе с ответами, от новых к старым
	ListRecentCompleted(ctx context.Context, userID, categoryID uint, limit int) ([]entity.ExamAttempt, error)
}
