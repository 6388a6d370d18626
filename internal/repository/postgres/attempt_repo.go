package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create сохраняет новую попытку. Повторная попытка по тому же бронированию
// отклоняется уникальным индексом booking_id.
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking #%d", repository.ErrDuplicateAttempt, attempt.BookingID)
		}
		return err
	}
	return nil
}

// GetByID возвращает попытку вместе с ответами
func (r *AttemptRepo) GetByID(ctx context.Context, id uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

const correctAnswerRateExpr = `COALESCE((
	SELECT AVG(CASE WHEN a.is_correct THEN 1.0 ELSE 0.0 END)
	FROM attempt_answers a
	WHERE a.item_id = items.id
), 0)`

// Complete сохраняет ответы, завершает попытку и обновляет correct_answer_rate отвеченных вопросов.
// Условие status = in_progress в UPDATE защищает от двойной отправки ответов.
func (r *AttemptRepo) Complete(ctx context.Context, attempt *entity.ExamAttempt, answers []entity.AttemptAnswer) error {
	completedAt := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.ExamAttempt{}).
			Where("id = ? AND status = ?", attempt.ID, entity.AttemptStatusInProgress).
			Updates(map[string]interface{}{
				"status":       entity.AttemptStatusCompleted,
				"completed_at": completedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt #%d", repository.ErrAttemptNotInProgress, attempt.ID)
		}

		if len(answers) == 0 {
			return nil
		}
		itemIDs := make([]uint, 0, len(answers))
		for i := range answers {
			answers[i].AttemptID = attempt.ID
			itemIDs = append(itemIDs, answers[i].ItemID)
		}
		if err := tx.Create(&answers).Error; err != nil {
			return err
		}

		// Доля верных ответов пересчитывается по всем ответам на вопрос
		return tx.Model(&entity.Item{}).
			Where("id IN ?", itemIDs).
			Update("correct_answer_rate", gorm.Expr(correctAnswerRateExpr)).Error
	})
	if err != nil {
		return err
	}

	attempt.Status = entity.AttemptStatusCompleted
	attempt.CompletedAt = &completedAt
	attempt.Answers = answers
	return nil
}

// ListRecentCompleted возвращает последние завершённые попытки пользователя в категории
func (r *AttemptRepo) ListRecentCompleted(ctx context.Context, userID, categoryID uint, limit int) ([]entity.ExamAttempt, error) {
	var attempts []entity.ExamAttempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("user_id = ? AND category_id = ? AND status = ?", userID, categoryID, entity.AttemptStatusCompleted).
		Order("completed_at DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// isUniqueViolation проверяет нарушение уникальности для pgx, lib/pq и переведённых GORM ошибок
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
