package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
)

// AttemptHistorySource строит историю пользователя из его завершённых попыток
type AttemptHistorySource struct {
	attempts repository.AttemptRepository
}

// NewAttemptHistorySource создаёт источник истории поверх репозитория попыток
func NewAttemptHistorySource(attempts repository.AttemptRepository) *AttemptHistorySource {
	return &AttemptHistorySource{attempts: attempts}
}

// RecentHistory реализует HistorySource
func (s *AttemptHistorySource) RecentHistory(ctx context.Context, requesterID, categoryID uint, limit int) (History, error) {
	attempts, err := s.attempts.ListRecentCompleted(ctx, requesterID, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return AggregateHistory(attempts), nil
}

// AggregateHistory сворачивает попытки в историю по вопросам.
// Попытки обрабатываются в хронологическом порядке; каждый показ вопроса
// увеличивает TimesUsed, сдвигает LastUsedAt и смешивает PerformanceScore:
// первый показ задаёт score = correctness, далее score = (score + correctness) / 2.
// Показанный, но не отвеченный вопрос считается неверным.
func AggregateHistory(attempts []entity.ExamAttempt) History {
	ordered := make([]*entity.ExamAttempt, 0, len(attempts))
	for i := range attempts {
		if attempts[i].IsCompleted() {
			ordered = append(ordered, &attempts[i])
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return attemptTime(ordered[i]).Before(attemptTime(ordered[j]))
	})

	history := make(History)
	for _, attempt := range ordered {
		answers := make(map[uint]*entity.AttemptAnswer, len(attempt.Answers))
		for i := range attempt.Answers {
			answers[attempt.Answers[i].ItemID] = &attempt.Answers[i]
		}

		for _, itemID := range attempt.ItemIDs {
			correctness := 0.0
			touchedAt := attemptTime(attempt)
			if answer, ok := answers[itemID]; ok {
				if answer.IsCorrect {
					correctness = 1.0
				}
				if !answer.AnsweredAt.IsZero() {
					touchedAt = answer.AnsweredAt
				}
			}

			entry, ok := history[itemID]
			if !ok {
				history[itemID] = entity.HistoryEntry{
					ItemID:           itemID,
					TimesUsed:        1,
					LastUsedAt:       touchedAt,
					PerformanceScore: correctness,
				}
				continue
			}

			entry.TimesUsed++
			if touchedAt.After(entry.LastUsedAt) {
				entry.LastUsedAt = touchedAt
			}
			entry.PerformanceScore = (entry.PerformanceScore + correctness) / 2
			history[itemID] = entry
		}
	}
	return history
}

// attemptTime: время завершения попытки, для незавершённой — время начала
func attemptTime(a *entity.ExamAttempt) time.Time {
	if a.CompletedAt != nil && !a.CompletedAt.IsZero() {
		return *a.CompletedAt
	}
	return a.StartedAt
}
