package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/exam-api/internal/pkg/errors"
	"github.com/yourusername/exam-api/internal/service/selection"
)

// Selector: операции движка выборки, нужные сервису попыток
type Selector interface {
	Select(ctx context.Context, req selection.Request) (*selection.Result, error)
	Commit(ctx context.Context, req selection.Request, result *selection.Result)
	Audit(ctx context.Context, req selection.Request, result *selection.Result)
}

// AttemptDefaults: значения по умолчанию для запроса выборки
type AttemptDefaults struct {
	Algorithm         selection.Algorithm
	OverlapPercentage int
}

// StartAttemptInput: параметры старта попытки
type StartAttemptInput struct {
	RequesterID       uint
	BookingID         uint
	CategoryID        uint
	QuestionCount     int
	OverlapPercentage *int
	Algorithm         string
}

// PreviewInput: параметры предпросмотра выборки
type PreviewInput struct {
	RequesterID       uint
	CategoryID        uint
	QuestionCount     int
	OverlapPercentage *int
	Algorithm         string
	Record            bool
}

// AnswerInput: ответ на вопрос попытки
type AnswerInput struct {
	ItemID         uint
	SelectedOption int
}

// AttemptView: попытка вместе с вопросами в порядке выборки
type AttemptView struct {
	Attempt *entity.ExamAttempt
	Items   []entity.Item
}

// AttemptSummary: итог завершённой попытки
type AttemptSummary struct {
	Attempt  *entity.ExamAttempt
	Correct  int
	Answered int
	Total    int
}

// AttemptService запускает попытки, выдаёт их содержимое и принимает ответы
type AttemptService struct {
	attempts repository.AttemptRepository
	items    repository.ItemRepository
	selector Selector
	defaults AttemptDefaults
	logger   zerolog.Logger
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	attempts repository.AttemptRepository,
	items repository.ItemRepository,
	selector Selector,
	defaults AttemptDefaults,
) *AttemptService {
	if defaults.Algorithm == "" {
		defaults.Algorithm = selection.AlgorithmWeightedRandom
	}
	return &AttemptService{
		attempts: attempts,
		items:    items,
		selector: selector,
		defaults: defaults,
		logger:   log.With().Str("component", "attempt").Logger(),
	}
}

// StartAttempt выбирает вопросы и сохраняет новую попытку.
// Использование вопросов засчитывается только после успешного сохранения,
// поэтому повтор по тому же бронированию не искажает usage_count.
func (s *AttemptService) StartAttempt(ctx context.Context, input StartAttemptInput) (*entity.ExamAttempt, error) {
	if input.BookingID == 0 {
		return nil, fmt.Errorf("%w: booking id is required", apperrors.ErrValidation)
	}

	req, err := s.buildRequest(input.RequesterID, input.CategoryID, input.QuestionCount, input.OverlapPercentage, input.Algorithm)
	if err != nil {
		return nil, err
	}
	req.DryRun = true

	result, err := s.selector.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	attempt := &entity.ExamAttempt{
		PublicID:    uuid.NewString(),
		UserID:      input.RequesterID,
		BookingID:   input.BookingID,
		CategoryID:  input.CategoryID,
		Algorithm:   string(result.Algorithm),
		ItemIDs:     entity.UintArray(result.ItemIDs),
		OverlapUsed: result.OverlapUsed,
		Status:      entity.AttemptStatusInProgress,
		StartedAt:   time.Now(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.selector.Commit(ctx, req, result)

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Uint("booking_id", attempt.BookingID).
		Uint("user_id", attempt.UserID).
		Str("algorithm", attempt.Algorithm).
		Int("items", len(attempt.ItemIDs)).
		Int("overlap_used", attempt.OverlapUsed).
		Msg("Attempt started")

	return attempt, nil
}

// GetAttempt возвращает попытку владельца вместе с вопросами
func (s *AttemptService) GetAttempt(ctx context.Context, requesterID, attemptID uint) (*AttemptView, error) {
	attempt, err := s.ownedAttempt(ctx, requesterID, attemptID)
	if err != nil {
		return nil, err
	}

	items, err := s.orderedItems(ctx, attempt.ItemIDs)
	if err != nil {
		return nil, err
	}
	return &AttemptView{Attempt: attempt, Items: items}, nil
}

// SubmitAnswers проверяет ответы и завершает попытку.
// Вопросы без ответа считаются неверными при построении истории.
func (s *AttemptService) SubmitAnswers(ctx context.Context, requesterID, attemptID uint, inputs []AnswerInput) (*AttemptSummary, error) {
	attempt, err := s.ownedAttempt(ctx, requesterID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsCompleted() {
		return nil, fmt.Errorf("%w: attempt #%d", repository.ErrAttemptNotInProgress, attempt.ID)
	}

	items, err := s.items.GetByIDs(ctx, attempt.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt items: %w", err)
	}
	byID := make(map[uint]*entity.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	now := time.Now()
	answers := make([]entity.AttemptAnswer, 0, len(inputs))
	answered := make(map[uint]struct{}, len(inputs))
	correct := 0
	for _, in := range inputs {
		if !attempt.ContainsItem(in.ItemID) {
			return nil, fmt.Errorf("%w: item %d is not part of attempt #%d", ErrInvalidAnswer, in.ItemID, attempt.ID)
		}
		if _, dup := answered[in.ItemID]; dup {
			return nil, fmt.Errorf("%w: duplicate answer for item %d", ErrInvalidAnswer, in.ItemID)
		}
		item, ok := byID[in.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: item %d no longer exists", ErrInvalidAnswer, in.ItemID)
		}
		if !item.IsValidOption(in.SelectedOption) {
			return nil, fmt.Errorf("%w: option %d is out of range for item %d", ErrInvalidAnswer, in.SelectedOption, in.ItemID)
		}

		isCorrect := item.IsCorrect(in.SelectedOption)
		if isCorrect {
			correct++
		}
		answered[in.ItemID] = struct{}{}
		answers = append(answers, entity.AttemptAnswer{
			AttemptID:      attempt.ID,
			ItemID:         in.ItemID,
			SelectedOption: in.SelectedOption,
			IsCorrect:      isCorrect,
			AnsweredAt:     now,
		})
	}

	if err := s.attempts.Complete(ctx, attempt, answers); err != nil {
		return nil, fmt.Errorf("failed to complete attempt: %w", err)
	}

	s.logger.Info().
		Uint("attempt_id", attempt.ID).
		Int("correct", correct).
		Int("answered", len(answers)).
		Int("total", len(attempt.ItemIDs)).
		Msg("Attempt completed")

	return &AttemptSummary{
		Attempt:  attempt,
		Correct:  correct,
		Answered: len(answers),
		Total:    len(attempt.ItemIDs),
	}, nil
}

// PreviewSelection выполняет выборку без создания попытки.
// С Record=true результат попадает в журнал аудита, но usage_count не меняется.
func (s *AttemptService) PreviewSelection(ctx context.Context, input PreviewInput) (*selection.Result, error) {
	req, err := s.buildRequest(input.RequesterID, input.CategoryID, input.QuestionCount, input.OverlapPercentage, input.Algorithm)
	if err != nil {
		return nil, err
	}
	req.DryRun = true

	result, err := s.selector.Select(ctx, req)
	if err != nil {
		return nil, err
	}
	if input.Record {
		s.selector.Audit(ctx, req, result)
	}
	return result, nil
}

func (s *AttemptService) buildRequest(requesterID, categoryID uint, count int, overlap *int, algorithm string) (selection.Request, error) {
	algo := s.defaults.Algorithm
	if algorithm != "" {
		parsed, err := selection.ParseAlgorithm(algorithm)
		if err != nil {
			return selection.Request{}, err
		}
		algo = parsed
	}

	pct := s.defaults.OverlapPercentage
	if overlap != nil {
		pct = *overlap
	}

	return selection.Request{
		CategoryID:        categoryID,
		DesiredCount:      count,
		OverlapPercentage: pct,
		Algorithm:         algo,
		RequesterID:       requesterID,
	}, nil
}

func (s *AttemptService) ownedAttempt(ctx context.Context, requesterID, attemptID uint) (*entity.ExamAttempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("attempt #%d: %w", attemptID, err)
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt.UserID != requesterID {
		return nil, ErrNotOwner
	}
	return attempt, nil
}

// orderedItems загружает вопросы и раскладывает их в порядке попытки
func (s *AttemptService) orderedItems(ctx context.Context, ids []uint) ([]entity.Item, error) {
	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt items: %w", err)
	}
	byID := make(map[uint]entity.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]entity.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}
