package dto

import (
	"time"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/service"
	"github.com/yourusername/exam-api/internal/service/selection"
)

// StartAttemptRequest: запрос на старт попытки по бронированию
type StartAttemptRequest struct {
	BookingID         uint   `json:"booking_id" binding:"required"`
	CategoryID        uint   `json:"category_id" binding:"required"`
	QuestionCount     int    `json:"question_count" binding:"required,min=1,max=500"`
	OverlapPercentage *int   `json:"overlap_percentage" binding:"omitempty,min=0,max=100"`
	Algorithm         string `json:"algorithm" binding:"omitempty,max=32"`
}

// SelectionPreviewRequest: запрос на предпросмотр выборки
type SelectionPreviewRequest struct {
	QuestionCount     int    `json:"question_count" binding:"required,min=1,max=500"`
	OverlapPercentage *int   `json:"overlap_percentage" binding:"omitempty,min=0,max=100"`
	Algorithm         string `json:"algorithm" binding:"omitempty,max=32"`
	Record            bool   `json:"record"`
}

// AnswerRequest: ответ на один вопрос.
// SelectedOption указателем: 0 — допустимый вариант, отсутствие поля — нет.
type AnswerRequest struct {
	ItemID         uint `json:"item_id" binding:"required"`
	SelectedOption *int `json:"selected_option" binding:"required"`
}

// SubmitAnswersRequest: ответы на вопросы попытки
type SubmitAnswersRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// ToInputs преобразует запрос в параметры сервиса
func (r SubmitAnswersRequest) ToInputs() []service.AnswerInput {
	inputs := make([]service.AnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		inputs = append(inputs, service.AnswerInput{ItemID: a.ItemID, SelectedOption: *a.SelectedOption})
	}
	return inputs
}

// ItemResponse: вопрос для экзаменуемого, без правильного ответа
type ItemResponse struct {
	ID         uint     `json:"id"`
	CategoryID uint     `json:"category_id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

// AttemptResponse представляет попытку в ответе клиенту
type AttemptResponse struct {
	ID          uint           `json:"id"`
	PublicID    string         `json:"public_id"`
	BookingID   uint           `json:"booking_id"`
	CategoryID  uint           `json:"category_id"`
	Algorithm   string         `json:"algorithm"`
	ItemIDs     []uint         `json:"item_ids"`
	OverlapUsed int            `json:"overlap_used"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Items       []ItemResponse `json:"items,omitempty"`
}

// AttemptSummaryResponse: итог завершённой попытки
type AttemptSummaryResponse struct {
	Attempt  AttemptResponse `json:"attempt"`
	Correct  int             `json:"correct"`
	Answered int             `json:"answered"`
	Total    int             `json:"total"`
}

// SelectionResponse: результат предпросмотра выборки
type SelectionResponse struct {
	ItemIDs     []uint `json:"item_ids"`
	OverlapUsed int    `json:"overlap_used"`
	Algorithm   string `json:"algorithm"`
}

// NewItemResponse создает DTO вопроса
func NewItemResponse(item *entity.Item) ItemResponse {
	options := []string(item.Options)
	if options == nil {
		options = []string{}
	}
	return ItemResponse{
		ID:         item.ID,
		CategoryID: item.CategoryID,
		Text:       item.Text,
		Options:    options,
		Difficulty: item.Difficulty.String(),
	}
}

// NewAttemptResponse создает DTO попытки. items может быть nil.
func NewAttemptResponse(attempt *entity.ExamAttempt, items []entity.Item) AttemptResponse {
	ids := []uint(attempt.ItemIDs)
	if ids == nil {
		ids = []uint{}
	}
	resp := AttemptResponse{
		ID:          attempt.ID,
		PublicID:    attempt.PublicID,
		BookingID:   attempt.BookingID,
		CategoryID:  attempt.CategoryID,
		Algorithm:   attempt.Algorithm,
		ItemIDs:     ids,
		OverlapUsed: attempt.OverlapUsed,
		Status:      string(attempt.Status),
		StartedAt:   attempt.StartedAt,
		CompletedAt: attempt.CompletedAt,
	}
	if len(items) > 0 {
		resp.Items = make([]ItemResponse, 0, len(items))
		for i := range items {
			resp.Items = append(resp.Items, NewItemResponse(&items[i]))
		}
	}
	return resp
}

// NewAttemptSummaryResponse создает DTO итога попытки
func NewAttemptSummaryResponse(summary *service.AttemptSummary) AttemptSummaryResponse {
	return AttemptSummaryResponse{
		Attempt:  NewAttemptResponse(summary.Attempt, nil),
		Correct:  summary.Correct,
		Answered: summary.Answered,
		Total:    summary.Total,
	}
}

// NewSelectionResponse создает DTO результата выборки
func NewSelectionResponse(result *selection.Result) SelectionResponse {
	ids := result.ItemIDs
	if ids == nil {
		ids = []uint{}
	}
	return SelectionResponse{
		ItemIDs:     ids,
		OverlapUsed: result.OverlapUsed,
		Algorithm:   string(result.Algorithm),
	}
}
