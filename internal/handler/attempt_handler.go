package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/handler/dto"
	"github.com/yourusername/exam-api/internal/middleware"
	"github.com/yourusername/exam-api/internal/service"
	"github.com/yourusername/exam-api/internal/service/selection"
)

const (
	attemptIDKey  = "attemptID"
	categoryIDKey = "categoryID"
)

// AttemptService: операции над попытками, используемые обработчиком
type AttemptService interface {
	StartAttempt(ctx context.Context, input service.StartAttemptInput) (*entity.ExamAttempt, error)
	GetAttempt(ctx context.Context, requesterID, attemptID uint) (*service.AttemptView, error)
	SubmitAnswers(ctx context.Context, requesterID, attemptID uint, inputs []service.AnswerInput) (*service.AttemptSummary, error)
	PreviewSelection(ctx context.Context, input service.PreviewInput) (*selection.Result, error)
}

// AttemptHandler обрабатывает запросы попыток и предпросмотра выборки
type AttemptHandler struct {
	attempts AttemptService
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attempts AttemptService) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

// StartAttempt выбирает вопросы и создает попытку по бронированию
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req dto.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	attempt, err := h.attempts.StartAttempt(c.Request.Context(), service.StartAttemptInput{
		RequesterID:       c.GetUint(middleware.RequesterIDKey),
		BookingID:         req.BookingID,
		CategoryID:        req.CategoryID,
		QuestionCount:     req.QuestionCount,
		OverlapPercentage: req.OverlapPercentage,
		Algorithm:         req.Algorithm,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAttemptResponse(attempt, nil))
}

// GetAttempt возвращает попытку вместе с вопросами
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet(attemptIDKey).(uint)

	view, err := h.attempts.GetAttempt(c.Request.Context(), c.GetUint(middleware.RequesterIDKey), attemptID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(view.Attempt, view.Items))
}

// SubmitAnswers принимает ответы и завершает попытку
func (h *AttemptHandler) SubmitAnswers(c *gin.Context) {
	attemptID := c.MustGet(attemptIDKey).(uint)

	var req dto.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	summary, err := h.attempts.SubmitAnswers(c.Request.Context(), c.GetUint(middleware.RequesterIDKey), attemptID, req.ToInputs())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptSummaryResponse(summary))
}

// PreviewSelection выполняет выборку без создания попытки
func (h *AttemptHandler) PreviewSelection(c *gin.Context) {
	categoryID := c.MustGet(categoryIDKey).(uint)

	var req dto.SelectionPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.attempts.PreviewSelection(c.Request.Context(), service.PreviewInput{
		RequesterID:       c.GetUint(middleware.RequesterIDKey),
		CategoryID:        categoryID,
		QuestionCount:     req.QuestionCount,
		OverlapPercentage: req.OverlapPercentage,
		Algorithm:         req.Algorithm,
		Record:            req.Record,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSelectionResponse(result))
}

// RegisterAttemptRoutes регистрирует маршруты попыток. Группа уже требует X-User-ID.
func RegisterAttemptRoutes(api *gin.RouterGroup, h *AttemptHandler, startLimit gin.HandlerFunc) {
	attempts := api.Group("/attempts")
	{
		attempts.POST("", startLimit, h.StartAttempt)
		attempts.GET("/:id", middleware.ExtractUintParam("id", attemptIDKey), h.GetAttempt)
		attempts.POST("/:id/answers", middleware.ExtractUintParam("id", attemptIDKey), h.SubmitAnswers)
	}
	api.POST("/categories/:id/selection", middleware.ExtractUintParam("id", categoryIDKey), h.PreviewSelection)
}
