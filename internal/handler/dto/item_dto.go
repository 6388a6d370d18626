package dto

import (
	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/service"
)

// ItemRequest: вопрос в пакете загрузки. Полная проверка выполняется в сервисе.
type ItemRequest struct {
	CategoryID    uint     `json:"category_id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Difficulty    string   `json:"difficulty,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
	IsPublic      *bool    `json:"is_public,omitempty"`
}

// BulkUploadRequest: пакет вопросов для загрузки
type BulkUploadRequest struct {
	Items []ItemRequest `json:"items" binding:"required,min=1,max=1000"`
}

// ToInputs преобразует запрос в параметры сервиса
func (r BulkUploadRequest) ToInputs() []service.ItemInput {
	inputs := make([]service.ItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		inputs = append(inputs, service.ItemInput{
			CategoryID:    it.CategoryID,
			Text:          it.Text,
			Options:       it.Options,
			CorrectOption: it.CorrectOption,
			Difficulty:    it.Difficulty,
			IsActive:      it.IsActive,
			IsPublic:      it.IsPublic,
		})
	}
	return inputs
}

// BulkUploadResponse: результат загрузки
type BulkUploadResponse struct {
	Created int    `json:"created"`
	IDs     []uint `json:"ids"`
}

// CategoryStatsResponse: статистика каталога категории
type CategoryStatsResponse struct {
	CategoryID     uint             `json:"category_id"`
	Total          int64            `json:"total"`
	Selectable     int64            `json:"selectable"`
	TotalUsage     int64            `json:"total_usage"`
	ByDifficulty   map[string]int64 `json:"by_difficulty"`
	SelectionCount int64            `json:"selection_count"`
}

// NewBulkUploadResponse создает DTO результата загрузки
func NewBulkUploadResponse(items []entity.Item) BulkUploadResponse {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return BulkUploadResponse{Created: len(items), IDs: ids}
}

// NewCategoryStatsResponse создает DTO статистики
func NewCategoryStatsResponse(view *service.CategoryStatsView) CategoryStatsResponse {
	resp := CategoryStatsResponse{
		CategoryID:     view.CategoryID,
		ByDifficulty:   make(map[string]int64, len(entity.AllDifficulties())),
		SelectionCount: view.SelectionCount,
	}
	if view.Stats != nil {
		resp.Total = view.Stats.Total
		resp.Selectable = view.Stats.Selectable
		resp.TotalUsage = view.Stats.TotalUsage
		for d, n := range view.Stats.ByDifficulty {
			resp.ByDifficulty[d.String()] = n
		}
	}
	return resp
}
