package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/handler/dto"
	"github.com/yourusername/exam-api/internal/middleware"
	"github.com/yourusername/exam-api/internal/service"
)

// ItemService: административные операции над каталогом
type ItemService interface {
	BulkUpload(ctx context.Context, inputs []service.ItemInput) ([]entity.Item, error)
	GetCategoryStats(ctx context.Context, categoryID uint) (*service.CategoryStatsView, error)
	ListAudits(ctx context.Context, categoryID uint, since time.Time) ([]entity.SelectionAudit, error)
}

// ItemHandler обрабатывает административные запросы каталога
type ItemHandler struct {
	items  ItemService
	logger zerolog.Logger
}

// NewItemHandler создает новый обработчик каталога
func NewItemHandler(items ItemService) *ItemHandler {
	return &ItemHandler{
		items:  items,
		logger: log.With().Str("component", "item_handler").Logger(),
	}
}

// BulkUpload загружает пакет вопросов
func (h *ItemHandler) BulkUpload(c *gin.Context) {
	var req dto.BulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.items.BulkUpload(c.Request.Context(), req.ToInputs())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewBulkUploadResponse(items))
}

// GetCategoryStats возвращает статистику каталога категории
func (h *ItemHandler) GetCategoryStats(c *gin.Context) {
	categoryID := c.MustGet(categoryIDKey).(uint)

	view, err := h.items.GetCategoryStats(c.Request.Context(), categoryID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCategoryStatsResponse(view))
}

// ExportAudits выгружает журнал выборок категории в CSV или XLSX.
// since: RFC3339 или YYYY-MM-DD, по умолчанию последние 30 дней.
func (h *ItemHandler) ExportAudits(c *gin.Context) {
	categoryID := c.MustGet(categoryIDKey).(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	since, err := parseSince(c.Query("since"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	audits, err := h.items.ListAudits(c.Request.Context(), categoryID, since)
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("category_%d_selections_%s", categoryID, time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		h.exportXLSX(c, audits, filename)
	default:
		h.exportCSV(c, audits, filename)
	}
}

var auditHeaders = []string{"ID", "Дата", "Алгоритм", "Пользователь", "Вопросы", "Повторы"}

func auditRow(a *entity.SelectionAudit) []string {
	ids := make([]string, 0, len(a.ItemIDs))
	for _, id := range a.ItemIDs {
		ids = append(ids, strconv.FormatUint(uint64(id), 10))
	}
	return []string{
		a.ID,
		a.CreatedAt.UTC().Format(time.RFC3339),
		sanitizeForExcel(a.Algorithm),
		strconv.FormatUint(uint64(a.RequesterID), 10),
		strings.Join(ids, " "),
		strconv.Itoa(a.OverlapUsed),
	}
}

// exportCSV выгружает журнал в CSV с BOM для Excel
func (h *ItemHandler) exportCSV(c *gin.Context, audits []entity.SelectionAudit, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(auditHeaders)
	for i := range audits {
		if err := writer.Write(auditRow(&audits[i])); err != nil {
			h.logger.Error().Err(err).Msg("Failed to write CSV row")
			return
		}
	}
}

// exportXLSX выгружает журнал в Excel через StreamWriter
func (h *ItemHandler) exportXLSX(c *gin.Context, audits []entity.SelectionAudit, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Выборки"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create StreamWriter")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(auditHeaders))
	for i, hdr := range auditHeaders {
		headers[i] = hdr
	}
	if err := sw.SetRow("A1", headers); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write headers")
	}

	for i := range audits {
		a := &audits[i]
		row := auditRow(a)
		cells := []interface{}{row[0], row[1], row[2], a.RequesterID, row[4], a.OverlapUsed}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), cells); err != nil {
			h.logger.Error().Err(err).Int("row", i+2).Msg("Failed to write row")
		}
	}

	if err := sw.Flush(); err != nil {
		h.logger.Error().Err(err).Msg("Failed to flush StreamWriter")
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write Excel response")
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func parseSince(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.AddDate(0, 0, -30), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since %q: expected RFC3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}

// RegisterAdminRoutes регистрирует административные маршруты. Группа уже защищена токеном.
func RegisterAdminRoutes(admin *gin.RouterGroup, h *ItemHandler) {
	admin.POST("/items", h.BulkUpload)
	categories := admin.Group("/categories/:id", middleware.ExtractUintParam("id", categoryIDKey))
	{
		categories.GET("/stats", h.GetCategoryStats)
		categories.GET("/audits/export", h.ExportAudits)
	}
}
