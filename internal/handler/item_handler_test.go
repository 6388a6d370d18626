package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	"github.com/yourusername/exam-api/internal/middleware"
	"github.com/yourusername/exam-api/internal/service"
)

type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) BulkUpload(ctx context.Context, inputs []service.ItemInput) ([]entity.Item, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Item), args.Error(1)
}

func (m *MockItemService) GetCategoryStats(ctx context.Context, categoryID uint) (*service.CategoryStatsView, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CategoryStatsView), args.Error(1)
}

func (m *MockItemService) ListAudits(ctx context.Context, categoryID uint, since time.Time) ([]entity.SelectionAudit, error) {
	args := m.Called(ctx, categoryID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SelectionAudit), args.Error(1)
}

const testAdminToken = "secret-token"

func newAdminRouter(svc ItemService) *gin.Engine {
	r := gin.New()
	admin := r.Group("/api/admin", middleware.RequireAdminToken(testAdminToken))
	RegisterAdminRoutes(admin, NewItemHandler(svc))
	return r
}

func adminRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	return performRequest(r, method, path, body, map[string]string{middleware.AdminTokenHeader: token})
}

func sampleAudits() []entity.SelectionAudit {
	return []entity.SelectionAudit{
		{
			ID:          "11111111-1111-1111-1111-111111111111",
			Algorithm:   "adaptive",
			RequesterID: 5,
			CategoryID:  3,
			ItemIDs:     entity.UintArray{4, 9},
			OverlapUsed: 1,
			CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "22222222-2222-2222-2222-222222222222",
			Algorithm:   "=HYPERLINK()",
			RequesterID: 6,
			CategoryID:  3,
			ItemIDs:     entity.UintArray{1},
			CreatedAt:   time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

// ============================================================================
// BulkUpload / GetCategoryStats
// ============================================================================

func TestBulkUpload_Created(t *testing.T) {
	svc := new(MockItemService)
	svc.On("BulkUpload", mock.Anything, mock.MatchedBy(func(in []service.ItemInput) bool {
		return len(in) == 1 && in[0].CategoryID == 3 && in[0].CorrectOption == 1 && len(in[0].Options) == 2
	})).Return([]entity.Item{{ID: 41}}, nil)

	w := adminRequest(newAdminRouter(svc), http.MethodPost, "/api/admin/items", map[string]interface{}{
		"items": []map[string]interface{}{
			{"category_id": 3, "text": "Q", "options": []string{"a", "b"}, "correct_option": 1},
		},
	}, testAdminToken)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := parseJSON(t, w)
	assert.Equal(t, float64(1), resp["created"])
}

func TestBulkUpload_ServiceValidationIs400(t *testing.T) {
	svc := new(MockItemService)
	svc.On("BulkUpload", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidItem)

	w := adminRequest(newAdminRouter(svc), http.MethodPost, "/api/admin/items", map[string]interface{}{
		"items": []map[string]interface{}{{"category_id": 3}},
	}, testAdminToken)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	svc := new(MockItemService)

	w := adminRequest(newAdminRouter(svc), http.MethodGet, "/api/admin/categories/3/stats", nil, "wrong")

	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertNotCalled(t, "GetCategoryStats", mock.Anything, mock.Anything)
}

func TestGetCategoryStats_OK(t *testing.T) {
	svc := new(MockItemService)
	svc.On("GetCategoryStats", mock.Anything, uint(3)).Return(&service.CategoryStatsView{
		CategoryID: 3,
		Stats: &repository.CategoryStats{
			Total:        5,
			Selectable:   4,
			TotalUsage:   12,
			ByDifficulty: map[entity.Difficulty]int64{entity.DifficultyEasy: 3, entity.DifficultyHard: 1},
		},
		SelectionCount: 7,
	}, nil)

	w := adminRequest(newAdminRouter(svc), http.MethodGet, "/api/admin/categories/3/stats", nil, testAdminToken)

	require.Equal(t, http.StatusOK, w.Code)
	resp := parseJSON(t, w)
	assert.Equal(t, float64(4), resp["selectable"])
	assert.Equal(t, float64(7), resp["selection_count"])
	assert.Equal(t, float64(3), resp["by_difficulty"].(map[string]interface{})["EASY"])
}

// ============================================================================
// ExportAudits
// ============================================================================

func TestExportAudits_CSV(t *testing.T) {
	svc := new(MockItemService)
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.On("ListAudits", mock.Anything, uint(3), since).Return(sampleAudits(), nil)

	w := adminRequest(newAdminRouter(svc), http.MethodGet, "/api/admin/categories/3/audits/export?since=2025-03-01", nil, testAdminToken)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	body := strings.TrimPrefix(w.Body.String(), "\ufeff")
	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, auditHeaders, rows[0])
	assert.Equal(t, "4 9", rows[1][4])
	assert.Equal(t, "'=HYPERLINK()", rows[2][2])
}

func TestExportAudits_XLSX(t *testing.T) {
	svc := new(MockItemService)
	svc.On("ListAudits", mock.Anything, uint(3), mock.Anything).Return(sampleAudits(), nil)

	w := adminRequest(newAdminRouter(svc), http.MethodGet, "/api/admin/categories/3/audits/export?format=xlsx", nil, testAdminToken)

	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Выборки")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "adaptive", rows[1][2])
}

func TestExportAudits_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown format", "?format=pdf"},
		{"bad since", "?since=yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockItemService)

			w := adminRequest(newAdminRouter(svc), http.MethodGet, "/api/admin/categories/3/audits/export"+tt.query, nil, testAdminToken)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "ListAudits", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestParseSince_DefaultWindow(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

	got, err := parseSince("", now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), got)
}

func TestSanitizeForExcel(t *testing.T) {
	assert.Equal(t, "'=1+1", sanitizeForExcel("=1+1"))
	assert.Equal(t, "'@cmd", sanitizeForExcel("@cmd"))
	assert.Equal(t, "plain", sanitizeForExcel("plain"))
	assert.Equal(t, "", sanitizeForExcel(""))
}
