package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/exam-api/internal/domain/entity"
	"github.com/yourusername/exam-api/internal/domain/repository"
	"github.com/yourusername/exam-api/internal/service/selection"
)

// ============================================================================
// Моки репозиториев и движка выборки
// ============================================================================

type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(ctx context.Context, attempt *entity.ExamAttempt) error {
	args := m.Called(ctx, attempt)
	if args.Error(0) == nil {
		attempt.ID = 77
	}
	return args.Error(0)
}

func (m *MockAttemptRepo) GetByID(ctx context.Context, id uint) (*entity.ExamAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepo) Complete(ctx context.Context, attempt *entity.ExamAttempt, answers []entity.AttemptAnswer) error {
	args := m.Called(ctx, attempt, answers)
	return args.Error(0)
}

func (m *MockAttemptRepo) ListRecentCompleted(ctx context.Context, userID, categoryID uint, limit int) ([]entity.ExamAttempt, error) {
	args := m.Called(ctx, userID, categoryID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamAttempt), args.Error(1)
}

type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) CreateBatch(ctx context.Context, items []entity.Item) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockItemRepo) GetByID(ctx context.Context, id uint) (*entity.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Item), args.Error(1)
}

func (m *MockItemRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Item), args.Error(1)
}

func (m *MockItemRepo) ListActiveByCategory(ctx context.Context, categoryID uint) ([]entity.Item, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Item), args.Error(1)
}

func (m *MockItemRepo) IncrementUsage(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepo) GetCategoryStats(ctx context.Context, categoryID uint) (*repository.CategoryStats, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CategoryStats), args.Error(1)
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, audit *entity.SelectionAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockAuditRepo) ListByCategory(ctx context.Context, categoryID uint, since time.Time, limit int) ([]entity.SelectionAudit, error) {
	args := m.Called(ctx, categoryID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SelectionAudit), args.Error(1)
}

type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepo) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) Expire(ctx context.Context, key string, expiration time.Duration) error {
	args := m.Called(ctx, key, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) TTL(ctx context.Context, key string) (time.Duration, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

type MockSelector struct {
	mock.Mock
}

func (m *MockSelector) Select(ctx context.Context, req selection.Request) (*selection.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*selection.Result), args.Error(1)
}

func (m *MockSelector) Commit(ctx context.Context, req selection.Request, result *selection.Result) {
	m.Called(ctx, req, result)
}

func (m *MockSelector) Audit(ctx context.Context, req selection.Request, result *selection.Result) {
	m.Called(ctx, req, result)
}

type MockCatalogInvalidator struct {
	mock.Mock
}

func (m *MockCatalogInvalidator) Invalidate(ctx context.Context, categoryIDs ...uint) error {
	args := m.Called(ctx, categoryIDs)
	return args.Error(0)
}
