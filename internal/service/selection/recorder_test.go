package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

func TestStoreUsageRecorder_BumpUsage(t *testing.T) {
	items := new(MockItemRepo)
	items.On("IncrementUsage", mock.Anything, []uint{3, 1, 2}).Return(int64(3), nil)
	recorder := NewStoreUsageRecorder(items, new(MockAuditRepo), nil)

	err := recorder.BumpUsage(context.Background(), []uint{3, 1, 2})

	require.NoError(t, err)
	items.AssertExpectations(t)
}

func TestStoreUsageRecorder_BumpUsageEmpty(t *testing.T) {
	items := new(MockItemRepo)
	recorder := NewStoreUsageRecorder(items, new(MockAuditRepo), nil)

	assert.NoError(t, recorder.BumpUsage(context.Background(), nil))
	items.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestStoreUsageRecorder_BumpUsageError(t *testing.T) {
	items := new(MockItemRepo)
	items.On("IncrementUsage", mock.Anything, mock.Anything).Return(int64(0), errors.New("deadlock"))
	recorder := NewStoreUsageRecorder(items, new(MockAuditRepo), nil)

	err := recorder.BumpUsage(context.Background(), []uint{1})

	assert.True(t, errors.Is(err, ErrRecorderFailure))
}

func TestStoreUsageRecorder_RecordAudit(t *testing.T) {
	audits := new(MockAuditRepo)
	cache := new(MockCacheRepo)
	event := AuditEvent{
		Algorithm:   AlgorithmUsageBased,
		RequesterID: 8,
		CategoryID:  4,
		ItemIDs:     []uint{10, 11},
		OverlapUsed: 1,
		Timestamp:   testNow,
	}
	audits.On("Create", mock.Anything, mock.MatchedBy(func(a *entity.SelectionAudit) bool {
		_, err := uuid.Parse(a.ID)
		return err == nil &&
			a.Algorithm == "usage_based" &&
			a.RequesterID == 8 &&
			a.CategoryID == 4 &&
			len(a.ItemIDs) == 2 &&
			a.OverlapUsed == 1 &&
			a.CreatedAt.Equal(testNow)
	})).Return(nil)
	cache.On("Increment", mock.Anything, "selection:category:4:count").Return(int64(12), nil)
	recorder := NewStoreUsageRecorder(new(MockItemRepo), audits, cache)

	err := recorder.RecordAudit(context.Background(), event)

	require.NoError(t, err)
	audits.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestStoreUsageRecorder_RecordAuditStoreError(t *testing.T) {
	audits := new(MockAuditRepo)
	cache := new(MockCacheRepo)
	audits.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	recorder := NewStoreUsageRecorder(new(MockItemRepo), audits, cache)

	err := recorder.RecordAudit(context.Background(), AuditEvent{CategoryID: 1})

	assert.True(t, errors.Is(err, ErrRecorderFailure))
	cache.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything)
}
