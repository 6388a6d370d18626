package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_IsCorrect(t *testing.T) {
	// Arrange
	item := &Item{
		ID:            1,
		CategoryID:    7,
		Text:          "Какой порт по умолчанию у PostgreSQL?",
		Options:       StringArray{"3306", "5432", "6379", "27017"},
		CorrectOption: 1,
	}

	// Act & Assert
	assert.True(t, item.IsCorrect(1), "IsCorrect должен вернуть true для правильного ответа")
	assert.False(t, item.IsCorrect(0), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, item.IsCorrect(3), "IsCorrect должен вернуть false для неправильного ответа")
}

func TestItem_IsValidOption(t *testing.T) {
	item := &Item{Options: StringArray{"A", "B", "C"}}

	assert.True(t, item.IsValidOption(0))
	assert.True(t, item.IsValidOption(2))
	assert.False(t, item.IsValidOption(-1), "Отрицательный индекс должен быть невалидным")
	assert.False(t, item.IsValidOption(3), "Индекс вне диапазона должен быть невалидным")
}

func TestItem_IsSelectable(t *testing.T) {
	testCases := []struct {
		name     string
		item     Item
		category uint
		expected bool
	}{
		{"активный публичный", Item{CategoryID: 3, IsActive: true, IsPublic: true}, 3, true},
		{"неактивный", Item{CategoryID: 3, IsActive: false, IsPublic: true}, 3, false},
		{"непубличный", Item{CategoryID: 3, IsActive: true, IsPublic: false}, 3, false},
		{"другая категория", Item{CategoryID: 4, IsActive: true, IsPublic: true}, 3, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.item.IsSelectable(tc.category))
		})
	}
}

func TestItem_TableName(t *testing.T) {
	assert.Equal(t, "items", Item{}.TableName())
}

// Тесты для JSONB типов

func TestStringArray_Scan(t *testing.T) {
	var arr StringArray

	require.NoError(t, arr.Scan([]byte(`["Option 1", "Option 2"]`)))
	assert.Equal(t, StringArray{"Option 1", "Option 2"}, arr)

	require.NoError(t, arr.Scan(nil), "Scan не должен возвращать ошибку для nil")
	assert.Len(t, arr, 0)

	require.NoError(t, arr.Scan(`["из строки"]`), "sqlite отдаёт JSONB строкой")
	assert.Equal(t, StringArray{"из строки"}, arr)

	assert.Error(t, arr.Scan(42), "Scan должен возвращать ошибку для неподдерживаемого типа")
}

func TestStringArray_Value_Empty(t *testing.T) {
	var arr StringArray

	val, err := arr.Value()

	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), val, "nil должен сериализоваться в []")
}

func TestUintArray_ScanPreservesOrder(t *testing.T) {
	// Arrange: порядок вопросов в попытке важен
	var ids UintArray

	// Act
	err := ids.Scan([]byte(`[42, 7, 19, 3]`))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, UintArray{42, 7, 19, 3}, ids)
}

func TestUintArray_Value(t *testing.T) {
	val, err := UintArray{5, 1, 9}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[5,1,9]`, string(val.([]byte)))

	val, err = UintArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), val)
}

func TestParseDifficulty(t *testing.T) {
	d, ok := ParseDifficulty(" hard ")
	assert.True(t, ok)
	assert.Equal(t, DifficultyHard, d)

	_, ok = ParseDifficulty("legendary")
	assert.False(t, ok, "Неизвестный уровень должен быть отклонён")
}

func TestExamAttempt_ContainsItem(t *testing.T) {
	attempt := &ExamAttempt{ItemIDs: UintArray{10, 20, 30}, Status: AttemptStatusInProgress}

	assert.True(t, attempt.ContainsItem(20))
	assert.False(t, attempt.ContainsItem(40))
	assert.False(t, attempt.IsCompleted())
}
