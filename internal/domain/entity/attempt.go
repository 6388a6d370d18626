package entity

import "time"

// AttemptStatus: статус попытки сдачи экзамена
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
)

// ExamAttempt хранит попытку сдачи экзамена и упорядоченный список вопросов,
// выбранных движком при старте.
type ExamAttempt struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PublicID    string        `gorm:"size:36;not null;uniqueIndex" json:"public_id"`
	UserID      uint          `gorm:"not null;index:idx_attempts_user_category,priority:1" json:"user_id"`
	BookingID   uint          `gorm:"not null;uniqueIndex" json:"booking_id"`
	CategoryID  uint          `gorm:"not null;index:idx_attempts_user_category,priority:2" json:"category_id"`
	Algorithm   string        `gorm:"size:32;not null" json:"algorithm"`
	ItemIDs     UintArray     `gorm:"type:jsonb;not null" json:"item_ids"`
	OverlapUsed int           `gorm:"not null;default:0" json:"overlap_used"`
	Status      AttemptStatus `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	StartedAt   time.Time     `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	Answers []AttemptAnswer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// IsCompleted проверяет, завершена ли попытка
func (a *ExamAttempt) IsCompleted() bool {
	return a.Status == AttemptStatusCompleted
}

// ContainsItem проверяет, входит ли вопрос в набор попытки
func (a *ExamAttempt) ContainsItem(itemID uint) bool {
	for _, id := range a.ItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// AttemptAnswer представляет ответ пользователя на вопрос попытки
type AttemptAnswer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AttemptID      uint      `gorm:"not null;uniqueIndex:idx_attempt_item" json:"attempt_id"`
	ItemID         uint      `gorm:"not null;uniqueIndex:idx_attempt_item" json:"item_id"`
	SelectedOption int       `gorm:"not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	AnsweredAt     time.Time `gorm:"not null" json:"answered_at"`
}

// TableName определяет имя таблицы для GORM
func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
