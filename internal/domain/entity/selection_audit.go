package entity

import "time"

// SelectionAudit: журнал выборок вопросов. Это аудит, а не источник истории:
// история пользователя строится только по завершённым попыткам.
type SelectionAudit struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Algorithm   string    `gorm:"size:32;not null" json:"algorithm"`
	RequesterID uint      `gorm:"not null;index" json:"requester_id"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	ItemIDs     UintArray `gorm:"type:jsonb;not null" json:"item_ids"`
	OverlapUsed int       `gorm:"not null;default:0" json:"overlap_used"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName задает имя таблицы для GORM.
func (SelectionAudit) TableName() string {
	return "selection_audits"
}

// HistoryEntry: агрегированная история показа вопроса конкретному пользователю.
// Строится на каждый вызов и не сохраняется.
type HistoryEntry struct {
	ItemID           uint
	TimesUsed        int
	LastUsedAt       time.Time
	PerformanceScore float64
}
