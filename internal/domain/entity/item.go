package entity

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// UintArray хранит упорядоченный список ID в JSONB (порядок вопросов в попытке)
type UintArray []uint

// Scan реализует интерфейс sql.Scanner для UintArray
func (a *UintArray) Scan(value interface{}) error {
	if value == nil {
		*a = UintArray{}
		return nil
	}

	bytes, err := jsonbBytes(value)
	if err != nil {
		return err
	}
	if len(bytes) == 0 {
		*a = UintArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для UintArray
func (a UintArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// jsonbBytes приводит значение из драйвера к []byte.
// pgx отдаёт JSONB как []byte, sqlite в тестах может отдать string.
func jsonbBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("failed to unmarshal JSONB value: expected []byte")
	}
}

// Item представляет вопрос (единицу контента) в каталоге категории
type Item struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	CategoryID        uint        `gorm:"not null;index:idx_items_category_active,priority:1" json:"category_id"`
	Text              string      `gorm:"size:1000;not null" json:"text"`
	Options           StringArray `gorm:"type:jsonb;not null" json:"options"`
	CorrectOption     int         `gorm:"not null" json:"-"` // Скрыто от клиента
	Difficulty        Difficulty  `gorm:"size:10;not null;default:'MEDIUM'" json:"difficulty"`
	UsageCount        int64       `gorm:"not null;default:0" json:"usage_count"`
	CorrectAnswerRate float64     `gorm:"not null;default:0" json:"correct_answer_rate"`
	IsActive          bool        `gorm:"not null;index:idx_items_category_active,priority:2" json:"is_active"`
	IsPublic          bool        `gorm:"not null" json:"is_public"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Item) TableName() string {
	return "items"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (i *Item) IsCorrect(selectedOption int) bool {
	return selectedOption == i.CorrectOption
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (i *Item) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(i.Options)
}

// IsSelectable проверяет, может ли вопрос попасть в выборку для категории
func (i *Item) IsSelectable(categoryID uint) bool {
	return i.IsActive && i.IsPublic && i.CategoryID == categoryID
}
