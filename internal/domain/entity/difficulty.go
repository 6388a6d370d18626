package entity

import "strings"

// Difficulty: уровень сложности вопроса
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	DifficultyExpert Difficulty = "EXPERT"
)

// AllDifficulties возвращает уровни в порядке возрастания сложности
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}
}

// ParseDifficulty разбирает строку без учёта регистра
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	return d, d.IsValid()
}

// IsValid проверяет, что уровень входит в допустимый набор
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

func (d Difficulty) String() string {
	return string(d)
}
