package selection

import (
	"fmt"
	"time"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

const day = 24 * time.Hour

// RecencyTier: множитель для вопроса, который пользователь видел не позднее Within назад
type RecencyTier struct {
	Within     time.Duration
	Multiplier float64
}

// Config содержит настройки весов и сэмплирования
type Config struct {
	// HistoryAttempts: сколько последних завершённых попыток учитывается в истории
	HistoryAttempts int

	// RecencyTiers: штрафы за недавний показ (WeightedRandom), по возрастанию Within
	RecencyTiers []RecencyTier

	// RepeatPenaltyPerUse и RepeatPenaltyFloor: множитель max(floor, 1 - timesUsed*penalty)
	RepeatPenaltyPerUse float64
	RepeatPenaltyFloor  float64

	// RarityPivot и RarityFloor: множитель max(floor, 1 + (pivot - usageCount)/pivot)
	RarityPivot float64
	RarityFloor float64

	// DifficultyMultipliers: множители по уровню сложности
	DifficultyMultipliers map[entity.Difficulty]float64

	// TierRatios: доли уровней сложности для DifficultyBalanced
	TierRatios map[entity.Difficulty]float64

	// SeenPenalty: множитель для уже виденных вопросов (DifficultyBalanced, UsageBased)
	SeenPenalty float64

	// UsageTieWindow: вопросы с разницей usage_count в пределах окна перемешиваются (UsageBased)
	UsageTieWindow int64

	// Adaptive
	AdaptiveLowScore      float64
	AdaptiveLowBoost      float64
	AdaptiveHighScore     float64
	AdaptiveHighPenalty   float64
	AdaptiveRecentWindow  time.Duration
	AdaptiveRecentPenalty float64

	// RecorderTimeout: ограничение на запись использования после выборки
	RecorderTimeout time.Duration
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() *Config {
	return &Config{
		HistoryAttempts: 10,
		RecencyTiers: []RecencyTier{
			{Within: 7 * day, Multiplier: 0.1},
			{Within: 30 * day, Multiplier: 0.3},
			{Within: 90 * day, Multiplier: 0.6},
		},
		RepeatPenaltyPerUse: 0.2,
		RepeatPenaltyFloor:  0.1,
		RarityPivot:         100,
		RarityFloor:         0.01,
		DifficultyMultipliers: map[entity.Difficulty]float64{
			entity.DifficultyEasy:   0.9,
			entity.DifficultyMedium: 1.2,
			entity.DifficultyHard:   0.8,
			entity.DifficultyExpert: 1.0,
		},
		TierRatios: map[entity.Difficulty]float64{
			entity.DifficultyEasy:   0.2,
			entity.DifficultyMedium: 0.5,
			entity.DifficultyHard:   0.2,
			entity.DifficultyExpert: 0.1,
		},
		SeenPenalty:           0.1,
		UsageTieWindow:        5,
		AdaptiveLowScore:      0.5,
		AdaptiveLowBoost:      1.5,
		AdaptiveHighScore:     0.8,
		AdaptiveHighPenalty:   0.3,
		AdaptiveRecentWindow:  30 * day,
		AdaptiveRecentPenalty: 0.2,
		RecorderTimeout:       5 * time.Second,
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.HistoryAttempts <= 0 {
		return fmt.Errorf("history attempts must be positive, got %d", c.HistoryAttempts)
	}
	if c.RarityPivot <= 0 {
		return fmt.Errorf("rarity pivot must be positive, got %v", c.RarityPivot)
	}
	for i := 1; i < len(c.RecencyTiers); i++ {
		if c.RecencyTiers[i].Within <= c.RecencyTiers[i-1].Within {
			return fmt.Errorf("recency tiers must be sorted by window, tier %d is out of order", i)
		}
	}
	var ratioSum float64
	for _, d := range entity.AllDifficulties() {
		if _, ok := c.DifficultyMultipliers[d]; !ok {
			return fmt.Errorf("difficulty multiplier for %s is missing", d)
		}
		ratio := c.TierRatios[d]
		if ratio < 0 {
			return fmt.Errorf("tier ratio for %s must be non-negative", d)
		}
		ratioSum += ratio
	}
	if ratioSum > 1.0+1e-9 {
		return fmt.Errorf("tier ratios must not exceed 1.0 in total, got %.2f", ratioSum)
	}
	if c.RecorderTimeout <= 0 {
		return fmt.Errorf("recorder timeout must be positive")
	}
	return nil
}

// difficultyMultiplier возвращает множитель уровня; неизвестный уровень — 1.0
func (c *Config) difficultyMultiplier(d entity.Difficulty) float64 {
	if m, ok := c.DifficultyMultipliers[d]; ok {
		return m
	}
	return 1.0
}

// OverlapBudget: максимальное число уже виденных вопросов в выборке:
// floor(desiredCount × overlapPercentage / 100)
func OverlapBudget(desiredCount, overlapPercentage int) int {
	if desiredCount <= 0 || overlapPercentage <= 0 {
		return 0
	}
	return desiredCount * overlapPercentage / 100
}
