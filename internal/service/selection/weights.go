package selection

import (
	"math"
	"sort"
	"time"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// weightContext: общие входные данные для весовых функций одного вызова
type weightContext struct {
	cfg *Config
	now time.Time
}

// itemWeightFunc вычисляет вес одного вопроса. entry == nil для «холодного» вопроса.
type itemWeightFunc func(item *entity.Item, entry *entity.HistoryEntry, wc weightContext) float64

// weighPool применяет функцию к каждому вопросу пула
func weighPool(pool []entity.Item, history History, wc weightContext, fn itemWeightFunc) []float64 {
	weights := make([]float64, len(pool))
	for i := range pool {
		var entry *entity.HistoryEntry
		if e, ok := history[pool[i].ID]; ok {
			entry = &e
		}
		weights[i] = fn(&pool[i], entry, wc)
	}
	return weights
}

// weightedRandomWeight: штраф за недавность и повторы, бонус за редкость, множитель сложности
func weightedRandomWeight(item *entity.Item, entry *entity.HistoryEntry, wc weightContext) float64 {
	w := 1.0
	if entry != nil {
		age := wc.now.Sub(entry.LastUsedAt)
		for _, tier := range wc.cfg.RecencyTiers {
			if age < tier.Within {
				w *= tier.Multiplier
				break
			}
		}
		w *= math.Max(wc.cfg.RepeatPenaltyFloor, 1-float64(entry.TimesUsed)*wc.cfg.RepeatPenaltyPerUse)
	}
	w *= rarityWeight(item.UsageCount, wc.cfg)
	w *= wc.cfg.difficultyMultiplier(item.Difficulty)
	return w
}

// rarityWeight: чем реже вопрос использовался глобально, тем выше вес
func rarityWeight(usageCount int64, cfg *Config) float64 {
	r := 1 + (cfg.RarityPivot-float64(usageCount))/cfg.RarityPivot
	return math.Max(cfg.RarityFloor, r)
}

// simplifiedWeight используется DifficultyBalanced: виденный вопрос получает только штраф
func simplifiedWeight(item *entity.Item, entry *entity.HistoryEntry, wc weightContext) float64 {
	if entry != nil {
		return wc.cfg.SeenPenalty
	}
	return wc.cfg.difficultyMultiplier(item.Difficulty)
}

// adaptiveWeight усиливает вопросы, на которых пользователь ошибался,
// и приглушает освоенные и недавно показанные
func adaptiveWeight(_ *entity.Item, entry *entity.HistoryEntry, wc weightContext) float64 {
	w := 1.0
	if entry == nil {
		return w
	}
	switch {
	case entry.PerformanceScore < wc.cfg.AdaptiveLowScore:
		w *= wc.cfg.AdaptiveLowBoost
	case entry.PerformanceScore > wc.cfg.AdaptiveHighScore:
		w *= wc.cfg.AdaptiveHighPenalty
	}
	if wc.now.Sub(entry.LastUsedAt) < wc.cfg.AdaptiveRecentWindow {
		w *= wc.cfg.AdaptiveRecentPenalty
	}
	return w
}

// usageRankedPool упорядочивает пул по возрастанию usage_count, перемешивая
// вопросы с близким usage_count, и назначает веса по рангу:
// 1 + (poolSize - rank)/poolSize, ×SeenPenalty для виденных.
// Возвращает новый срез пула и параллельный срез весов.
func usageRankedPool(pool []entity.Item, history History, wc weightContext, rng Rand) ([]entity.Item, []float64) {
	ranked := make([]entity.Item, len(pool))
	copy(ranked, pool)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].UsageCount != ranked[j].UsageCount {
			return ranked[i].UsageCount < ranked[j].UsageCount
		}
		return ranked[i].ID < ranked[j].ID
	})

	// Группы близких по usage_count вопросов перемешиваем между собой
	for start := 0; start < len(ranked); {
		end := start + 1
		for end < len(ranked) && ranked[end].UsageCount-ranked[start].UsageCount <= wc.cfg.UsageTieWindow {
			end++
		}
		group := ranked[start:end]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		start = end
	}

	n := float64(len(ranked))
	weights := make([]float64, len(ranked))
	for rank := range ranked {
		w := 1 + (n-float64(rank))/n
		if history.Seen(ranked[rank].ID) {
			w *= wc.cfg.SeenPenalty
		}
		weights[rank] = w
	}
	return ranked, weights
}
