package selection

import (
	"errors"
	"math"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// tierTargets возвращает floor(desired × ratio) для каждого уровня сложности
func tierTargets(desired int, cfg *Config) map[entity.Difficulty]int {
	targets := make(map[entity.Difficulty]int, len(cfg.TierRatios))
	for _, d := range entity.AllDifficulties() {
		// 1e-9 гасит погрешность float (0.1*30 = 3.0000000000000004, но бывает и 2.9999…)
		targets[d] = int(math.Floor(float64(desired)*cfg.TierRatios[d] + 1e-9))
	}
	return targets
}

// selectBalanced набирает вопросы по уровням сложности в заданных пропорциях,
// затем добирает недостающее из оставшегося пула. Исчерпание пула уровня не ошибка:
// возвращается лучший возможный набор, а короткий итог сопровождается ErrInsufficientPool.
func selectBalanced(s *sampler, pool []entity.Item, history History, req Request, wc weightContext) (sampleResult, error) {
	budget := OverlapBudget(req.DesiredCount, req.OverlapPercentage)
	targets := tierTargets(req.DesiredCount, wc.cfg)

	byTier := make(map[entity.Difficulty][]entity.Item)
	for _, item := range pool {
		byTier[item.Difficulty] = append(byTier[item.Difficulty], item)
	}

	res := sampleResult{ids: make([]uint, 0, req.DesiredCount)}
	chosen := make(map[uint]struct{}, req.DesiredCount)

	for _, d := range entity.AllDifficulties() {
		target := targets[d]
		tierPool := byTier[d]
		if target == 0 || len(tierPool) == 0 {
			continue
		}

		tierBudget := min(OverlapBudget(target, req.OverlapPercentage), budget-res.overlapUsed)
		tierRes, err := s.sample(tierPool, weighPool(tierPool, history, wc, simplifiedWeight), target, history, tierBudget)
		if err != nil && !errors.Is(err, ErrInsufficientPool) {
			return res, err
		}
		res.append(tierRes, chosen)
	}

	if len(res.ids) < req.DesiredCount {
		remaining := make([]entity.Item, 0, len(pool)-len(res.ids))
		for _, item := range pool {
			if _, ok := chosen[item.ID]; !ok {
				remaining = append(remaining, item)
			}
		}
		topUp, err := s.sample(remaining, weighPool(remaining, history, wc, simplifiedWeight),
			req.DesiredCount-len(res.ids), history, budget-res.overlapUsed)
		if err != nil && !errors.Is(err, ErrInsufficientPool) {
			return res, err
		}
		res.append(topUp, chosen)
	}

	if len(res.ids) > req.DesiredCount {
		res.truncate(req.DesiredCount, history)
	}
	if len(res.ids) < req.DesiredCount {
		return res, ErrInsufficientPool
	}
	return res, nil
}

func (r *sampleResult) append(other sampleResult, chosen map[uint]struct{}) {
	for _, id := range other.ids {
		chosen[id] = struct{}{}
	}
	r.ids = append(r.ids, other.ids...)
	r.overlapUsed += other.overlapUsed
}

// truncate обрезает результат до n и пересчитывает использованный лимит повторов
func (r *sampleResult) truncate(n int, history History) {
	r.ids = r.ids[:n]
	r.overlapUsed = 0
	for _, id := range r.ids {
		if history.Seen(id) {
			r.overlapUsed++
		}
	}
}
