package selection

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

func balancedPool(perTier int) []entity.Item {
	var pool []entity.Item
	next := uint(1)
	for _, d := range entity.AllDifficulties() {
		pool = append(pool, makeItems(1, next, perTier, d)...)
		next += uint(perTier)
	}
	return pool
}

func countByDifficulty(pool []entity.Item, ids []uint) map[entity.Difficulty]int {
	byID := make(map[uint]entity.Difficulty, len(pool))
	for _, item := range pool {
		byID[item.ID] = item.Difficulty
	}
	counts := make(map[entity.Difficulty]int)
	for _, id := range ids {
		counts[byID[id]]++
	}
	return counts
}

func TestTierTargets(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, map[entity.Difficulty]int{
		entity.DifficultyEasy:   2,
		entity.DifficultyMedium: 5,
		entity.DifficultyHard:   2,
		entity.DifficultyExpert: 1,
	}, tierTargets(10, cfg))

	assert.Equal(t, map[entity.Difficulty]int{
		entity.DifficultyEasy:   0,
		entity.DifficultyMedium: 2,
		entity.DifficultyHard:   0,
		entity.DifficultyExpert: 0,
	}, tierTargets(4, cfg))

	assert.Equal(t, 3, tierTargets(30, cfg)[entity.DifficultyExpert])
}

func TestSelectBalanced_TierShape(t *testing.T) {
	pool := balancedPool(10)
	req := Request{CategoryID: 1, DesiredCount: 10, RequesterID: 1, Algorithm: AlgorithmDifficultyBalanced}

	for seed := uint64(0); seed < 50; seed++ {
		s := &sampler{rng: rand.New(rand.NewPCG(seed, 1))}

		res, err := selectBalanced(s, pool, History{}, req, testWeightContext())

		require.NoError(t, err)
		require.Len(t, res.ids, 10)
		assertDistinct(t, res.ids)
		assert.Equal(t, map[entity.Difficulty]int{
			entity.DifficultyEasy:   2,
			entity.DifficultyMedium: 5,
			entity.DifficultyHard:   2,
			entity.DifficultyExpert: 1,
		}, countByDifficulty(pool, res.ids))
	}
}

func TestSelectBalanced_TopsUpFromOtherTiers(t *testing.T) {
	// Сложных вопросов нет вовсе: недостающие берутся из остального пула
	pool := append(makeItems(1, 1, 10, entity.DifficultyEasy), makeItems(1, 100, 10, entity.DifficultyMedium)...)
	req := Request{CategoryID: 1, DesiredCount: 10, RequesterID: 1, Algorithm: AlgorithmDifficultyBalanced}
	s := &sampler{rng: rand.New(rand.NewPCG(9, 9))}

	res, err := selectBalanced(s, pool, History{}, req, testWeightContext())

	require.NoError(t, err)
	assert.Len(t, res.ids, 10)
	assertDistinct(t, res.ids)
	counts := countByDifficulty(pool, res.ids)
	assert.GreaterOrEqual(t, counts[entity.DifficultyEasy], 2)
	assert.GreaterOrEqual(t, counts[entity.DifficultyMedium], 5)
}

func TestSelectBalanced_RespectsGlobalOverlapBudget(t *testing.T) {
	pool := balancedPool(5)
	// Все вопросы, кроме десяти, уже видены
	var seenIDs []uint
	for _, item := range pool[:10] {
		seenIDs = append(seenIDs, item.ID)
	}
	history := seenHistory(seenIDs...)
	req := Request{CategoryID: 1, DesiredCount: 12, OverlapPercentage: 20, RequesterID: 1}

	for seed := uint64(0); seed < 50; seed++ {
		s := &sampler{rng: rand.New(rand.NewPCG(seed, 3))}

		res, err := selectBalanced(s, pool, history, req, testWeightContext())

		require.NoError(t, err)
		assert.Len(t, res.ids, 12)
		assert.LessOrEqual(t, res.overlapUsed, OverlapBudget(12, 20))
	}
}

func TestSelectBalanced_ShortPool(t *testing.T) {
	pool := balancedPool(1)
	history := seenHistory(1, 2)
	req := Request{CategoryID: 1, DesiredCount: 4, OverlapPercentage: 0, RequesterID: 1}
	s := &sampler{rng: rand.New(rand.NewPCG(1, 2))}

	res, err := selectBalanced(s, pool, history, req, testWeightContext())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientPool))
	assert.ElementsMatch(t, []uint{3, 4}, res.ids)
	assert.Equal(t, 0, res.overlapUsed)
}
