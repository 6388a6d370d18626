package selection

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/yourusername/exam-api/internal/domain/entity"
)

// Rand: источник случайности. Engine вызывает его из параллельных Select,
// поэтому реализация должна быть безопасна для горутин. *rand.Rand таким не
// является: оборачивайте его в NewLockedRand.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// globalRand использует глобальный генератор math/rand/v2 (безопасен для горутин)
type globalRand struct{}

func (globalRand) Float64() float64                   { return rand.Float64() }
func (globalRand) IntN(n int) int                     { return rand.IntN(n) }
func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// LockedRand сериализует обращения к источнику, не безопасному для горутин
type LockedRand struct {
	mu  sync.Mutex
	rng Rand
}

// NewLockedRand оборачивает rng мьютексом
func NewLockedRand(rng Rand) *LockedRand {
	return &LockedRand{rng: rng}
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

func (l *LockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng.Shuffle(n, swap)
}

// sampleResult: результат одного прогона сэмплера
type sampleResult struct {
	ids         []uint
	overlapUsed int
}

// sampler выполняет взвешенную выборку без возвращения с лимитом на повторы
type sampler struct {
	rng Rand
}

// sample выбирает до desired вопросов из pool с весами weights.
// Виденный вопрос (есть в history) принимается, только пока overlapUsed < budget;
// иначе он удаляется из пула без засчитывания попытки.
// Если пул исчерпан раньше, возвращается частичный результат вместе с ErrInsufficientPool.
func (s *sampler) sample(pool []entity.Item, weights []float64, desired int, history History, budget int) (sampleResult, error) {
	res := sampleResult{ids: make([]uint, 0, min(desired, len(pool)))}
	if desired <= 0 {
		return res, nil
	}

	tree := newFenwickTree(weights)
	for len(res.ids) < desired && tree.live > 0 {
		idx := s.draw(tree)
		item := &pool[idx]

		seen := history.Seen(item.ID)
		if seen && res.overlapUsed >= budget {
			tree.remove(idx)
			continue
		}

		res.ids = append(res.ids, item.ID)
		if seen {
			res.overlapUsed++
		}
		tree.remove(idx)
	}

	if len(res.ids) < desired {
		return res, fmt.Errorf("%w: selected %d of %d", ErrInsufficientPool, len(res.ids), desired)
	}
	return res, nil
}

// draw выбирает индекс пропорционально весу; при нулевой сумме весов — равномерно
func (s *sampler) draw(tree *fenwickTree) int {
	total := tree.total()
	if total > 0 {
		if idx := tree.find(s.rng.Float64() * total); idx >= 0 {
			return idx
		}
	}
	return tree.nthAlive(s.rng.IntN(tree.live))
}
