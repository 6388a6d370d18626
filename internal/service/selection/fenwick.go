package selection

import (
	"math"
	"math/bits"
)

// fenwickTree хранит префиксные суммы весов: выбор и удаление за O(log n)
// вместо линейного сдвига массива на каждом шаге.
type fenwickTree struct {
	tree    []float64 // 1-indexed
	weights []float64 // текущие веса, 0 — удалён
	alive   []bool
	live    int
	step    int // старший бит n для спуска
}

func newFenwickTree(weights []float64) *fenwickTree {
	n := len(weights)
	f := &fenwickTree{
		tree:    make([]float64, n+1),
		weights: make([]float64, n),
		alive:   make([]bool, n),
		live:    n,
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) { // отрицательные и NaN веса считаем нулевыми
			w = 0
		}
		f.weights[i] = w
		f.alive[i] = true
		f.tree[i+1] += w
		if parent := (i + 1) + ((i + 1) & -(i + 1)); parent <= n {
			f.tree[parent] += f.tree[i+1]
		}
	}
	if n > 0 {
		f.step = 1 << (bits.Len(uint(n)) - 1)
	}
	return f
}

func (f *fenwickTree) add(i int, delta float64) {
	for j := i + 1; j < len(f.tree); j += j & -j {
		f.tree[j] += delta
	}
}

// total возвращает сумму весов живых элементов
func (f *fenwickTree) total() float64 {
	var sum float64
	for j := len(f.tree) - 1; j > 0; j -= j & -j {
		sum += f.tree[j]
	}
	return sum
}

// find возвращает индекс элемента, на котором накопленный вес впервые превышает u
func (f *fenwickTree) find(u float64) int {
	pos := 0
	for step := f.step; step > 0; step >>= 1 {
		next := pos + step
		if next < len(f.tree) && f.tree[next] <= u {
			pos = next
			u -= f.tree[next]
		}
	}
	if pos >= len(f.weights) || !f.alive[pos] || f.weights[pos] == 0 {
		// Погрешность float на правой границе: берём последний живой элемент с весом
		return f.lastWeighted()
	}
	return pos
}

func (f *fenwickTree) lastWeighted() int {
	for i := len(f.weights) - 1; i >= 0; i-- {
		if f.alive[i] && f.weights[i] > 0 {
			return i
		}
	}
	return -1
}

// nthAlive возвращает k-й (с нуля) живой элемент
func (f *fenwickTree) nthAlive(k int) int {
	for i, ok := range f.alive {
		if !ok {
			continue
		}
		if k == 0 {
			return i
		}
		k--
	}
	return -1
}

func (f *fenwickTree) remove(i int) {
	if !f.alive[i] {
		return
	}
	f.add(i, -f.weights[i])
	f.weights[i] = 0
	f.alive[i] = false
	f.live--
}
