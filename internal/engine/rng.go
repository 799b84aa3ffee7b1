package engine

import (
	"math/rand/v2"
	"sync"
)

// RandomSource — источник случайных чисел для гачи.
// Float64 возвращает значение из [0, 1).
type RandomSource interface {
	Float64() float64
}

// globalRNG использует общий генератор math/rand/v2 (безопасен для горутин).
type globalRNG struct{}

func (globalRNG) Float64() float64 { return rand.Float64() }

// DefaultRNG — источник по умолчанию. Криптостойкость для гачи не нужна.
func DefaultRNG() RandomSource { return globalRNG{} }

// seededRNG — воспроизводимая последовательность (тесты, симуляции).
type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRNG создаёт детерминированный источник с заданным seed.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
