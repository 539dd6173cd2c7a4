package app

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler produces uniformly random index permutations.
type Shuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewShuffler(seed int64) *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(seed))}
}

func newDefaultShuffler() *Shuffler {
	return NewShuffler(time.Now().UnixNano())
}

// Permutation returns the indices [0, n) in a Fisher-Yates shuffled order.
func (s *Shuffler) Permutation(n int) []int {
	if n <= 0 {
		return []int{}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}
