package workflow

import (
	"math/rand"
	"sync"
	"time"
)

// randomPicker selects uniformly among candidates.
type randomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker builds the production picker.
func NewRandomPicker() Picker {
	return &randomPicker{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *randomPicker) Pick(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return candidates[p.rng.Intn(len(candidates))]
}
