package ping

import (
	"math/rand/v2"
	"sync"
)

const (
	DefaultDropThreshold = 4
	DefaultDrawCeiling   = 10
)

// LossSimulator decides which probes the server pretends never arrived.
// Each call to Drop draws a uniform integer in [0, ceiling] and drops when
// the draw is below the threshold, so with the defaults 4 of 11 outcomes
// are a loss. A fixed seed replays the same drop pattern.
type LossSimulator struct {
	mu        sync.Mutex
	rnd       *rand.Rand
	threshold int
	ceiling   int
}

// NewLossSimulator builds a simulator over src. A nil src seeds from the
// runtime's random source.
func NewLossSimulator(src rand.Source, threshold, ceiling int) *LossSimulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if ceiling <= 0 {
		ceiling = DefaultDrawCeiling
	}
	return &LossSimulator{
		rnd:       rand.New(src),
		threshold: threshold,
		ceiling:   ceiling,
	}
}

// SeededLossSimulator is NewLossSimulator over a PCG source seeded with seed.
func SeededLossSimulator(seed uint64, threshold, ceiling int) *LossSimulator {
	return NewLossSimulator(rand.NewPCG(seed, seed), threshold, ceiling)
}

// Draw returns the next raw draw.
func (l *LossSimulator) Draw() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.IntN(l.ceiling + 1)
}

func (l *LossSimulator) Drop() bool {
	return l.Draw() < l.threshold
}
