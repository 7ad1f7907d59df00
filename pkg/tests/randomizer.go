package tests

import (
	"math/rand"
	"time"
)

type Randomizer struct {
	Float64 func() float64
	Bool    func() bool
	Intn    func(n int) int
}

func NewRandomizer() Randomizer {
	random := rand.New(rand.NewSource(time.Now().Unix())) //nolint:gosec // for tests

	return Randomizer{
		Float64: random.Float64,
		Bool:    func() bool { return random.Intn(2) == 0 }, //nolint:mnd // skip
		Intn:    random.Intn,
	}
}

// StepSequence returns n non-decreasing step counts starting at zero, the way
// a deal's safety order counter evolves between polls.
func (r Randomizer) StepSequence(n, maxJump int) []int {
	steps := make([]int, n)

	for i := 1; i < n; i++ {
		steps[i] = steps[i-1]
		if r.Bool() {
			steps[i] += r.Intn(maxJump + 1)
		}
	}

	return steps
}
