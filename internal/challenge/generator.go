package challenge

import (
	"fmt"
	"math/rand"
	"time"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
)

// operationCount is how many challenge kinds the generator selects among.
const operationCount = 3

// Generator produces arithmetic challenges from an injected random source,
// so tests can make it deterministic.
type Generator struct {
	// rng is the random source for operand and operation selection.
	rng *rand.Rand
}

// New creates a generator backed by the provided source.
func New(src rand.Source) *Generator {
	return &Generator{
		rng: rand.New(src),
	}
}

// NewDefault creates a time-seeded generator for production use.
func NewDefault() *Generator {
	return New(rand.NewSource(time.Now().UnixNano()))
}

// intn returns a uniform value in [low, high].
func (g *Generator) intn(low, high int) int {
	return low + g.rng.Intn(high-low+1)
}

// Generate returns a fresh challenge, uniformly selected among addition,
// subtraction and multiplication. Subtraction operands are ordered so the
// answer is never negative.
func (g *Generator) Generate() domain.Challenge {
	switch g.rng.Intn(operationCount) {
	case 0:
		a, b := g.intn(10, 99), g.intn(10, 99)

		return domain.Challenge{
			Question: fmt.Sprintf("%d + %d", a, b),
			Answer:   a + b,
		}
	case 1:
		a := g.intn(20, 99)
		b := g.intn(1, a)

		return domain.Challenge{
			Question: fmt.Sprintf("%d − %d", a, b),
			Answer:   a - b,
		}
	default:
		a, b := g.intn(2, 12), g.intn(2, 12)

		return domain.Challenge{
			Question: fmt.Sprintf("%d × %d", a, b),
			Answer:   a * b,
		}
	}
}
