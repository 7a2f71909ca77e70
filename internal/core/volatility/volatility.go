// Package volatility implements the Volatility Tracker (C7): a bounded
// sliding window over a reference pair's marginal price, producing a
// volatility score each cycle. Mirrors the teacher's bounded-queue style
// used for agent price history (a fixed-size lookback buffer).
package volatility

import (
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultCapacity is the default number of samples retained.
const DefaultCapacity = 20

// Tracker maintains a bounded ring buffer of successive reference prices.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	samples  []decimal.Decimal
}

// New builds a Tracker with the given capacity (DefaultCapacity if <= 0).
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{capacity: capacity}
}

// Observe enqueues the latest reference price, dropping the oldest sample
// if the buffer is over capacity, and returns the recomputed volatility
// score: mean(|delta_p_i / p_{i-1}|) * 1000 over successive differences.
func (t *Tracker) Observe(price decimal.Decimal) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = append(t.samples, price)
	if len(t.samples) > t.capacity {
		t.samples = t.samples[len(t.samples)-t.capacity:]
	}

	return t.scoreLocked()
}

// Score recomputes the current volatility score without adding a sample.
func (t *Tracker) Score() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scoreLocked()
}

func (t *Tracker) scoreLocked() decimal.Decimal {
	if len(t.samples) < 2 {
		return decimal.Zero
	}

	sum := decimal.Zero
	count := 0
	for i := 1; i < len(t.samples); i++ {
		prev := t.samples[i-1]
		if prev.IsZero() {
			continue
		}
		delta := t.samples[i].Sub(prev)
		sum = sum.Add(delta.Div(prev).Abs())
		count++
	}
	if count == 0 {
		return decimal.Zero
	}
	mean := sum.Div(decimal.NewFromInt(int64(count)))
	return mean.Mul(decimal.NewFromInt(1000))
}

// Reset clears the sample buffer.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = nil
}
