package engine

import (
	"math/rand"
	"time"
)

// DrawnNumber is one committed draw within a session. Order starts at 1
// and is monotonically increasing.
type DrawnNumber struct {
	Number   int       `json:"number"`
	Letter   string    `json:"letter"`
	Order    int       `json:"order"`
	CalledAt time.Time `json:"called_at"`
}

// Drawer picks numbers 1-75 uniformly at random without replacement for a
// single session.
type Drawer struct {
	rng       *rand.Rand
	remaining []int
	order     int
}

func NewDrawer(seed int64) *Drawer {
	d := &Drawer{
		rng:       rand.New(rand.NewSource(seed)),
		remaining: make([]int, MaxNumber),
	}
	for i := range d.remaining {
		d.remaining[i] = i + 1
	}
	return d
}

// Draw commits the next number. It fails with ErrExhaustedPool once all 75
// numbers have been drawn; the caller ends the session with reason
// all_numbers_called.
func (d *Drawer) Draw(at time.Time) (DrawnNumber, error) {
	if len(d.remaining) == 0 {
		return DrawnNumber{}, ErrExhaustedPool
	}
	i := d.rng.Intn(len(d.remaining))
	n := d.remaining[i]
	d.remaining[i] = d.remaining[len(d.remaining)-1]
	d.remaining = d.remaining[:len(d.remaining)-1]

	d.order++
	return DrawnNumber{
		Number:   n,
		Letter:   LetterFor(n),
		Order:    d.order,
		CalledAt: at,
	}, nil
}

// Remaining reports how many numbers are still in the pool.
func (d *Drawer) Remaining() int {
	return len(d.remaining)
}

// LetterFor maps a number to its column letter by the fixed boundaries
// 1-15 B, 16-30 I, 31-45 N, 46-60 G, 61-75 O.
func LetterFor(n int) string {
	if n < 1 || n > MaxNumber {
		return ""
	}
	return Letters[(n-1)/ColumnRange]
}
