package engine

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Column ranges: B 1-15, I 16-30, N 31-45, G 46-60, O 61-75.
const (
	GridSize    = 5
	ColumnRange = 15
	MaxNumber   = 75
	FreeNumber  = 0 // sentinel for the free center cell
)

var Letters = [GridSize]string{"B", "I", "N", "G", "O"}

// MarkedNumber records when and where a number was daubed on a card.
type MarkedNumber struct {
	Number   int       `json:"number"`
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	MarkedAt time.Time `json:"marked_at"`
}

// Cell is one grid position in a player facing card view.
type Cell struct {
	Number int  `json:"number"`
	Free   bool `json:"free,omitempty"`
	Marked bool `json:"marked"`
}

// Card is a 5x5 bingo card. Columns hold the numbers column-major
// (Columns[col][row]); the center cell is the free marker and carries
// FreeNumber. The shape is immutable after generation, only markings grow.
type Card struct {
	ID        string
	PlayerID  string
	SessionID string
	Columns   [GridSize][GridSize]int
	CreatedAt time.Time

	marked map[int]MarkedNumber

	HasBingo       bool
	WinningPattern Pattern
	WinningNumbers []int
}

// CardGenerator produces random cards from its own rand source so
// concurrent sessions never contend on a shared generator.
type CardGenerator struct {
	rng *rand.Rand
}

func NewCardGenerator(seed int64) *CardGenerator {
	return &CardGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Generate builds a fresh card for a player: each column takes 5 distinct
// numbers from its 15-number range (shuffle, take 5, sort ascending) and
// the center cell is overwritten with the free marker.
func (g *CardGenerator) Generate(playerID, sessionID string) *Card {
	c := &Card{
		ID:        uuid.New().String(),
		PlayerID:  playerID,
		SessionID: sessionID,
		CreatedAt: time.Now(),
		marked:    make(map[int]MarkedNumber),
	}

	for col := 0; col < GridSize; col++ {
		base := col*ColumnRange + 1
		picks := g.rng.Perm(ColumnRange)[:GridSize]
		sort.Ints(picks)
		for row, p := range picks {
			c.Columns[col][row] = base + p
		}
	}
	c.Columns[GridSize/2][GridSize/2] = FreeNumber

	return c
}

// NumberAt returns the number at grid position (row, col) and whether the
// cell is the free marker.
func (c *Card) NumberAt(row, col int) (int, bool) {
	n := c.Columns[col][row]
	return n, n == FreeNumber
}

// Position locates a number on the card.
func (c *Card) Position(number int) (row, col int, ok bool) {
	if number < 1 || number > MaxNumber {
		return 0, 0, false
	}
	col = (number - 1) / ColumnRange
	for row = 0; row < GridSize; row++ {
		if c.Columns[col][row] == number {
			return row, col, true
		}
	}
	return 0, 0, false
}

// Mark daubs a number on the card. It reports false when the number is not
// on the card or was already marked; a number is marked at most once.
func (c *Card) Mark(number int, at time.Time) bool {
	if _, dup := c.marked[number]; dup {
		return false
	}
	row, col, ok := c.Position(number)
	if !ok {
		return false
	}
	c.marked[number] = MarkedNumber{Number: number, Row: row, Col: col, MarkedAt: at}
	return true
}

// IsMarked reports whether a cell counts as marked. The free center is
// always marked.
func (c *Card) IsMarked(row, col int) bool {
	n, free := c.NumberAt(row, col)
	if free {
		return true
	}
	_, ok := c.marked[n]
	return ok
}

func (c *Card) IsNumberMarked(number int) bool {
	_, ok := c.marked[number]
	return ok
}

func (c *Card) MarkedCount() int {
	return len(c.marked)
}

// MarkedNumbers returns the daub history ordered by mark time.
func (c *Card) MarkedNumbers() []MarkedNumber {
	out := make([]MarkedNumber, 0, len(c.marked))
	for _, m := range c.marked {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarkedAt.Before(out[j].MarkedAt) })
	return out
}

// Grid renders the row-major player view with per-cell marked flags.
func (c *Card) Grid() [GridSize][GridSize]Cell {
	var grid [GridSize][GridSize]Cell
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			n, free := c.NumberAt(row, col)
			grid[row][col] = Cell{Number: n, Free: free, Marked: c.IsMarked(row, col)}
		}
	}
	return grid
}
