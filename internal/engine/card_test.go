package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCard(t *testing.T) {
	g := NewCardGenerator(42)

	for i := 0; i < 50; i++ {
		c := g.Generate("p1", "s1")
		require.NotEmpty(t, c.ID)

		t.Run("column ranges", func(t *testing.T) {
			for col := 0; col < GridSize; col++ {
				lo := col*ColumnRange + 1
				hi := (col + 1) * ColumnRange
				for row := 0; row < GridSize; row++ {
					if col == GridSize/2 && row == GridSize/2 {
						continue
					}
					n := c.Columns[col][row]
					assert.GreaterOrEqual(t, n, lo, "column %s", Letters[col])
					assert.LessOrEqual(t, n, hi, "column %s", Letters[col])
				}
			}
		})

		t.Run("distinct ascending per column", func(t *testing.T) {
			for col := 0; col < GridSize; col++ {
				for row := 1; row < GridSize; row++ {
					if col == GridSize/2 && (row == GridSize/2 || row == GridSize/2+1) {
						continue // center overwritten with the free marker
					}
					assert.Greater(t, c.Columns[col][row], c.Columns[col][row-1])
				}
			}
		})

		t.Run("free center", func(t *testing.T) {
			n, free := c.NumberAt(GridSize/2, GridSize/2)
			assert.True(t, free)
			assert.Equal(t, FreeNumber, n)
			assert.True(t, c.IsMarked(GridSize/2, GridSize/2))
		})
	}
}

func TestCardMark(t *testing.T) {
	c := testCard()
	now := time.Now()

	assert.True(t, c.Mark(1, now))
	assert.True(t, c.IsNumberMarked(1))
	assert.Equal(t, 1, c.MarkedCount())

	t.Run("duplicate mark rejected", func(t *testing.T) {
		assert.False(t, c.Mark(1, now.Add(time.Second)))
		assert.Equal(t, 1, c.MarkedCount())
	})

	t.Run("number not on card", func(t *testing.T) {
		// 6 falls in the B range but this card holds only 1-5 there
		assert.False(t, c.Mark(6, now))
		assert.False(t, c.Mark(0, now))
		assert.False(t, c.Mark(76, now))
	})

	t.Run("mark history ordered by time", func(t *testing.T) {
		c.Mark(16, now.Add(2*time.Second))
		c.Mark(31, now.Add(time.Second))
		history := c.MarkedNumbers()
		require.Len(t, history, 3)
		assert.Equal(t, []int{1, 31, 16}, []int{history[0].Number, history[1].Number, history[2].Number})
	})
}

func TestCardPosition(t *testing.T) {
	c := testCard()

	row, col, ok := c.Position(17)
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	_, _, ok = c.Position(15) // B range, not on this card
	assert.False(t, ok)

	_, _, ok = c.Position(0)
	assert.False(t, ok)
}

func TestCardGrid(t *testing.T) {
	c := testCard()
	c.Mark(1, time.Now())

	grid := c.Grid()
	assert.True(t, grid[0][0].Marked)
	assert.Equal(t, 1, grid[0][0].Number)
	assert.True(t, grid[2][2].Free)
	assert.True(t, grid[2][2].Marked)
	assert.False(t, grid[1][1].Marked)
}
