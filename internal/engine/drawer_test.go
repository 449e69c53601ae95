package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawerExhaustsPoolWithoutRepeats(t *testing.T) {
	d := NewDrawer(7)
	now := time.Now()

	seen := make(map[int]bool)
	for i := 1; i <= MaxNumber; i++ {
		n, err := d.Draw(now)
		require.NoError(t, err)
		assert.Equal(t, i, n.Order)
		assert.False(t, seen[n.Number], "number %d drawn twice", n.Number)
		assert.Equal(t, LetterFor(n.Number), n.Letter)
		seen[n.Number] = true
	}
	assert.Len(t, seen, MaxNumber)
	assert.Equal(t, 0, d.Remaining())

	_, err := d.Draw(now)
	assert.ErrorIs(t, err, ErrExhaustedPool)
}

func TestLetterFor(t *testing.T) {
	cases := []struct {
		n      int
		letter string
	}{
		{1, "B"}, {15, "B"},
		{16, "I"}, {30, "I"},
		{31, "N"}, {45, "N"},
		{46, "G"}, {60, "G"},
		{61, "O"}, {75, "O"},
		{0, ""}, {76, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.letter, LetterFor(c.n), "number %d", c.n)
	}
}
