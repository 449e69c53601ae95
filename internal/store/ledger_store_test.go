package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLedgerRows(t *testing.T) {
	amount := decimal.NewFromInt(5)

	t.Run("entry fee debits the player", func(t *testing.T) {
		row := entryFeeDebit("p1", "s1", amount)
		assert.Equal(t, "p1", row.PlayerID)
		assert.Equal(t, "entry_fee", row.TType)
		assert.True(t, row.Dr.Equal(amount))
		assert.True(t, row.Cr.IsZero())
		assert.Equal(t, "s1", row.TRef)
		assert.Equal(t, "completed", row.Status)
	})

	t.Run("prize credits the player", func(t *testing.T) {
		row := prizeCredit("p1", "s1", amount)
		assert.Equal(t, "prize", row.TType)
		assert.True(t, row.Dr.IsZero())
		assert.True(t, row.Cr.Equal(amount))
		assert.Equal(t, "s1", row.TRef)
		assert.Equal(t, "completed", row.Status)
	})
}
