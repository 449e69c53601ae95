package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one append-only ledger row. Balance is the sum of
// credits minus debits over completed rows.
type Transaction struct {
	ID        int64           `json:"id"`
	PlayerID  string          `json:"player_id"`
	TType     string          `json:"ttype"` // 'entry_fee', 'prize', 'deposit'
	Dr        decimal.Decimal `json:"dr"`
	Cr        decimal.Decimal `json:"cr"`
	TRef      string          `json:"tref"` // session id or external reference
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}
