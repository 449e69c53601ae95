package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/natneal/bingo-live/internal/models"
)

// LedgerStore is the append-only transactions ledger. A player's balance
// is the sum of completed credits minus completed debits.
type LedgerStore struct {
	db *pgxpool.Pool
}

func NewLedgerStore(db *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{db: db}
}

func entryFeeDebit(playerID, ref string, amount decimal.Decimal) models.Transaction {
	return models.Transaction{
		PlayerID: playerID,
		TType:    "entry_fee",
		Dr:       amount,
		Cr:       decimal.Zero,
		TRef:     ref,
		Status:   "completed",
	}
}

func prizeCredit(playerID, ref string, amount decimal.Decimal) models.Transaction {
	return models.Transaction{
		PlayerID: playerID,
		TType:    "prize",
		Dr:       decimal.Zero,
		Cr:       amount,
		TRef:     ref,
		Status:   "completed",
	}
}

func (s *LedgerStore) GetBalance(ctx context.Context, playerID string) (decimal.Decimal, error) {
	var totalDr, totalCr decimal.Decimal

	err := s.db.QueryRow(ctx, `
        SELECT
            COALESCE(SUM(dr), 0),
            COALESCE(SUM(cr), 0)
        FROM transactions
        WHERE player_id = $1 AND status = 'completed'
    `, playerID).Scan(&totalDr, &totalCr)
	if err != nil {
		return decimal.Zero, err
	}

	return totalCr.Sub(totalDr), nil
}

// Debit appends an entry-fee debit. The player row is locked for the
// balance check so two concurrent joins cannot both spend the same coins;
// ok reports whether the balance covered the amount.
func (s *LedgerStore) Debit(ctx context.Context, playerID, ref string, amount decimal.Decimal) (ok bool, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT 1 FROM players WHERE player_id = $1 FOR UPDATE`, playerID); err != nil {
		return false, fmt.Errorf("lock player row: %w", err)
	}

	var totalDr, totalCr decimal.Decimal
	err = tx.QueryRow(ctx, `
        SELECT COALESCE(SUM(dr), 0), COALESCE(SUM(cr), 0)
        FROM transactions
        WHERE player_id = $1 AND status = 'completed'
    `, playerID).Scan(&totalDr, &totalCr)
	if err != nil {
		return false, fmt.Errorf("query balance: %w", err)
	}

	if totalCr.Sub(totalDr).LessThan(amount) {
		return false, nil
	}

	row := entryFeeDebit(playerID, ref, amount)
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (player_id, ttype, dr, cr, tref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, row.PlayerID, row.TType, row.Dr, row.Cr, row.TRef, row.Status)
	if err != nil {
		return false, fmt.Errorf("insert debit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// Credit appends a prize credit.
func (s *LedgerStore) Credit(ctx context.Context, playerID, ref string, amount decimal.Decimal) error {
	row := prizeCredit(playerID, ref, amount)
	_, err := s.db.Exec(ctx, `
		INSERT INTO transactions (player_id, ttype, dr, cr, tref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`, row.PlayerID, row.TType, row.Dr, row.Cr, row.TRef, row.Status)
	if err != nil {
		return fmt.Errorf("insert credit: %w", err)
	}
	return nil
}
