package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/natneal/bingo-live/internal/engine"
	"github.com/natneal/bingo-live/internal/store"
)

// BalanceService fronts the append-only transactions ledger. It is the
// engine's Ledger port; amounts cross the boundary as whole coins and are
// stored as decimals.
type BalanceService struct {
	ledger *store.LedgerStore
}

func NewBalanceService(ledger *store.LedgerStore) *BalanceService {
	return &BalanceService{ledger: ledger}
}

func (s *BalanceService) GetBalance(ctx context.Context, playerID string) (decimal.Decimal, error) {
	return s.ledger.GetBalance(ctx, playerID)
}

func (s *BalanceService) DebitEntryFee(ctx context.Context, playerID, sessionID string, amount int64) error {
	ok, err := s.ledger.Debit(ctx, playerID, sessionID, decimal.NewFromInt(amount))
	if err != nil {
		return fmt.Errorf("debit entry fee: %w", err)
	}
	if !ok {
		return engine.ErrInsufficientBalance
	}
	return nil
}

func (s *BalanceService) CreditPrize(ctx context.Context, playerID, sessionID string, amount int64) error {
	if err := s.ledger.Credit(ctx, playerID, sessionID, decimal.NewFromInt(amount)); err != nil {
		return fmt.Errorf("credit prize: %w", err)
	}
	return nil
}
