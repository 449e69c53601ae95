package engine

import "time"

// PrizeConfig holds the deterministic payout parameters. Amounts are in
// whole coins; conversion to ledger decimals happens at the boundary.
type PrizeConfig struct {
	BasePrize         int64
	SpeedBonusCeiling int64
	FullHouseBonus    int64
}

// Prize computes the payout for a win:
//
//	base + max(0, ceiling - floor(seconds/5)) + full-house bonus
//
// The speed bonus decays by one coin per five seconds since the game
// started and never goes negative.
func (p PrizeConfig) Prize(pattern Pattern, sinceStart time.Duration) int64 {
	speed := p.SpeedBonusCeiling - int64(sinceStart.Seconds())/5
	if speed < 0 {
		speed = 0
	}
	total := p.BasePrize + speed
	if pattern == PatternFullHouse {
		total += p.FullHouseBonus
	}
	return total
}
