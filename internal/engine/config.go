package engine

import "time"

// Config carries the scheduler tunables shared by every session.
type Config struct {
	DrawInterval       time.Duration // between number calls
	AutoStartGrace     time.Duration // delay before auto-start, lets late joiners in
	StalenessThreshold time.Duration // idle time before a session is abandoned
	SweepInterval      time.Duration // how often the staleness sweep runs
	CardRetention      time.Duration // card archive TTL after a session ends
	Prizes             PrizeConfig
}

func DefaultConfig() Config {
	return Config{
		DrawInterval:       5 * time.Second,
		AutoStartGrace:     5 * time.Second,
		StalenessThreshold: 10 * time.Minute,
		SweepInterval:      time.Minute,
		CardRetention:      24 * time.Hour,
		Prizes: PrizeConfig{
			BasePrize:         10,
			SpeedBonusCeiling: 10,
			FullHouseBonus:    50,
		},
	}
}
