package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/natneal/bingo-live/configs"
	"github.com/natneal/bingo-live/internal/board"
	"github.com/natneal/bingo-live/internal/service"
	"github.com/natneal/bingo-live/internal/store"
)

const SERVICE_NAME = "board"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// pg connection
	dbpool, err := store.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo connection for ranking snapshots
	mongoDB, cancelMongo, err := board.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer cancelMongo()
	log.Printf("mongo connection established successfully")

	sessionService := service.NewSessionService(store.NewSessionStore(dbpool))
	leaderboards := board.NewLeaderboardStore(mongoDB)

	interval := 5 * time.Minute
	if env := os.Getenv("BOARD_INTERVAL"); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			interval = d
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	log.Infof("%s service aggregating rankings every %s", SERVICE_NAME, interval)

	// first pass immediately so fresh deployments serve rankings
	refreshAll(sessionService, leaderboards)

	for {
		select {
		case <-ticker.C:
			refreshAll(sessionService, leaderboards)
		case <-stop:
			log.Infof("%s service gracefully stopped", SERVICE_NAME)
			return
		}
	}
}

func refreshAll(sessions *service.SessionService, leaderboards *board.LeaderboardStore) {
	now := time.Now()
	for _, period := range []board.Period{board.PeriodDaily, board.PeriodWeekly, board.PeriodAllTime} {
		if err := refresh(sessions, leaderboards, period, now); err != nil {
			log.Errorf("ranking refresh for %s failed: %v", period, err)
		}
	}
}

func refresh(sessions *service.SessionService, leaderboards *board.LeaderboardStore,
	period board.Period, now time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	finished, err := sessions.ListFinishedSince(ctx, board.PeriodStart(period, now))
	if err != nil {
		return err
	}

	snap := board.Snapshot{
		Period:    period,
		StartDate: board.PeriodStart(period, now),
		Rankings:  board.BuildRankings(finished),
		CreatedAt: now,
	}
	return leaderboards.SaveSnapshot(ctx, snap)
}
