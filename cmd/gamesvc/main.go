package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/natneal/bingo-live/configs"
	"github.com/natneal/bingo-live/internal/board"
	"github.com/natneal/bingo-live/internal/broker"
	"github.com/natneal/bingo-live/internal/engine"
	"github.com/natneal/bingo-live/internal/handlers"
	nats "github.com/natneal/bingo-live/internal/nats"
	"github.com/natneal/bingo-live/internal/service"
	"github.com/natneal/bingo-live/internal/store"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	instanceId = "001"
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

	// mongo connection for the card archive
	mongoDB, cancelMongo, err := board.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer cancelMongo()
	log.Printf("mongo connection established successfully")

	playerStore := store.NewPlayerStore(dbpool)
	playerService := service.NewPlayerService(playerStore)

	ledgerStore := store.NewLedgerStore(dbpool)
	balanceService := service.NewBalanceService(ledgerStore)

	sessionStore := store.NewSessionStore(dbpool)
	sessionService := service.NewSessionService(sessionStore)

	cardStore := store.NewCardStore(dbpool)
	cardService := service.NewCardService(cardStore)

	roomStore := store.NewRoomStore(dbpool)
	roomService := service.NewRoomService(roomStore)

	cardArchive := board.NewCardArchive(mongoDB)
	leaderboards := board.NewLeaderboardStore(mongoDB)

	persistence := service.NewPersistence(sessionStore, cardStore, cardArchive)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// the broker is the scheduler's notifier, so it is built first and
	// handed the scheduler afterwards
	b := broker.NewBroker(n.Conn, nil, playerService, balanceService, roomService)

	sched := engine.NewScheduler(engine.DefaultConfig(), persistence, balanceService, playerService, b)
	b.Scheduler = sched

	sched.Start()
	defer sched.Shutdown()

	// subscribe to socket service
	sub, err := b.SubscribeRequests()
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(sched, sessionService, cardService, roomService, leaderboards)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("GAME_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
