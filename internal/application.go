package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/arena-backend/internal/arena"
	"github.com/rocketscienceinc/arena-backend/internal/config"
	"github.com/rocketscienceinc/arena-backend/internal/repository"
	"github.com/rocketscienceinc/arena-backend/internal/repository/storage"
	"github.com/rocketscienceinc/arena-backend/internal/service"
	"github.com/rocketscienceinc/arena-backend/internal/transport/nats"
	"github.com/rocketscienceinc/arena-backend/internal/usecase"
	"github.com/rocketscienceinc/arena-backend/transport/rest"
	"github.com/rocketscienceinc/arena-backend/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	outcomeRepo := repository.NewOutcomeRepository(redisStorage)
	sinks := []service.NamedSink{{Name: "redis", Sink: outcomeRepo}}

	var resultRepo repository.ResultRepository

	if conf.Postgres.DSN != "" {
		pgStorage, err := storage.NewPostgres(ctx, conf.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("could not connect to postgres storage: %w", err)
		}
		defer pgStorage.Close()

		if err = pgStorage.Init(ctx); err != nil {
			return fmt.Errorf("could not init postgres storage: %w", err)
		}

		resultRepo = repository.NewResultRepository(pgStorage.Connection)
		sinks = append(sinks, service.NamedSink{Name: "postgres", Sink: resultRepo})
	}

	if conf.NATS.URL != "" {
		natsConn, err := nats.Connect(conf.NATS.URL)
		if err != nil {
			return fmt.Errorf("could not connect to nats: %w", err)
		}
		defer natsConn.Close()

		publisher := nats.NewPublisher(natsConn, conf.NATS.Subject)
		sinks = append(sinks, service.NamedSink{Name: "nats", Sink: service.SinkFunc(publisher.Publish)})
	}

	outcomeService := service.NewOutcomeService(logger, service.DefaultSinkTimeout, sinks...)
	defer outcomeService.Wait()

	initialState, err := arena.LoadInitialState(conf.Game.InitialStatePath)
	if err != nil {
		return fmt.Errorf("could not load initial state: %w", err)
	}

	// the loop outlives ctx so pending teardowns can be cancelled on shutdown
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	loop := usecase.NewLoop(logger, usecase.DefaultLoopBuffer)
	go loop.Run(loopCtx)

	hub := websocket.NewHub(logger)
	gameManager := usecase.NewGameManager(
		logger,
		loop,
		usecase.NewScheduler(),
		repository.NewRoomRepository(conf.Game.RoomCodeLength),
		hub,
		outcomeService,
		usecase.Options{
			TeardownGrace: conf.Game.TeardownGrace,
			Goals:         arena.Goals{SlotOne: conf.Game.Goals.SlotOne, SlotTwo: conf.Game.Goals.SlotTwo},
			InitialState:  initialState,
		},
	)

	defer func() {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelClose()

		if err := gameManager.Close(closeCtx); err != nil {
			log.Error("could not cancel pending teardowns", "error", err)
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.Handler(logger, gameManager, outcomeRepo, resultRepo)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, hub, gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
