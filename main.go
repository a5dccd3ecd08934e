package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguibr/bombgrid/bollywood"
	"github.com/lguibr/bombgrid/game"
	"github.com/lguibr/bombgrid/server"
	"github.com/lguibr/bombgrid/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv(utils.EnvPrefix+"CONFIG"), "path to a YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled and returns once the game and the HTTP
// server have both shut down.
func run(ctx context.Context, cfg utils.Config, logger *slog.Logger) error {
	engine := bollywood.NewEngine(bollywood.WithLogger(logger))
	queue := game.NewActionQueue(cfg.ActionQueueCapacity)
	snapshots := &game.Snapshots{}
	gamePID := engine.Spawn(bollywood.NewProps(game.NewGameActorProducer(game.GameActorArgs{
		Engine:    engine,
		Config:    cfg,
		Queue:     queue,
		Snapshots: snapshots,
		Logger:    logger,
	})))
	if gamePID == nil {
		return errors.New("spawn game actor")
	}

	srv := server.New(cfg, queue, snapshots, logger)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-serveCtx.Done()
		logger.Info("shutting down")
		engine.Shutdown(5 * time.Second)
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", cfg.ListenAddr, "grid", cfg.GridWidth, "tick_period", cfg.TickPeriod)
	err := httpServer.ListenAndServe()
	cancel()
	<-shutdownDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
