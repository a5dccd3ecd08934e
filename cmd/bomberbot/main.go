// Command bomberbot connects load-testing bots to a bombgrid server, or lets
// one person play from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lguibr/asciiring/helpers"

	"github.com/lguibr/bombgrid/render"
	"github.com/lguibr/bombgrid/utils"
)

func main() {
	url := flag.String("url", "ws://localhost:4000/subscribe", "server websocket url")
	origin := flag.String("origin", "http://localhost/", "Origin header sent on dial")
	bots := flag.Int("bots", 4, "number of bots")
	rate := flag.Duration("rate", 150*time.Millisecond, "delay between bot intents")
	watch := flag.Bool("watch", false, "render the first bot's view in the terminal")
	play := flag.Bool("play", false, "play interactively instead of running bots (WASD, space, q)")
	color := flag.String("color", "", "player color as #rrggbb")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *play {
		if err := runInteractive(ctx, *url, *origin, *color, logger); err != nil {
			logger.Error("play", "err", err)
			os.Exit(1)
		}
		return
	}

	rng := utils.NewCryptoRand()
	var wg sync.WaitGroup
	var first *client
	for i := 0; i < *bots; i++ {
		botLogger := logger.With("bot", i)
		c, err := dial(ctx, *url, *origin, botLogger)
		if err != nil {
			botLogger.Error("connect", "err", err)
			continue
		}
		if first == nil {
			first = c
		}
		botColor := *color
		if !utils.IsHexColor(botColor) {
			botColor = utils.NewRandomColor(rng)
		}
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			runBot(ctx, c, botColor, *rate, utils.NewSeededRand(seed))
		}(rng.Uint64())
	}
	if first == nil {
		logger.Error("no bot connected")
		os.Exit(1)
	}
	logger.Info("bots running", "url", *url)

	if *watch {
		watchView(ctx, first, 200*time.Millisecond)
	}
	wg.Wait()
}

// watchView redraws c's view until ctx ends or c disconnects.
func watchView(ctx context.Context, c *client, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			state := c.snapshot()
			if state == nil {
				continue
			}
			helpers.ClearScreen()
			fmt.Printf("tick %d  player %s\n", state.Tick, state.PlayerID)
			fmt.Print(render.RenderState(state, render.Options{Color: true}))
			fmt.Print(render.RenderScores(state.Players, state.Scores))
		}
	}
}
