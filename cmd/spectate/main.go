// cmd/spectate/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/logging"
	"github.com/opd-ai/go-blackhole/pkg/network"
	"github.com/opd-ai/go-blackhole/pkg/render"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	url := flag.String("url", "", "Spectator websocket URL (overrides config)")
	every := flag.Duration("every", time.Second, "Minimum time between logged snapshots")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.NewLogger()

	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	if *url != "" {
		cfg.Spectator.URL = *url
	}

	client := network.NewSpectatorClient(cfg, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Error(ctx, "Failed to connect", err, "url", cfg.Spectator.URL)
		os.Exit(1)
	}
	defer client.Close()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "Spectator stopping", "dropped", client.Dropped())
			return
		case state, ok := <-client.Snapshots():
			if !ok {
				if err := client.Err(); err != nil {
					logger.Error(context.Background(), "Spectator connection ended", err)
					os.Exit(1)
				}
				return
			}
			if time.Since(last) < *every {
				continue
			}
			last = time.Now()

			status := render.StatusOfState(state)
			logger.Info(ctx, status.String(),
				"tick", status.Tick,
				"collected", status.Collected,
				"live_drones", status.LiveDrones,
				"asteroids", len(state.Asteroids),
				"crystals", len(state.Crystals),
				"player_alive", state.Player.Alive,
			)
		}
	}
}
