package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"LiveBoard/internal/board"
	"LiveBoard/internal/config"
	"LiveBoard/internal/logging"
	"LiveBoard/internal/network"
	"LiveBoard/internal/relay"
	"LiveBoard/internal/session"
	"LiveBoard/internal/state"
	"LiveBoard/internal/ui"
)

const discoverTimeout = 3 * time.Second

func main() {
	if err := mainInner(); err != nil {
		fmt.Fprintln(os.Stderr, "liveboard:", err)
		os.Exit(1)
	}
}

func mainInner() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	log, flush, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeRelay:
		return runRelay(ctx, cfg, log)
	default:
		return runClient(ctx, cfg, log)
	}
}

func runRelay(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) error {
	srv := relay.New(relay.Options{Addr: cfg.ListenAddr, Advertise: cfg.Advertise, Log: log})
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Errorw("relay stopped", "error", err)
		return err
	}
	log.Infow("relay shut down")
	return nil
}

func runClient(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) error {
	server := cfg.ServerURL
	if cfg.Discover {
		found, err := network.Discover(ctx, discoverTimeout)
		switch {
		case len(found) > 0:
			server = found[0]
			log.Infow("discovered relay", "url", server, "candidates", len(found))
		case err != nil:
			log.Warnw("mDNS discovery failed", "error", err)
		default:
			log.Infow("no relay found on the LAN", "fallback", server)
		}
	}

	rooms := network.NewRoomsClient(server)
	log.Infow("starting client", "server", server, "room", cfg.Room, "name", cfg.Name)
	return ui.Run(ctx, ui.Options{
		Room:   cfg.Room,
		Lookup: rooms.GetRoom,
		Log:    log,
		Session: session.Options{
			Resolver: rooms,
			Dialer:   &network.Dialer{ServerURL: server, Name: cfg.Name, Log: log},
			Log:      log,
			Board: board.Options{
				Extent:         state.Extent{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight},
				DrawInterval:   cfg.DrawInterval,
				CursorInterval: cfg.CursorInterval,
				Log:            log,
			},
		},
	})
}
