package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	Mo "github.com/maroda/midiassign/obvy"
	Ms "github.com/maroda/midiassign/server"
)

func main() {
	cfg, err := Ms.LoadConfig()
	if err != nil {
		slog.Error("Problem loading configuration", slog.Any("Error", err))
		os.Exit(1)
	}
	slog.SetDefault(Ms.NewLogger(cfg.Log))

	slog.Info("midiassign initializing",
		slog.String("user", Ms.FillEnvVar("USER")),
		slog.String("version", Ms.Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTel.Enabled {
		shutdown, err := Mo.InitOTel(ctx, cfg.OTel.Provider)
		if err != nil {
			slog.Error("Problem starting OTel", slog.Any("Error", err))
			os.Exit(1)
		}
		defer shutdown()
	}

	svc, cleanup, err := Ms.NewServiceFromConfig(cfg)
	if err != nil {
		slog.Error("Problem starting midiassign", slog.Any("Error", err))
		os.Exit(1)
	}
	defer cleanup()

	if cfg.Catalog.File != "" && cfg.Catalog.Reload > 0 {
		sup := svc.NewCatalogSupervisor(cfg.Catalog.File, cfg.Catalog.Reload)
		sup.Start()
		defer sup.Stop()
	}

	view := Ms.NewView(svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return view.Serve(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		// silence anything still sounding once we are asked to stop
		<-gctx.Done()
		if svc.Audition != nil {
			return svc.Audition.Flush()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("midiassign stopped", slog.Any("Error", err))
		cleanup()
		os.Exit(1)
	}
	slog.Info("midiassign stopped")
}
