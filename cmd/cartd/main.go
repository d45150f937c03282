package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"store_driver":   cfg.Cart.StoreDriver,
		"push_transport": cfg.Push.TransportKind(),
	})

	app, err := newApp(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap cartd", err)
		os.Exit(1)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		logg.Error(ctx, "error releasing resources", err)
	}
	if runErr != nil {
		logg.Error(ctx, "cartd stopped unexpectedly", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "cartd shut down gracefully")
}
