package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/beanbar-pos/client/internal/app"
	"github.com/beanbar-pos/client/internal/config"
	"github.com/beanbar-pos/client/internal/notify"
	"github.com/beanbar-pos/client/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg := config.Load()
	notifier := notify.NewChannelNotifier(32)

	a, err := app.New(cfg, logger, notifier)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not build client core")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)

	if email := os.Getenv("POS_EMAIL"); email != "" {
		if err := a.Login(ctx, email, os.Getenv("POS_PASSWORD")); err != nil {
			logger.Error().Err(err).Msg("login failed")
		}
	}

	if err := a.RefreshCatalog(ctx); err != nil {
		logger.Warn().Err(err).Msg("catalog fetch failed, running on the default menu")
	}
	if err := a.RefreshOrders(ctx); err != nil {
		logger.Warn().Err(err).Msg("order fetch failed")
	}

	for _, item := range a.Store.MenuItems() {
		logger.Info().Str("item", item.Name).Str("price", item.Price.StringFixed(2)).Msg("menu")
	}

	changes, cancel := a.Store.Subscribe()
	defer cancel()

	logger.Info().Int("orders", len(a.Store.Orders())).Msg("terminal ready")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return
		case n := <-notifier.C():
			logger.Info().Str("level", string(n.Level)).Bool("sticky", n.Sticky).Msg(n.Message)
		case c := <-changes:
			switch c.Kind {
			case store.ChangeStatus:
				if o, ok := a.Store.OrderByID(c.OrderID); ok {
					logger.Info().Int64("order", o.ID).Str("status", o.Status).Msg("order updated")
				}
			case store.ChangeOrders:
				logger.Info().Int("active", len(a.Store.ActiveOrders())).Msg("order list replaced")
			case store.ChangeCatalog:
				logger.Info().Int("items", len(a.Store.MenuItems())).Msg("catalog updated")
			}
		}
	}
}
