package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/robux-bot/internal/bot"
	"github.com/Spok95/robux-bot/internal/broadcast"
	"github.com/Spok95/robux-bot/internal/config"
	"github.com/Spok95/robux-bot/internal/dialog"
	"github.com/Spok95/robux-bot/internal/domain/users"
	"github.com/Spok95/robux-bot/internal/infra/db"
	httpx "github.com/Spok95/robux-bot/internal/infra/http"
	"github.com/Spok95/robux-bot/internal/infra/logger"
	"github.com/Spok95/robux-bot/internal/infra/metrics"
	"github.com/Spok95/robux-bot/internal/ratelimit"
)

// openDirectory выбирает хранилище справочника по directory.driver.
// Возвращаемая функция закрывает ресурсы (пул Postgres).
func openDirectory(ctx context.Context, cfg config.Config, log *slog.Logger) (users.Directory, func(), error) {
	if cfg.Directory.Driver != config.DriverPostgres {
		log.Info("users directory", "driver", config.DriverJSON, "path", cfg.Directory.Path)
		return users.NewFileRepo(cfg.Directory.Path), func() {}, nil
	}

	if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
		return nil, nil, err
	}
	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	log.Info("users directory", "driver", config.DriverPostgres)
	return users.NewPgRepo(pool), pool.Close, nil
}

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, closeDir, err := openDirectory(ctx, cfg, log)
	if err != nil {
		log.Error("users directory init failed", "err", err)
		return
	}
	defer closeDir()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return
	}
	log.Info("bot authorized", "username", api.Self.UserName)

	m := metrics.New()

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, m.Registry)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	b := bot.New(
		api, log, dir, dialog.NewRepo(),
		ratelimit.NewGate(cfg.Order.Cooldown),
		broadcast.New(log, cfg.Broadcast.Delay, m.BroadcastDeliveries),
		m, cfg.Telegram.AdminID, cfg.Order.MinAmount,
	)

	log.Info("bot started", "admin_id", cfg.Telegram.AdminID, "cooldown", cfg.Order.Cooldown.String())
	if err := b.Run(ctx, cfg.Telegram.PollTimeout); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
