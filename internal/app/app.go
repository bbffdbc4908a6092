// Package app assembles the dependency graph shared by the API server and
// the operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lostfound/internal/core/auth"
	"lostfound/internal/core/cache"
	"lostfound/internal/core/config"
	"lostfound/internal/core/database"
	"lostfound/internal/core/mail"
	"lostfound/internal/core/media"
	"lostfound/internal/repo"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/router"
	"lostfound/internal/worker"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Store    *repo.Store
	Cache    *cache.Cache
	Mailer   *mail.Mailer
	Services router.Services

	Dispatcher *worker.OutboxDispatcher
	Sweeper    *worker.NotificationSweeper
}

// New opens the database (migrating it when configured) and builds every
// service. Close releases the connections.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.NewGorm(database.OptsFrom(cfg.DB), log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("automigrate done")
	}

	mailer, err := mail.New(cfg.App, cfg.Mail, log)
	if err != nil {
		return nil, fmt.Errorf("mail: %w", err)
	}
	cdn, err := media.New(cfg.Media)
	if err != nil {
		return nil, err
	}
	if _, off := cdn.(media.Disabled); off {
		log.Warn("media storage not configured, photo uploads will fail")
	}

	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		log.Warn("redis unavailable, dashboard is not cached", zap.Error(err))
		_ = c.Close()
		c = nil
	}

	store := repo.NewStore(db)
	notifier := service.NewNotifier(cfg.Notifications.TTL())
	jwt := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())

	pets := service.NewPetService(store, cdn, mailer, notifier, log)
	pets.LimitPhotoSize(cfg.Media.MaxFileMB)
	reports := service.NewReportService(store, notifier, log)
	notes := service.NewNotificationService(store, log)
	dashTTL := time.Duration(cfg.Redis.DashboardTTLSec) * time.Second

	return &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Store:  store,
		Cache:  c,
		Mailer: mailer,
		Services: router.Services{
			Auth:          service.NewAuthService(store, jwt, mailer, notifier, log),
			Ownership:     service.NewOwnership(store),
			Pets:          pets,
			Reports:       reports,
			Notifications: notes,
			Admin:         service.NewAdminService(store, pets, reports, c, dashTTL, log),
		},
		Dispatcher: worker.NewOutboxDispatcher(store, mailer, cfg.Outbox, log),
		Sweeper:    worker.NewNotificationSweeper(notes, time.Duration(cfg.Notifications.SweepIntervalMin)*time.Minute, log),
	}, nil
}

func (a *App) Close() {
	_ = a.Cache.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
