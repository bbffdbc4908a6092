package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lostfound/internal/app"
	"lostfound/internal/core/config"
	"lostfound/internal/core/logger"
	"lostfound/internal/core/server"
	"lostfound/internal/transport/http/router"
)

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	sqlDB, err := a.DB.DB()
	if err != nil {
		log.Fatal("database handle", zap.Error(err))
	}
	srv := server.FromConfig(cfg.App.HTTP, router.NewAPIEngine(cfg, log, sqlDB, a.Services))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); a.Dispatcher.Run(ctx) }()
	go func() { defer wg.Done(); a.Sweeper.Run(ctx) }()

	host := cfg.App.HTTP.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	base := fmt.Sprintf("http://%s:%d", host, cfg.App.HTTP.Port)
	log.Info("lostfound api starting",
		zap.String("env", cfg.App.Env),
		zap.String("health", base+"/health"),
		zap.String("api", base+"/api"),
	)

	if err := server.Run(ctx, srv, shutdownGrace, log); err != nil {
		log.Error("http server", zap.Error(err))
		stop()
	}
	wg.Wait()
	log.Info("workers stopped")
}
