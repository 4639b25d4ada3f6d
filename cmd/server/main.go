package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"campusdigest/config"
	"campusdigest/internal/app"
	"campusdigest/internal/handler"
	"campusdigest/internal/httpserver"
	"campusdigest/internal/scheduler"
	"campusdigest/internal/service"
	"campusdigest/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	log := logger.NewLogger(os.Getenv("APP_MODE"))
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	log.Info("Starting campus digest server...",
		zap.String("timezone", cfg.Digest.Timezone),
		zap.String("schedule", cfg.Digest.ScheduleTime),
	)

	a, err := app.New(cfg, app.Options{WithHistory: true, WithEvents: true, WithPush: true}, log)
	if err != nil {
		log.Fatal("pipeline assembly failed", zap.Error(err))
	}
	defer a.Close()

	sched := scheduler.New(a.Runner, a.Loc, log)
	if err := sched.Start(cfg.Digest.ScheduleTime); err != nil {
		log.Fatal("scheduler setup failed", zap.Error(err))
	}
	defer sched.Stop()

	authHandler := handler.NewAuthHandler(service.NewAuthService(cfg.Auth), log)
	digestHandler := handler.NewDigestHandler(a.Runner, log)

	router := httpserver.NewRouter(authHandler, digestHandler, cfg.Auth.JWTSecret, a.Pool)
	log.Info("HTTP server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
