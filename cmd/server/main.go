package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"neon-arcade/internal/config"
	"neon-arcade/internal/domain"
	"neon-arcade/internal/game"
	"neon-arcade/internal/game/memory"
	"neon-arcade/internal/game/simon"
	apphttp "neon-arcade/internal/http"
	"neon-arcade/internal/ratelimit"
	"neon-arcade/internal/repository/sqlite"
	"neon-arcade/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	lockRepo := sqlite.NewLockRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := sessionRepo.Init(ctx); err != nil {
		logger.Fatalf("init session repository: %v", err)
	}
	if err := lockRepo.Init(ctx); err != nil {
		logger.Fatalf("init lock repository: %v", err)
	}

	authService := service.NewAuthService(userRepo, sessionRepo, lockRepo, service.AuthConfig{
		JWTSecret:        []byte(cfg.Auth.JWTSecret),
		SessionTTL:       time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute,
		LockoutThreshold: cfg.Auth.LockoutThreshold,
		LockoutWindow:    time.Duration(cfg.Auth.LockoutSeconds) * time.Second,
	})
	statsService := service.NewStatsService(userRepo)

	games := game.NewManager(game.ManagerConfig{
		Simon:  simonConfig(cfg),
		Memory: memoryConfig(cfg),
		Logger: logger,
	}, statsService)

	limiter := ratelimit.New(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, statsService, games, limiter, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func simonConfig(cfg config.Config) simon.Config {
	sc := simon.DefaultConfig()
	apply := func(d domain.Difficulty, override config.SimonLevel) {
		lvl := sc.Levels[d]
		if override.Pads > 0 {
			lvl.Pads = override.Pads
		}
		if override.MaxRounds > 0 {
			lvl.MaxRounds = override.MaxRounds
		}
		sc.Levels[d] = lvl
	}
	apply(domain.DifficultyEasy, cfg.Game.Simon.Easy)
	apply(domain.DifficultyMedium, cfg.Game.Simon.Medium)
	apply(domain.DifficultyHard, cfg.Game.Simon.Hard)
	return sc
}

func memoryConfig(cfg config.Config) memory.Config {
	mc := memory.DefaultConfig()
	if cfg.Game.Memory.EasyPairs > 0 {
		mc.Pairs[domain.DifficultyEasy] = cfg.Game.Memory.EasyPairs
	}
	if cfg.Game.Memory.MediumPairs > 0 {
		mc.Pairs[domain.DifficultyMedium] = cfg.Game.Memory.MediumPairs
	}
	if cfg.Game.Memory.HardPairs > 0 {
		mc.Pairs[domain.DifficultyHard] = cfg.Game.Memory.HardPairs
	}
	if cfg.Game.Memory.Columns > 0 {
		mc.Columns = cfg.Game.Memory.Columns
	}
	if cfg.Game.Memory.MediumAt > 0 {
		mc.MediumAt = cfg.Game.Memory.MediumAt
	}
	if cfg.Game.Memory.HardAt > 0 {
		mc.HardAt = cfg.Game.Memory.HardAt
	}
	return mc
}
