package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"dronewatch/internal/admin"
	"dronewatch/internal/auth"
	"dronewatch/internal/config"
	"dronewatch/internal/db"
	"dronewatch/internal/httpserver"
	"dronewatch/internal/logging"
	"dronewatch/internal/ratelimit"
	"dronewatch/internal/reports"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogFormat)

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer redisClient.Close()

	hasher := auth.NewHasher(bcrypt.DefaultCost)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	userStore := auth.NewStore(dbConn)
	if cfg.UsersPath != "" {
		if err := userStore.SeedFromFile(ctx, cfg.UsersPath, hasher); err != nil {
			log.Fatalf("seed users: %v", err)
		}
	}

	refreshStore := auth.NewRedisRefreshStore(redisClient)
	authSvc := auth.NewService(userStore, refreshStore, issuer, hasher)

	reportStore := reports.NewStore(dbConn)

	handler := httpserver.NewRouter(httpserver.RouterParams{
		Logger:         logger,
		DB:             dbConn,
		Issuer:         issuer,
		AuthHandler:    auth.NewHandler(authSvc, logger),
		ReportsHandler: reports.NewHandler(reportStore, logger, cfg.MaxUploadSize),
		AdminHandler:   admin.NewHandler(userStore, authSvc, reportStore, logger),
		AuthLimiter:    ratelimit.New(cfg.AuthRateLimit, cfg.AuthRateWindow),
		Metrics:        httpserver.NewMetrics(),
		CORSOrigins:    cfg.CORSOrigins,
	})

	server := httpserver.New(cfg.HTTPAddr, handler, logger, cfg.ReadTimeout, cfg.WriteTimeout)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
