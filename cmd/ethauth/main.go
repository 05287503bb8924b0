package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/layer-3/ethauth/adapters/events"
	"github.com/layer-3/ethauth/adapters/registry"
	"github.com/layer-3/ethauth/adapters/store"
	"github.com/layer-3/ethauth/adapters/tokenizer"
	"github.com/layer-3/ethauth/internal/config"
	"github.com/layer-3/ethauth/ports"
	"github.com/layer-3/ethauth/service"
	transport "github.com/layer-3/ethauth/transport/http"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("starting server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("domain", cfg.Auth.Domain),
		zap.String("session_backend", cfg.Session.Backend),
	)

	// Redis is shared by the session store and the event stream
	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = initRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	apps, err := initRegistry(cfg.Registry)
	if err != nil {
		logger.Fatal("failed to load app registry", zap.Error(err))
	}
	logger.Info("app registry loaded", zap.Strings("apps", apps.IDs()))

	keyPEM, err := cfg.Auth.PrivateKeyPEM()
	if err != nil {
		logger.Fatal("failed to load signing key", zap.Error(err))
	}
	signKey, err := tokenizer.ParsePrivateKeyPEM(keyPEM)
	if err != nil {
		logger.Fatal("failed to parse signing key", zap.Error(err))
	}
	jwtTokenizer, err := tokenizer.NewJWTTokenizer(signKey, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal("failed to create tokenizer", zap.Error(err))
	}
	publicKeyPEM, err := jwtTokenizer.PublicKeyPEM()
	if err != nil {
		logger.Fatal("failed to encode public key", zap.Error(err))
	}

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()

	var sessions ports.SessionStore
	if cfg.Session.Backend == config.BackendRedis {
		sessions = store.NewRedisStore(rdb, cfg.Session.TTL, logger)
	} else {
		memory := store.NewMemoryStore(cfg.Session.TTL)
		go memory.RunJanitor(janitorCtx, cfg.Session.SweepInterval)
		sessions = memory
	}

	var eventPub ports.EventPublisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: rdb,
			},
			events.NewZapLogger(logger),
		)
		if err != nil {
			logger.Fatal("failed to create redis publisher", zap.Error(err))
		}
		defer publisher.Close()
		eventPub = events.NewWatermillPublisher(publisher)
	}

	authService := service.NewAuthService(service.Config{
		Domain:   cfg.Auth.Domain,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}, sessions, apps, jwtTokenizer, eventPub, logger)

	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	// A nil *redis.Client must not reach the handler as a non-nil interface
	health := transport.NewHealthHandler(nil)
	if rdb != nil {
		health = transport.NewHealthHandler(rdb)
	}

	router := transport.SetupRouter(authService, health, transport.RouterConfig{
		Cookie: transport.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Server.Production(),
		},
		PublicKeyPEM: publicKeyPEM,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.Server.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopJanitor()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENVIRONMENT") == config.EnvProduction {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

func initRegistry(cfg config.RegistryConfig) (*registry.Static, error) {
	if cfg.DSN == "" {
		return registry.LoadFile(cfg.File)
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return registry.LoadDB(ctx, db)
}
