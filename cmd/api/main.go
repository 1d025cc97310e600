// @title                       Task API
// @version                     1.0
// @description                 Task tracking API with bearer token authentication and role based access control.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/99minutos/task-api/internal/api"
	"github.com/99minutos/task-api/internal/core/access"
	"github.com/99minutos/task-api/internal/core/ports"
	"github.com/99minutos/task-api/internal/core/service"
	"github.com/99minutos/task-api/internal/infrastructure/cache"
	"github.com/99minutos/task-api/internal/infrastructure/config"
	mongodb "github.com/99minutos/task-api/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/task-api/internal/infrastructure/db/redis"
	"github.com/99minutos/task-api/internal/infrastructure/http/handlers"
	"github.com/99minutos/task-api/internal/infrastructure/queue"
	"github.com/99minutos/task-api/internal/infrastructure/security"
	"github.com/99minutos/task-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		l := logger.Get()
		l.Error().Err(err).Msg("task-api stopped with error")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; fall back to defaults.
		logger.Init(logger.Options{Service: "task-api"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "task-api",
	})
	if cfg.WeakSecret() {
		log.Warn().Int("min_bytes", config.MinProductionSecretLen).Msg("JWT_SECRET is shorter than recommended")
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	identityRepo := mongodb.NewIdentityRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)
	if err := mongodb.EnsureIndexes(ctx, identityRepo, taskRepo); err != nil {
		return err
	}

	var identities ports.AuthRepository = identityRepo
	if cfg.Auth.IdentityCacheTTL > 0 {
		identities = cache.NewIdentityCache(identityRepo, cfg.Auth.IdentityCacheSize, cfg.Auth.IdentityCacheTTL)
	}

	// --- Security ---
	// The pool outlives ctx so requests drained during shutdown can still hash.
	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()
	hashPool := queue.NewHashPool(cfg.Auth.HashWorkers, security.NewBcryptHasher(cfg.Auth.BcryptCost), logger.Component("hash-pool"))
	hashPool.Start(poolCtx)

	codec, err := security.NewJWTCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL())
	if err != nil {
		return err
	}

	// --- Services ---
	verifier := service.NewCredentialVerifier(identityRepo, hashPool)
	throttle := redisdb.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout)
	authService := service.NewAuthService(identities, verifier, hashPool, codec, logger.Component("auth"), service.WithLoginThrottle(throttle))
	taskService := service.NewTaskService(taskRepo)

	router := api.NewRouter(api.RouterConfig{
		Log:         log,
		AuthService: authService,
		TaskService: taskService,
		Identities:  identities,
		Codec:       codec,
		Policy:      access.MustPolicy(access.DefaultRules()...),
		ReadinessChecks: map[string]handlers.Check{
			"mongo": handlers.MongoCheck(db),
			"redis": handlers.RedisCheck(rdb),
		},
		EnableMetrics: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := service.SeedAdmin(gctx, identities, hashPool, cfg.Admin.Email, cfg.Admin.Password, logger.Component("seeder")); err != nil {
			return err
		}
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("task-api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
