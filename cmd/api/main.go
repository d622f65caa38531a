package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "go-parley/cmd/api/router/v1"
	"go-parley/internal/config"
	cacheAdapter "go-parley/internal/infrastructure/cache/adapter"
	"go-parley/internal/infrastructure/database"
	"go-parley/internal/infrastructure/logging"
	queueAdapter "go-parley/internal/infrastructure/queue/adapter"
	"go-parley/internal/pkg/auth"
	"go-parley/internal/pkg/chat/application/gateway"
	"go-parley/internal/pkg/chat/application/task"
	repoAdapter "go-parley/internal/pkg/chat/persistence/repository/adapter"
	repository "go-parley/internal/pkg/chat/persistence/repository/port"
	"go-parley/internal/pkg/chat/presentation/controller"
	httpHandler "go-parley/internal/pkg/chat/presentation/http"
	"go-parley/internal/pkg/notification"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found or could not be loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(ctx, cfg.DependencyTimeout)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL, database.PoolOptions{})
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	checks := map[string]controller.Pinger{"postgres": pool.Ping}
	var repo repository.ChatRepository = repoAdapter.NewPgChatRepository(pool)

	var (
		bridge  notification.Bridge
		workers *queueAdapter.AsynqServer
	)
	if cfg.RedisURL != "" {
		cacheCtx, cancel := context.WithTimeout(ctx, cfg.DependencyTimeout)
		cache, err := cacheAdapter.NewRedisCache(cacheCtx, cfg.RedisURL, "parley:")
		cancel()
		if err != nil {
			return err
		}
		defer cache.Close()
		checks["redis"] = cache.Ping
		repo = repoAdapter.NewCachedChatRepository(repo, cache, cfg.ParticipantCacheTTL, log)

		client, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		bridge = notification.NewQueueBridge(client)

		workers, err = queueAdapter.NewAsynqServer(queueAdapter.ServerConfig{
			RedisURL:    cfg.RedisURL,
			Concurrency: cfg.AsynqConcurrency,
			Queues:      cfg.AsynqQueues,
		}, log)
		if err != nil {
			return err
		}
		notification.RegisterHandlers(workers, notification.NewLogSink(log), log)
	} else {
		log.Warn("REDIS_URL not set: participant cache and notification queue disabled")
		direct := notification.NewDirectBridge(notification.NewLogSink(log), cfg.DependencyTimeout, log)
		defer direct.Close()
		bridge = direct
	}

	gw := gateway.New(repo, bridge, gateway.Config{
		DependencyTimeout: cfg.DependencyTimeout,
		TypingTTL:         cfg.TypingTTL,
		JoinAllLimit:      cfg.JoinAllLimit,
		PreviewLength:     cfg.PreviewLength,
	}, log)

	if workers != nil {
		task.RegisterSystemMessageTask(workers, gw.Pipeline(), log)
	}

	verifier := auth.NewJWTVerifier(auth.JWTConfig{SecretKey: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Leeway: 30 * time.Second})

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(log))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})
	r.GET("/healthz", controller.NewHealthController(checks, cfg.DependencyTimeout).Handle())

	v1.RegisterRoutes(r, httpHandler.Deps{
		Repo:     repo,
		Gateway:  gw,
		Verifier: verifier,
		Timeout:  cfg.DependencyTimeout,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if workers != nil {
		g.Go(func() error {
			log.Info("queue workers started", "queues", cfg.AsynqQueues)
			return workers.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// hijacked websocket connections are not tracked by the http server
		gw.Close()
		return err
	})

	return g.Wait()
}
