package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/homesite/internal/cache"
	"github.com/homesite/internal/config"
	"github.com/homesite/internal/db"
	"github.com/homesite/internal/handler"
	"github.com/homesite/internal/logging"
	"github.com/homesite/internal/router"
	"github.com/homesite/internal/tasks"
)

func main() {
	// .env 不存在时直接使用环境变量
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.InitLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	logger := logging.GetLogger()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath, logging.NewGormLogger(cfg.Logging.Level))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		logger.Fatal("failed to ensure admin user", zap.Error(err))
	}

	redisCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, comment rate limiting falls back to database", zap.Error(err))
		redisCache = nil
	}
	defer redisCache.Close()

	api := handler.NewAPI(gdb, handler.Options{
		UploadDir:         cfg.UploadDir,
		UploadURL:         cfg.UploadURLPath,
		JWTSecret:         cfg.JWTSecret,
		JWTTTL:            cfg.JWTTTL,
		Cache:             redisCache,
		CommentRateLimit:  cfg.Comments.RateLimit,
		CommentRateWindow: cfg.Comments.RateWindow,
	})

	var scheduler *tasks.Scheduler
	if cfg.SchedulerEnabled {
		scheduler = tasks.NewScheduler(api.Blog())
		if err := scheduler.Start(); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	engine, err := router.SetupRouter(cfg, api)
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           corsHandler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
