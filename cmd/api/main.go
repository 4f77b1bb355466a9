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
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/auth"
	"github.com/Rocknpaper/Blog-site-backend/internal/cache"
	"github.com/Rocknpaper/Blog-site-backend/internal/config"
	"github.com/Rocknpaper/Blog-site-backend/internal/database"
	"github.com/Rocknpaper/Blog-site-backend/internal/handlers"
	"github.com/Rocknpaper/Blog-site-backend/internal/logging"
	"github.com/Rocknpaper/Blog-site-backend/internal/middleware"
	"github.com/Rocknpaper/Blog-site-backend/internal/notify"
	"github.com/Rocknpaper/Blog-site-backend/internal/queue"
	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
	"github.com/Rocknpaper/Blog-site-backend/internal/repository"
	"github.com/Rocknpaper/Blog-site-backend/internal/server"
	"github.com/Rocknpaper/Blog-site-backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "blog api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.Init(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBName, log.Named("mongo"))
	if err != nil {
		return err
	}
	defer func() { _ = docs.Close(context.Background()) }()

	accounts, err := database.New(cfg.PostgresConnString(), log.Named("postgres"))
	if err != nil {
		return err
	}
	defer func() { _ = accounts.Close() }()

	var limiter middleware.Limiter
	if cfg.RedisEnabled() {
		rdb, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, requests are not rate limited", zap.Error(err))
		} else {
			log.Info("redis connected")
			defer func() { _ = rdb.Close() }()
			limiter = rdb
		}
	}

	var avatars handlers.AvatarStore
	if cfg.UploadEnabled() {
		files, err := storage.NewFileStorage(ctx, cfg.MinioEndpoint, cfg.MinioPublicURL,
			cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSecure)
		if err != nil {
			return fmt.Errorf("object storage: %w", err)
		}
		avatars = files
	}

	var channels []notify.Channel
	if cfg.SMTPEnabled() {
		channels = append(channels, notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom))
	}
	if cfg.SMSEnabled() {
		channels = append(channels, notify.NewSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom))
	}
	notifier := notify.NewNotifier(log.Named("notify"), channels...)

	var recovery notify.Dispatcher = notifier
	if cfg.QueueEnabled() {
		rabbit, err := queue.Dial(cfg.AMQPURL, notifier, log.Named("queue"))
		if err != nil {
			log.Warn("rabbitmq unavailable, recovery codes are sent inline", zap.Error(err))
		} else {
			log.Info("rabbitmq connected")
			defer rabbit.Close()
			recovery = rabbit
			go rabbit.Consume(ctx, notifier)
		}
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	h := handlers.NewHandler(handlers.Deps{
		Posts:               repository.NewPostRepository(docs),
		Comments:            repository.NewCommentRepository(docs),
		Users:               repository.NewUserRepository(accounts.GetDB()),
		Reactions:           reaction.NewLedger(docs),
		Avatars:             avatars,
		Tokens:              tokens,
		Passwords:           auth.NewCredentials(cfg.BcryptCost),
		Recovery:            recovery,
		RecoveryCodeTTL:     cfg.RecoveryCodeTTL,
		RecoveryMaxAttempts: cfg.RecoveryMaxAttempts,
		Log:                 log,
	})

	srv := server.New(server.Options{
		Addr:              cfg.Addr(),
		Handler:           h,
		Tokens:            tokens,
		Limiter:           limiter,
		ReactionRateLimit: cfg.ReactionRateLimit,
		ReactionWindow:    cfg.ReactionRateWindow,
		RecoveryRateLimit: cfg.RecoveryRateLimit,
		RecoveryWindow:    cfg.RecoveryRateWindow,
		Health: map[string]server.HealthChecker{
			"mongo":    docs,
			"postgres": accounts,
		},
		Log: log,
	}).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
