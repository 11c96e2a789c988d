// Package classification Gatherly Service.
//
// Backend of the Gatherly community platform: events, groups, chat and recommendations
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//	Version: 0.1.0
//	License: TODO
//
//	Consumes:
//	  - application/json
//	  - multipart/form-data
//
//	Produces:
//	  - application/json
//
//	SecurityDefinitions:
//	  oauth2:
//	    type: oauth2
//	    tokenUrl: /auth/login
//	    refreshUrl: /auth/refresh
//	    flow: password
//
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/internal/log"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/server"
	"github.com/gatherly/gatherly/pkg/activity"
	"github.com/gatherly/gatherly/pkg/chat"
	"github.com/gatherly/gatherly/pkg/config"
	"github.com/gatherly/gatherly/pkg/event"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/gatherly/gatherly/pkg/health"
	"github.com/gatherly/gatherly/pkg/presence"
	"github.com/gatherly/gatherly/pkg/recommendation"
	"github.com/gatherly/gatherly/pkg/storage"
	"github.com/gatherly/gatherly/pkg/token"
	"github.com/gatherly/gatherly/pkg/upload"
	"github.com/gatherly/gatherly/pkg/user"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Failed to run gatherly", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	logger := slog.New(log.New(log.NewPrettyJSONHandler(os.Stdout, &log.PrettyJSONHandlerOptions{
		HandlerOptions: slog.HandlerOptions{
			AddSource: true,
			Level:     cfg.Level(),
		},
		PrettyPrint: !cfg.IsProduction(),
	})))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := storage.NewMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()

	redisClient, err := storage.NewRedis(cfg.Redis.Address())
	if err != nil {
		return err
	}
	defer redisClient.Close()

	minioClient, err := storage.NewMinio(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.UseSSL)
	if err != nil {
		return err
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket); err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(logger, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	userService := user.NewService(user.NewRepository(db))
	tokenService := token.NewService(
		logger,
		token.NewRepository(redisClient),
		cfg.Authentication.AccessTokenSecret,
		cfg.Authentication.AccessTokenExpirationSeconds,
		cfg.Authentication.RefreshTokenSecret,
		cfg.Authentication.RefreshTokenExpirationSeconds,
	)
	authentication := middleware.NewAuthentication(logger, cfg.Authentication.AccessTokenSecret, userService)

	eventService := event.NewService(event.NewRepository(db), userService, publisher)
	groupService := group.NewService(group.NewRepository(db), userService, publisher)
	recommendationService := recommendation.NewService(recommendation.NewRepository(db))
	uploadService := upload.NewService(minioClient, cfg.MinIO.Bucket, cfg.UploadMaxBytes, cfg.MinIO.ObjectURL)

	registry := presence.NewRegistry()
	defer registry.Close()
	hub := chat.NewHub(logger)
	defer hub.Close()
	relay := chat.NewRelay(logger, chat.NewRepository(db), registry, hub, userService, publisher)

	healthHandler := health.NewHandler(logger, map[string]health.Check{
		"mongodb": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		},
		"redis": func(context.Context) error {
			return redisClient.Ping().Err()
		},
	})

	r, router := server.GetEngine(logger, cfg.BasePath, cfg.AllowedOrigins)
	health.Routes(router, healthHandler)
	user.Routes(router, authentication, user.NewHandler(userService, tokenService))
	recommendation.Routes(router, authentication, recommendation.NewHandler(recommendationService))
	event.Routes(router, authentication, event.NewHandler(eventService))
	group.Routes(router, authentication, group.NewHandler(groupService))
	chat.Routes(router, authentication, chat.NewHandler(relay), chat.NewSocketHandler(logger, hub, relay, registry, cfg.AllowedOrigins))
	upload.Routes(router, authentication, upload.NewHandler(uploadService))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "address", srv.Addr, "basePath", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// hijacked websocket connections aren't closed by Shutdown
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newPublisher publishes activity to RabbitMQ if a broker is configured.
func newPublisher(logger *slog.Logger, cfg config.Config) (activity.Publisher, func(), error) {
	if !cfg.RabbitMq.Enabled() {
		logger.Info("RabbitMQ isn't configured, activity won't be published")
		return activity.NewNoopPublisher(), func() {}, nil
	}

	publisher, err := activity.NewAMQPPublisher(logger, cfg.RabbitMq.GetUrl(), cfg.RabbitMq.Exchange)
	if err != nil {
		return nil, nil, err
	}

	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close activity publisher", "error", err)
		}
	}, nil
}
