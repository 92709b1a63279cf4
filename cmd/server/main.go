package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/markethub/backend/internal/config"
	"github.com/markethub/backend/internal/es"
	"github.com/markethub/backend/internal/handlers"
	"github.com/markethub/backend/internal/logging"
	loggingmw "github.com/markethub/backend/internal/middleware/logging"
	"github.com/markethub/backend/internal/mykafka"
	"github.com/markethub/backend/internal/service/token"
	httpserver "github.com/markethub/backend/internal/transport/http"
	"github.com/markethub/backend/internal/validate"
	"github.com/markethub/backend/pkg/db"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)
	slog.SetDefault(logger)

	database, err := db.Open(context.Background(), cfg)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var brokers []string
	if cfg.KAFKA_ADDRESS != "" {
		brokers = strings.Split(cfg.KAFKA_ADDRESS, ",")
	}
	prod := mykafka.NewProducer(brokers)

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	tokens := &token.TokenService{
		DB:            database,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validate.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))
	if len(cfg.CORS_ORIGINS) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORS_ORIGINS,
			AllowCredentials: true,
		}))
	}

	deps := httpserver.Deps{
		DB:     database,
		Tokens: tokens,
		AuthHandler: &handlers.AuthHandler{
			DB:         database,
			Tokens:     tokens,
			Producer:   prod,
			AdminEmail: cfg.ADMIN_EMAIL,
		},
		ProductHandler: &handlers.ProductHandler{DB: database, Producer: prod, ES: esClient, ESIndex: cfg.ES_INDEX},
		CartHandler:    &handlers.CartHandler{DB: database, Producer: prod},
		OrderHandler:   &handlers.OrderHandler{DB: database, Producer: prod},
		SearchHandler:  handlers.NewSearchHandler(esClient, cfg.ES_INDEX),
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", cfg.HTTP_PORT)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
