package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"kiosk/server/config"
	"kiosk/server/internal/feed"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := feed.Source{
		BaseURL:  cfg.Feed.BaseURL,
		Client:   cfg.Feed.Client,
		Property: cfg.Feed.Property,
		Suffix:   cfg.Feed.Suffix,
	}
	logger.WithField("feed_url", source.URL()).Info("Using property feed")

	k, err := newKiosk(ctx, cfg, feed.NewHTTPFetcher(source, cfg.FeedTimeout(), logger), nil, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize kiosk")
	}
	defer k.Close(logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: k.router(cfg.Server.AllowedOrigins),
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Server shutdown error")
		}
	}()

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Server failed")
	}
}
