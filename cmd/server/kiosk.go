package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"kiosk/server/config"
	"kiosk/server/internal/api"
	"kiosk/server/internal/feed"
	"kiosk/server/internal/inventory"
	"kiosk/server/internal/processor"
	"kiosk/server/internal/queue"
	"kiosk/server/internal/session"
)

// kiosk holds the wired collaborators behind the HTTP API.
type kiosk struct {
	inventory   *inventory.Inventory
	processor   *processor.Processor
	store       *feed.Store
	navigation  *api.Navigation
	controller  *session.Controller
	events      *queue.ActivityQueue
	unsubscribe func()
	handler     *api.Handler
}

// newKiosk wires the data flow: interaction events drive the session
// controller, the first activation fetches the feed once, and every
// successful load is processed into a published snapshot.
func newKiosk(ctx context.Context, cfg *config.Config, fetcher feed.Fetcher, clock session.Clock, logger *logrus.Logger) (*kiosk, error) {
	inv, err := inventory.Open(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inventory: %w", err)
	}

	proc := processor.NewProcessor(inv, cfg, logger)
	store := feed.NewStore(fetcher, logger)
	store.OnLoad(proc.HandleLoad)

	navigation := api.NewNavigation(cfg.Session.LandingView, logger)

	controller := session.NewController(session.Options{
		Timeout:   cfg.Session.IdleTimeout,
		Clock:     clock,
		Navigator: navigation,
		Logger:    logger,
	})

	// The feed is fetched on the first session, not at startup.
	controller.OnActivate(func(sessionID string) {
		go store.RequestFetchOnce(ctx)
	})

	events := queue.NewActivityQueue(cfg.Session.EventBuffer, logger)
	unsubscribe := events.Subscribe(controller.HandleActivity)
	events.Start()

	handler := api.NewHandler(api.Dependencies{
		Feed:       store,
		Snapshots:  proc,
		Inventory:  inv,
		Events:     events,
		Session:    controller,
		Navigation: navigation,
	}, logger)

	return &kiosk{
		inventory:   inv,
		processor:   proc,
		store:       store,
		navigation:  navigation,
		controller:  controller,
		events:      events,
		unsubscribe: unsubscribe,
		handler:     handler,
	}, nil
}

func (k *kiosk) router(allowedOrigins []string) *gin.Engine {
	return api.NewRouter(allowedOrigins, k.handler)
}

// Close releases the listener registration, stops the session timer and
// drains the queue before closing the inventory.
func (k *kiosk) Close(logger *logrus.Logger) {
	k.unsubscribe()
	if err := k.events.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close activity queue")
	}
	k.controller.Stop()
	if err := k.inventory.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close inventory")
	}
}
