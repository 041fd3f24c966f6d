package api

import (
	"errors"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"kiosk/server/config"
)

var ErrUnknownView = errors.New("unknown view")

// Navigation tracks the view the kiosk is showing.
type Navigation struct {
	mu      sync.Mutex
	current config.View
	landing config.View
	logger  *logrus.Logger
}

// NewNavigation starts on the landing view. An unknown landing path falls
// back to the first supported view.
func NewNavigation(landingPath string, logger *logrus.Logger) *Navigation {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	landing := config.SupportedViews[0]
	if v := config.GetViewByPath(landingPath); v != nil {
		landing = *v
	}
	return &Navigation{current: landing, landing: landing, logger: logger}
}

// Navigate switches to the view at path.
func (n *Navigation) Navigate(path string) (config.View, error) {
	view := config.GetViewByPath(path)
	if view == nil {
		return config.View{}, ErrUnknownView
	}
	n.mu.Lock()
	n.current = *view
	n.mu.Unlock()
	return *view, nil
}

// NavigateDefault returns to the landing view. It is called when a session expires.
func (n *Navigation) NavigateDefault() {
	n.mu.Lock()
	n.current = n.landing
	n.mu.Unlock()
	n.logger.WithField("view", n.landing.Path).Info("Returned to landing view")
}

// Current returns the view being shown.
func (n *Navigation) Current() config.View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
