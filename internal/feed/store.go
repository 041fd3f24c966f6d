package feed

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk/server/internal/models"
)

// DefaultErrorMessage is reported when a failed fetch has no message of its own.
const DefaultErrorMessage = "Failed to fetch property data"

var errNoFeed = errors.New(DefaultErrorMessage)

// State is the feed lifecycle as seen by the front end.
type State struct {
	Data        *models.RawFeed `json:"-"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
	Initialized bool            `json:"initialized"`
	LoadedAt    time.Time       `json:"loaded_at,omitempty"`
}

// Store owns the feed lifecycle and guarantees at most one fetch until Reset.
type Store struct {
	mu         sync.Mutex
	state      State
	generation uint64
	fetcher    Fetcher
	logger     *logrus.Logger
	onLoad     []func(*models.RawFeed)
}

func NewStore(fetcher Fetcher, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Store{fetcher: fetcher, logger: logger}
}

// OnLoad registers fn to receive every successfully fetched feed.
func (s *Store) OnLoad(fn func(*models.RawFeed)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoad = append(s.onLoad, fn)
}

// RequestFetchOnce fetches the feed unless it was already fetched or a fetch
// is in flight. It blocks only the caller that issues the fetch and reports
// whether this call issued it.
func (s *Store) RequestFetchOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.state.Initialized || s.state.Loading {
		s.mu.Unlock()
		return false
	}
	s.state.Loading = true
	s.state.Error = ""
	gen := s.generation
	s.mu.Unlock()

	feed, err := s.fetcher.FetchFeed(ctx)
	if err == nil && feed == nil {
		err = errNoFeed
	}

	s.mu.Lock()
	if gen != s.generation {
		// Reset while in flight; the result belongs to a dropped lifecycle.
		s.mu.Unlock()
		s.logger.Info("Discarding feed fetched before reset")
		return true
	}
	s.state.Loading = false
	s.state.Initialized = true
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = DefaultErrorMessage
		}
		s.state.Error = msg
		s.mu.Unlock()
		s.logger.WithError(err).Error("Failed to fetch property data")
		return true
	}
	s.state.Data = feed
	s.state.Error = ""
	s.state.LoadedAt = time.Now()
	hooks := append([]func(*models.RawFeed){}, s.onLoad...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(feed)
	}
	return true
}

// State returns a copy of the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset clears the lifecycle so the next RequestFetchOnce fetches again.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = State{}
	s.logger.Info("Property data reset")
}
