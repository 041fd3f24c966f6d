package session

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kiosk/server/internal/models"
)

// DefaultTimeout is the inactivity window after which a session ends.
const DefaultTimeout = 10 * time.Minute

var (
	ErrUnknownEvent = errors.New("unknown activity event")
	ErrStopped      = errors.New("session controller is stopped")
)

// State is the kiosk session state.
type State int

const (
	Idle State = iota
	Active
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Navigator is told to return to the landing view when a session expires.
type Navigator interface {
	NavigateDefault()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateDefault() { f() }

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State        State     `json:"state"`
	SessionID    string    `json:"session_id,omitempty"`
	StartedAt    time.Time `json:"started_at,omitempty"`
	LastActivity time.Time `json:"last_activity,omitempty"`
}

// Options configures a Controller. Zero values get defaults.
type Options struct {
	Timeout   time.Duration
	Clock     Clock
	Navigator Navigator
	Logger    *logrus.Logger
}

// Controller is the idle/active state machine. At most one inactivity timer
// is live at a time; every reset supersedes the previous one.
type Controller struct {
	mu         sync.Mutex
	clock      Clock
	timeout    time.Duration
	navigator  Navigator
	logger     *logrus.Logger
	onActivate []func(sessionID string)

	state        State
	sessionID    string
	startedAt    time.Time
	lastActivity time.Time
	timer        Timer
	generation   uint64
	stopped      bool
}

// NewController creates a controller in the Idle state.
func NewController(opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Navigator == nil {
		opts.Navigator = NavigatorFunc(func() {})
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetFormatter(&logrus.JSONFormatter{})
		opts.Logger.SetOutput(os.Stdout)
	}

	return &Controller{
		clock:     opts.Clock,
		timeout:   opts.Timeout,
		navigator: opts.Navigator,
		logger:    opts.Logger,
		state:     Idle,
	}
}

// OnActivate registers fn to run on every Idle to Active transition.
// Hooks run on the caller's goroutine after the transition is committed.
func (c *Controller) OnActivate(fn func(sessionID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onActivate = append(c.onActivate, fn)
}

// HandleActivity applies one qualifying interaction: it activates an idle
// session and restarts the inactivity timer.
func (c *Controller) HandleActivity(ev models.ActivityEvent) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}

	now := c.clock.Now()
	activated := c.state == Idle
	if activated {
		c.state = Active
		c.sessionID = uuid.NewString()
		c.startedAt = now
	}
	c.lastActivity = now
	c.resetTimerLocked()

	sessionID := c.sessionID
	var hooks []func(string)
	if activated {
		hooks = append(hooks, c.onActivate...)
	}
	c.mu.Unlock()

	if activated {
		c.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"event":      ev.Kind,
		}).Info("Session started")
		for _, fn := range hooks {
			fn(sessionID)
		}
	}
	return nil
}

// resetTimerLocked cancels the pending expiry and schedules a new one.
// c.mu must be held.
func (c *Controller) resetTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.generation++
	gen := c.generation
	c.timer = c.clock.AfterFunc(c.timeout, func() { c.expire(gen) })
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	// A superseded timer may still fire if Stop lost the race.
	if c.stopped || c.state != Active || gen != c.generation {
		c.mu.Unlock()
		return
	}
	sessionID := c.sessionID
	startedAt := c.startedAt
	c.state = Idle
	c.sessionID = ""
	c.timer = nil
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"duration":   c.clock.Now().Sub(startedAt).String(),
	}).Info("Session expired after inactivity")
	c.navigator.NavigateDefault()
}

// State returns a snapshot of the current session.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:        c.state,
		SessionID:    c.sessionID,
		StartedAt:    c.startedAt,
		LastActivity: c.lastActivity,
	}
}

// Stop cancels any pending timer and returns the controller to Idle.
// Later activity is rejected with ErrStopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	c.state = Idle
	c.sessionID = ""
	c.stopped = true
}
