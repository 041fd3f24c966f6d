package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"kiosk/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

type subscription struct {
	id      int
	handler func(models.ActivityEvent) error
}

// ActivityQueue delivers interaction events to subscribers one at a time,
// in the order they were pushed.
type ActivityQueue struct {
	items   chan models.ActivityEvent
	done    chan struct{}
	stopped chan struct{}
	maxSize int
	closed  bool
	started bool
	mu      sync.RWMutex
	logger  *logrus.Logger
	subs    []subscription
	nextID  int
}

// NewActivityQueue creates a new activity queue with the specified buffer size
func NewActivityQueue(bufferSize int, logger *logrus.Logger) *ActivityQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &ActivityQueue{
		items:   make(chan models.ActivityEvent, bufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds an event to the queue
func (q *ActivityQueue) Push(ev models.ActivityEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send so a stalled consumer never blocks request handlers
	select {
	case q.items <- ev:
		q.logger.WithField("event", ev.Kind).Debug("Pushed activity to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers a handler and returns the function that removes it.
func (q *ActivityQueue) Subscribe(handler func(models.ActivityEvent) error) (unsubscribe func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	id := q.nextID
	q.subs = append(q.subs, subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			for i, s := range q.subs {
				if s.id == id {
					q.subs = append(q.subs[:i:i], q.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Start begins processing items in the queue
func (q *ActivityQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

// process handles the queue processing loop
func (q *ActivityQueue) process() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			return
		case ev := <-q.items:
			q.dispatch(ev)
		}
	}
}

// dispatch sends the event to all subscribed handlers
func (q *ActivityQueue) dispatch(ev models.ActivityEvent) {
	q.mu.RLock()
	subs := q.subs
	q.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler(ev); err != nil {
			q.logger.WithError(err).WithField("event", ev.Kind).Error("Handler failed to process activity")
		}
	}
}

// Close stops the queue and waits for the in-flight event to finish.
func (q *ActivityQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.done)
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the current number of events in the queue
func (q *ActivityQueue) Len() int {
	return len(q.items)
}

