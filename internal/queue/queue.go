package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler processes a single commute task.
type Handler func(ctx context.Context, task models.CommuteTask) error

// CommuteQueue is a bounded in-memory queue of commute tasks consumed by a
// fixed pool of workers.
type CommuteQueue struct {
	items    chan models.CommuteTask
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []Handler
	workers  sync.WaitGroup

	pendingMu sync.Mutex
	idle      *sync.Cond
	pending   int
	stopped   bool
}

// NewCommuteQueue creates a new commute queue with the specified buffer size
func NewCommuteQueue(bufferSize int, logger *logrus.Logger) *CommuteQueue {
	q := &CommuteQueue{
		items:    make(chan models.CommuteTask, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]Handler, 0),
	}
	q.idle = sync.NewCond(&q.pendingMu)
	return q
}

// Push adds a task to the queue without blocking.
func (q *CommuteQueue) Push(task models.CommuteTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	q.pendingMu.Lock()
	q.pending++
	q.pendingMu.Unlock()

	select {
	case q.items <- task:
		q.logger.WithFields(logrus.Fields{
			"task_id":      task.ID,
			"residence_id": task.ResidenceID,
			"place_id":     task.PlaceID,
		}).Debug("Pushed task to queue")
		return nil
	default:
		q.finish()
		return ErrQueueFull
	}
}

// Subscribe adds a handler that will be called for each task
func (q *CommuteQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches workers goroutines that consume the queue until Close.
func (q *CommuteQueue) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.workers.Add(1)
		go q.process(ctx)
	}
}

func (q *CommuteQueue) process(ctx context.Context) {
	defer q.workers.Done()
	for {
		select {
		case <-q.done:
			return
		case task := <-q.items:
			q.dispatch(ctx, task)
			q.finish()
		}
	}
}

// dispatch sends the task to all subscribed handlers
func (q *CommuteQueue) dispatch(ctx context.Context, task models.CommuteTask) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, task); err != nil {
			q.logger.WithError(err).WithField("task_id", task.ID).Error("Handler failed to process task")
		}
	}
}

func (q *CommuteQueue) finish() {
	q.pendingMu.Lock()
	q.pending--
	if q.pending <= 0 {
		q.idle.Broadcast()
	}
	q.pendingMu.Unlock()
}

// Drain blocks until every accepted task has been handled or the queue is
// closed.
func (q *CommuteQueue) Drain() {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	for q.pending > 0 && !q.stopped {
		q.idle.Wait()
	}
}

// Close stops accepting tasks and waits for running handlers to return.
// Tasks still buffered are dropped.
func (q *CommuteQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.pendingMu.Lock()
	q.stopped = true
	q.idle.Broadcast()
	q.pendingMu.Unlock()

	q.workers.Wait()
	return nil
}

// Len returns the current number of buffered tasks
func (q *CommuteQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *CommuteQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
