package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LeonCort/jamfor-bostader-sub000/config"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/database"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/queue"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/routing"
)

// ErrTargetGone is returned when a task's residence or place no longer
// exists for its owner.
var ErrTargetGone = errors.New("residence or place no longer exists")

// Store is the persistence the processor needs. UpsertCommute must return
// database.ErrNotFound, and write nothing, when either parent is gone.
type Store interface {
	GetResidence(ctx context.Context, ownerID, id string) (*models.Residence, error)
	GetPlace(ctx context.Context, ownerID, id string) (*models.Place, error)
	UpsertCommute(ctx context.Context, r *models.CommuteResult) (bool, error)
}

// CommuteProcessor fetches travel times for queued tasks and stores them.
type CommuteProcessor struct {
	store    Store
	provider routing.Provider
	logger   *logrus.Logger
	config   *config.Config
	queue    *queue.CommuteQueue
	now      func() time.Time
}

// NewCommuteProcessor creates a new commute processor instance
func NewCommuteProcessor(store Store, provider routing.Provider, q *queue.CommuteQueue, cfg *config.Config, logger *logrus.Logger) *CommuteProcessor {
	return &CommuteProcessor{
		store:    store,
		provider: provider,
		queue:    q,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start subscribes to the queue and launches the worker pool.
func (p *CommuteProcessor) Start(ctx context.Context) {
	p.queue.Subscribe(p.process)
	p.queue.Start(ctx, p.config.Commute.Workers)
}

// Stop closes the queue and waits for in-flight tasks.
func (p *CommuteProcessor) Stop() {
	p.queue.Close()
}

// process logs task failures at the level their kind deserves. A failed
// task never reaches the mutation that scheduled it.
func (p *CommuteProcessor) process(ctx context.Context, task models.CommuteTask) error {
	err := p.handle(ctx, task)
	if err == nil {
		return nil
	}

	entry := p.taskLogger(task).WithError(err)
	switch {
	case errors.Is(err, routing.ErrMissingCredential):
		entry.Error("Routing credential missing, commute task aborted")
	case errors.Is(err, ErrTargetGone):
		entry.Warn("Residence or place not found, commute task dropped")
	case errors.Is(err, context.Canceled):
		entry.Debug("Commute task cancelled")
	default:
		entry.Warn("Commute fetch failed, keeping previous value")
	}
	return nil
}

// handle runs one task: it checks the residence and place still exist, asks
// the routing provider and upserts the result. The upsert re-checks both, so
// a delete that lands while the route is in flight still wins.
func (p *CommuteProcessor) handle(ctx context.Context, task models.CommuteTask) error {
	if _, err := p.store.GetResidence(ctx, task.OwnerID, task.ResidenceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTargetGone
		}
		return fmt.Errorf("failed to look up residence: %w", err)
	}
	if _, err := p.store.GetPlace(ctx, task.OwnerID, task.PlaceID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTargetGone
		}
		return fmt.Errorf("failed to look up place: %w", err)
	}

	timeout := p.config.Routing.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	routeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := p.provider.Route(routeCtx, routing.Request{
		Origin:      task.Origin,
		Destination: task.Destination,
		Mode:        task.Mode,
		ArriveBy:    task.ArriveBy,
		DepartAt:    task.DepartAt,
	})
	if err != nil {
		return fmt.Errorf("failed to route task %s: %w", task.ID, err)
	}
	if res == nil {
		p.taskLogger(task).Info("No commute result for task")
		return nil
	}

	now := p.now().UTC()
	requested := task.RequestedAt
	if requested.IsZero() {
		requested = now
	}

	written, err := p.store.UpsertCommute(ctx, &models.CommuteResult{
		OwnerID:     task.OwnerID,
		ResidenceID: task.ResidenceID,
		PlaceID:     task.PlaceID,
		Mode:        task.Mode,
		Minutes:     res.Minutes,
		Estimated:   res.Estimated,
		RequestedAt: requested,
		UpdatedAt:   now,
	})
	if errors.Is(err, database.ErrNotFound) {
		return ErrTargetGone
	}
	if err != nil {
		return fmt.Errorf("failed to store commute result: %w", err)
	}

	source := "provider"
	if res.Estimated {
		source = "estimate"
	}
	entry := p.taskLogger(task).WithFields(logrus.Fields{
		"minutes": res.Minutes,
		"source":  source,
	})
	if written {
		entry.Info("Stored commute result")
	} else {
		entry.Debug("Kept newer commute result")
	}
	return nil
}

func (p *CommuteProcessor) taskLogger(task models.CommuteTask) *logrus.Entry {
	return p.logger.WithFields(logrus.Fields{
		"task_id":      task.ID,
		"owner_id":     task.OwnerID,
		"residence_id": task.ResidenceID,
		"place_id":     task.PlaceID,
		"mode":         task.Mode,
	})
}
