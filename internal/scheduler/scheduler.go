package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LeonCort/jamfor-bostader-sub000/config"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// Store is the read side the scheduler needs to find residence/place pairs.
type Store interface {
	ListOwners(ctx context.Context) ([]string, error)
	ListResidences(ctx context.Context, ownerID string) ([]models.Residence, error)
	ListPlaces(ctx context.Context, ownerID string) ([]models.Place, error)
	ListCommutes(ctx context.Context, ownerID, residenceID string) ([]models.CommuteResult, error)
}

// Enqueuer accepts commute tasks without blocking.
type Enqueuer interface {
	Push(task models.CommuteTask) error
}

// CommuteScheduler turns residence and place mutations into routing tasks
// and periodically re-enqueues missing or stale commute results.
type CommuteScheduler struct {
	store    Store
	queue    Enqueuer
	logger   *logrus.Logger
	interval time.Duration
	ttl      time.Duration
	mode     models.TravelMode
	// estimatesOnly is set when the provider never returns real durations;
	// real rows then count as fresh since an estimate cannot replace them.
	estimatesOnly bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	jobMutex sync.Mutex // one resync at a time
	now      func() time.Time
}

// NewCommuteScheduler creates a new scheduler
func NewCommuteScheduler(store Store, q Enqueuer, cfg *config.Config, logger *logrus.Logger) *CommuteScheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &CommuteScheduler{
		store:    store,
		queue:    q,
		logger:   logger,
		interval: cfg.Commute.RefreshInterval,
		ttl:      cfg.Commute.CacheTTL,
		mode:     models.ModeTransit,
		stopChan: make(chan struct{}),
		now:      time.Now,

		estimatesOnly: cfg.Routing.Mock,
	}
}

// ResidenceOriginChanged reports whether saving after over before moves the
// trip start. A new residence always counts as changed.
func ResidenceOriginChanged(before, after *models.Residence) bool {
	if after == nil {
		return false
	}
	return before == nil || before.Origin() != after.Origin()
}

// PlaceDestinationChanged reports whether saving after over before changes
// the trip end or its arrive-by constraint. Leave-at describes the trip back
// and does not affect the residence-to-place commute.
func PlaceDestinationChanged(before, after *models.Place) bool {
	if after == nil {
		return false
	}
	return before == nil ||
		before.Destination() != after.Destination() ||
		before.ArriveBy != after.ArriveBy
}

// ResidenceSaved enqueues one task per place of the residence's owner and
// returns how many were accepted. Failures are logged, never returned.
func (s *CommuteScheduler) ResidenceSaved(ctx context.Context, r *models.Residence) int {
	places, err := s.store.ListPlaces(ctx, r.OwnerID)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", r.OwnerID).Error("Failed to list places for commute scheduling")
		return 0
	}

	enqueued := 0
	for i := range places {
		if s.enqueue(s.newTask(r, &places[i])) {
			enqueued++
		}
	}
	return enqueued
}

// PlaceSaved enqueues one task per residence of the place's owner.
func (s *CommuteScheduler) PlaceSaved(ctx context.Context, p *models.Place) int {
	residences, err := s.store.ListResidences(ctx, p.OwnerID)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", p.OwnerID).Error("Failed to list residences for commute scheduling")
		return 0
	}

	enqueued := 0
	for i := range residences {
		if s.enqueue(s.newTask(&residences[i], p)) {
			enqueued++
		}
	}
	return enqueued
}

// ResyncAll re-enqueues missing or stale commutes for every owner.
func (s *CommuteScheduler) ResyncAll(ctx context.Context) (int, error) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list owners: %w", err)
	}

	total := 0
	for _, owner := range owners {
		n, err := s.resyncOwner(ctx, owner)
		if err != nil {
			s.logger.WithError(err).WithField("owner_id", owner).Error("Commute resync failed for owner")
			continue
		}
		total += n
	}

	s.logger.WithFields(logrus.Fields{
		"owners":   len(owners),
		"enqueued": total,
	}).Info("Commute resync completed")
	return total, nil
}

// ResyncOwner re-enqueues missing or stale commutes for one owner.
func (s *CommuteScheduler) ResyncOwner(ctx context.Context, ownerID string) (int, error) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()
	return s.resyncOwner(ctx, ownerID)
}

func (s *CommuteScheduler) resyncOwner(ctx context.Context, ownerID string) (int, error) {
	residences, err := s.store.ListResidences(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	places, err := s.store.ListPlaces(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if len(residences) == 0 || len(places) == 0 {
		return 0, nil
	}
	results, err := s.store.ListCommutes(ctx, ownerID, "")
	if err != nil {
		return 0, err
	}

	stored := make(map[string]models.CommuteResult, len(results))
	for _, r := range results {
		if r.Mode == s.mode {
			stored[r.ResidenceID+"|"+r.PlaceID] = r
		}
	}

	now := s.now()
	enqueued := 0
	for i := range residences {
		for j := range places {
			if r, ok := stored[residences[i].ID+"|"+places[j].ID]; ok && s.fresh(r, now) {
				continue
			}
			if s.enqueue(s.newTask(&residences[i], &places[j])) {
				enqueued++
			}
		}
	}
	return enqueued, nil
}

func (s *CommuteScheduler) fresh(r models.CommuteResult, now time.Time) bool {
	if s.estimatesOnly && !r.Estimated {
		return true
	}
	return s.ttl <= 0 || now.Sub(r.UpdatedAt) < s.ttl
}

// newTask builds the outbound trip. Only arrive-by constrains it; without one
// transit departs at request time.
func (s *CommuteScheduler) newTask(r *models.Residence, p *models.Place) models.CommuteTask {
	return models.CommuteTask{
		ID:          uuid.NewString(),
		OwnerID:     r.OwnerID,
		ResidenceID: r.ID,
		PlaceID:     p.ID,
		Origin:      r.Origin(),
		Destination: p.Destination(),
		Mode:        s.mode,
		ArriveBy:    p.ArriveBy,
		RequestedAt: s.now().UTC(),
	}
}

// enqueue pushes without waiting; a rejected task is repaired by the next
// resync.
func (s *CommuteScheduler) enqueue(task models.CommuteTask) bool {
	fields := logrus.Fields{
		"task_id":      task.ID,
		"owner_id":     task.OwnerID,
		"residence_id": task.ResidenceID,
		"place_id":     task.PlaceID,
	}
	if task.Origin == "" || task.Destination == "" {
		s.logger.WithFields(fields).Debug("Skipping commute task without origin or destination")
		return false
	}
	if err := s.queue.Push(task); err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("Failed to enqueue commute task")
		return false
	}
	return true
}

// Start begins the periodic resync
func (s *CommuteScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Periodic commute resync disabled")
		return
	}
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *CommuteScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ResyncAll(ctx); err != nil {
				s.logger.WithError(err).Error("Scheduled commute resync failed")
			}
		}
	}
}

// Stop stops the periodic resync and waits for a running one to finish
func (s *CommuteScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
