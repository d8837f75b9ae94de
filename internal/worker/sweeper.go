package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/dispatcher"
	"github.com/jinkaiteo/edms-sub019/internal/application/engine"
	"github.com/jinkaiteo/edms-sub019/internal/application/port"
	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
	"github.com/jinkaiteo/edms-sub019/internal/domain/event"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// SweepReport summarizes one sweep pass. Per-instance failures are
// aggregated here; they never abort the pass for remaining instances.
type SweepReport struct {
	Scanned   int      `json:"scanned"`
	Activated int      `json:"activated"`
	Obsoleted int      `json:"obsoleted"`
	Overdue   int      `json:"overdue"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Err folds the collected failures into one error, nil when the pass was clean
func (r *SweepReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, msg := range r.Errors {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}

// Sweeper is the periodic batch process performing date-triggered
// transitions on behalf of the SYSTEM actor. It re-validates every
// condition against current state before invoking the engine, so running
// two sweeps with the same time, or racing a human caller, commits each
// transition at most once.
type Sweeper struct {
	engine       engine.Engine
	instanceRepo port.InstanceRepository
	dispatcher   dispatcher.Dispatcher
	logger       *zap.Logger

	interval  time.Duration
	batchSize int
	// overdue maps a non-terminal state to the duration after which an
	// instance sitting in it raises the overdue signal; absent states are
	// never flagged
	overdue map[lifecycle.State]time.Duration

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// SweeperConfig holds sweeper configuration
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
	Overdue   map[lifecycle.State]time.Duration
}

// NewSweeper creates a scheduler sweep worker
func NewSweeper(
	eng engine.Engine,
	instanceRepo port.InstanceRepository,
	d dispatcher.Dispatcher,
	cfg SweeperConfig,
	logger *zap.Logger,
) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		engine:       eng,
		instanceRepo: instanceRepo,
		dispatcher:   d,
		logger:       logger,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		overdue:      cfg.Overdue,
	}
}

// Start launches the periodic sweep loop
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sweeper is already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true

	s.logger.Info("Sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("batch_size", s.batchSize))

	go s.sweepLoop(ctx)

	return nil
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}

	s.logger.Info("Sweeper stopped")
}

// Name returns the worker name for identification
func (s *Sweeper) Name() string {
	return "SchedulerSweep"
}

func (s *Sweeper) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sweep loop context cancelled")
			return

		case now := <-ticker.C:
			report := s.RunSweep(ctx, now)
			s.logger.Info("Sweep pass complete",
				zap.Int("scanned", report.Scanned),
				zap.Int("activated", report.Activated),
				zap.Int("obsoleted", report.Obsoleted),
				zap.Int("overdue", report.Overdue),
				zap.Int("errors", len(report.Errors)))
		}
	}
}

// RunSweep evaluates every non-terminal instance once against now. It is
// safe to invoke concurrently with human transitions and with other sweep
// workers; losers of the version compare-and-swap are counted as skipped.
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) *SweepReport {
	report := &SweepReport{}

	instances, err := s.collect(ctx)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	for _, inst := range instances {
		report.Scanned++
		s.sweepInstance(ctx, inst, now, report)
	}

	return report
}

// collect pages the full non-terminal set up front so transitions made
// during the pass cannot shift pagination under us
func (s *Sweeper) collect(ctx context.Context) ([]*entity.WorkflowInstance, error) {
	var all []*entity.WorkflowInstance
	for offset := 0; ; offset += s.batchSize {
		batch, err := s.instanceRepo.ListNonTerminal(ctx, s.batchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list instances: %w", err)
		}
		all = append(all, batch...)
		if len(batch) < s.batchSize {
			return all, nil
		}
	}
}

func (s *Sweeper) sweepInstance(ctx context.Context, inst *entity.WorkflowInstance, now time.Time, report *SweepReport) {
	switch {
	case inst.State == lifecycle.StateApprovedPendingEffective && dateDue(inst.EffectiveDate, now):
		if s.transition(ctx, inst, lifecycle.StateEffective, report) {
			report.Activated++
		}

	case inst.State == lifecycle.StateScheduledForObsolescence && dateDue(inst.ObsolescenceDate, now):
		if s.transition(ctx, inst, lifecycle.StateObsolete, report) {
			report.Obsoleted++
		}

	case !inst.State.IsDateTriggered():
		timeout, ok := s.overdue[inst.State]
		if ok && timeout > 0 && now.Sub(inst.StateEnteredAt) > timeout {
			// Overdue raises a signal only; the sweep never transitions
			// non-date-triggered states
			report.Overdue++
			if s.dispatcher != nil {
				s.dispatcher.DispatchAsync(ctx, event.NewInstanceOverdue(inst.ID, inst.DocumentID, inst.State))
			}
		}
	}
}

// transition invokes the engine for one date-triggered instance. A
// concurrent-modification or invalid-transition outcome means another
// writer got there first; those are skipped, everything else is collected.
func (s *Sweeper) transition(ctx context.Context, inst *entity.WorkflowInstance, target lifecycle.State, report *SweepReport) bool {
	_, err := s.engine.AttemptTransition(ctx, inst.ID, target, entity.ActorSystem, lifecycle.Payload{}, inst.Version)
	if err == nil {
		s.logger.Info("Scheduled transition committed",
			zap.Int64("instance_id", inst.ID),
			zap.String("document_id", inst.DocumentID),
			zap.String("target", target.String()))
		return true
	}

	if errors.Is(err, lifecycle.ErrConcurrentModification) || errors.Is(err, lifecycle.ErrInvalidTransition) {
		s.logger.Debug("Scheduled transition already handled",
			zap.Int64("instance_id", inst.ID),
			zap.Error(err))
		report.Skipped++
		return false
	}

	s.logger.Error("Scheduled transition failed",
		zap.Int64("instance_id", inst.ID),
		zap.String("target", target.String()),
		zap.Error(err))
	report.Errors = append(report.Errors, fmt.Sprintf("instance %d -> %s: %v", inst.ID, target, err))
	return false
}

func dateDue(date *time.Time, now time.Time) bool {
	return date != nil && !date.After(now)
}
