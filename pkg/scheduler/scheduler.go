package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/strand-controls/strand-go/pkg/api"
	"github.com/strand-controls/strand-go/pkg/controller"
	"github.com/strand-controls/strand-go/pkg/log"
)

// GroupState is the lifecycle state of one period group.
type GroupState uint8

const (
	// GroupIdle means the group has not started ticking yet.
	GroupIdle GroupState = iota

	// GroupRunning means the group is ticking.
	GroupRunning

	// GroupCancelled means the group stopped because the scheduler shut down.
	GroupCancelled

	// GroupFailed means an operation in the group returned an error.
	GroupFailed
)

// String returns the state name.
func (s GroupState) String() string {
	switch s {
	case GroupIdle:
		return "idle"
	case GroupRunning:
		return "running"
	case GroupCancelled:
		return "cancelled"
	case GroupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GroupFailure reports a period group that stopped because one of its
// operations failed.
type GroupFailure struct {
	// Period identifies the group.
	Period controller.Period

	// Operation is the full name of the failing operation.
	Operation string

	// Group lists the full names of every operation sharing the failing
	// tick's group, the failing one included.
	Group []string

	// Err is the operation's error.
	Err error
}

// Error returns the failure description.
func (f GroupFailure) Error() string {
	return fmt.Sprintf("period group %s: operation %s: %v", f.Period, f.Operation, f.Err)
}

// Unwrap returns the operation error.
func (f GroupFailure) Unwrap() error { return f.Err }

// Scheduler runs the collected period groups of one snapshot. One
// goroutine per distinct period; the run-once bucket completes before
// any periodic group starts ticking.
type Scheduler struct {
	mu sync.Mutex

	instanceID string
	root       *api.ControllerAPI
	states     map[controller.Period]GroupState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	failures chan GroupFailure

	running atomic.Bool
	logger  log.Logger
}

// New creates a scheduler for the given snapshot. The instance ID tags
// every event this run emits.
func New(root *api.ControllerAPI) *Scheduler {
	return &Scheduler{
		instanceID: uuid.NewString(),
		root:       root,
		states:     make(map[controller.Period]GroupState),
		failures:   make(chan GroupFailure, 16),
		logger:     log.NoopLogger{},
	}
}

// SetLogger sets the event logger. Must be called before Start.
func (s *Scheduler) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// InstanceID returns the UUID tagging this run's events.
func (s *Scheduler) InstanceID() string { return s.instanceID }

// Failures reports period groups that stopped on an operation error.
// The channel closes when the scheduler stops.
func (s *Scheduler) Failures() <-chan GroupFailure { return s.failures }

// GroupState returns the current state of the group with the given
// period. The run-once bucket is keyed by the Once sentinel.
func (s *Scheduler) GroupState(period controller.Period) GroupState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[period]
}

// Start collects the operations from the snapshot, runs the run-once
// bucket to completion and then starts one ticking goroutine per period
// group. An error from a run-once operation aborts startup.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("scheduler already running")
	}

	groups, err := Collect(s.root)
	if err != nil {
		s.running.Store(false)
		return err
	}

	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	for period := range groups.Periodic {
		s.states[period] = GroupIdle
	}
	if len(groups.Once) > 0 {
		s.states[controller.Once] = GroupIdle
	}
	runCtx := s.ctx
	s.mu.Unlock()

	// The run-once bucket completes before periodic work begins, so
	// startup reads land before the first scan observes them.
	if len(groups.Once) > 0 {
		s.setState(controller.Once, GroupRunning, len(groups.Once))
		if err := s.runAll(runCtx, controller.Once, groups.Once); err != nil {
			s.setState(controller.Once, GroupFailed, len(groups.Once))
			s.shutdown()
			return fmt.Errorf("startup operations: %w", err)
		}
		// The bucket retires after its single pass; Cancelled marks a
		// group that stopped without error.
		s.setState(controller.Once, GroupCancelled, len(groups.Once))
	}

	for period, ops := range groups.Periodic {
		s.wg.Add(1)
		go s.runGroup(runCtx, period, ops)
	}

	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		InstanceID: s.instanceID,
		Category:   log.CategoryScheduler,
		Group: &log.GroupEvent{
			OldState:   GroupIdle.String(),
			NewState:   GroupRunning.String(),
			Operations: len(groups.Once) + len(groups.Periodic),
		},
	})
	return nil
}

// Stop cancels every group and waits for in-flight operations to settle.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.shutdown()
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	close(s.failures)
	s.running.Store(false)
}

// runGroup ticks one period group until cancellation or failure. Each
// tick sleeps for the period, then runs every operation concurrently and
// waits for all of them before sleeping again, so a slow operation slows
// its whole group.
func (s *Scheduler) runGroup(ctx context.Context, period controller.Period, ops []Operation) {
	defer s.wg.Done()

	s.setState(period, GroupRunning, len(ops))

	ticker := time.NewTimer(period.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(period, GroupCancelled, len(ops))
			return
		case <-ticker.C:
		}

		start := time.Now()
		if err := s.runAll(ctx, period, ops); err != nil {
			s.setState(period, GroupFailed, len(ops))
			var failure GroupFailure
			if !errors.As(err, &failure) {
				failure = GroupFailure{Period: period, Err: err}
			}
			select {
			case s.failures <- failure:
			default:
			}
			return
		}

		s.logger.Log(log.Event{
			Timestamp:  time.Now(),
			InstanceID: s.instanceID,
			Category:   log.CategoryScan,
			Scan: &log.ScanEvent{
				Period:  period.Duration(),
				Elapsed: time.Since(start),
			},
		})

		ticker.Reset(period.Duration())
	}
}

// runAll runs every operation in the group concurrently and waits for
// all of them. The first error, wrapped as a GroupFailure, wins.
func (s *Scheduler) runAll(ctx context.Context, period controller.Period, ops []Operation) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.FullName()
	}
	for _, op := range ops {
		wg.Add(1)
		go func(op Operation) {
			defer wg.Done()
			if err := op.Run(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = GroupFailure{Period: period, Operation: op.FullName(), Group: names, Err: err}
				}
				mu.Unlock()
			}
		}(op)
	}
	wg.Wait()
	return firstErr
}

func (s *Scheduler) setState(period controller.Period, state GroupState, ops int) {
	s.mu.Lock()
	old := s.states[period]
	s.states[period] = state
	logger := s.logger
	s.mu.Unlock()

	logger.Log(log.Event{
		Timestamp:  time.Now(),
		InstanceID: s.instanceID,
		Category:   log.CategoryScheduler,
		Group: &log.GroupEvent{
			Period:     period.Duration(),
			OldState:   old.String(),
			NewState:   state.String(),
			Operations: ops,
		},
	})
}
