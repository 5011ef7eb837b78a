package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/setlist/internal/shared"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 11 * time.Second

// SchedulerState enumerates the poll scheduler states.
type SchedulerState int

const (
	StateStopped SchedulerState = iota
	StateRunning
	StatePaused
)

func (s SchedulerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return ""
	}
}

// Syncer runs one reconciliation pass.
type Syncer interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

// Scheduler runs a [Syncer] immediately and then on a fixed interval.
//
// Pauses nest: the loop restarts once every Pause has been matched by a Resume.
// Errors from background passes are logged and otherwise ignored.
type Scheduler struct {
	mu       sync.Mutex
	syncer   Syncer
	interval time.Duration
	logger   *log.Logger

	state  SchedulerState
	parent context.Context
	cancel context.CancelFunc
	pauses int
	hidden bool
	timer  *time.Timer
	gen    uint64
	wg     sync.WaitGroup
}

// NewScheduler creates a stopped [Scheduler].
func NewScheduler(syncer Syncer, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   shared.WithLogger(logger, "component", "scheduler"),
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start syncs immediately and then every interval until ctx ends or the scheduler is stopped or paused.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parent = ctx
	s.pauses = 0
	s.hidden = false
	s.stopTimerLocked()
	s.runLocked()
}

// Pause stops the loop until a matching [Scheduler.Resume].
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pauses++
	s.stopTimerLocked()
	s.cancelLocked()
	s.state = StatePaused
	s.logger.Debug("sync paused", "depth", s.pauses)
}

// Resume restarts the loop after delay once no other pause is outstanding.
// While the client is hidden the scheduler returns to stopped instead.
func (s *Scheduler) Resume(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return
	}
	if s.pauses > 0 {
		s.pauses--
	}
	if s.pauses > 0 {
		return
	}
	if s.parent == nil || s.hidden {
		s.state = StateStopped
		return
	}

	s.stopTimerLocked()
	if delay <= 0 {
		s.runLocked()
		return
	}

	gen := s.gen
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen && s.state == StatePaused && s.pauses == 0 {
			s.runLocked()
		}
	})
	s.logger.Debug("sync resuming", "delay", delay)
}

// Stop ends the loop. In-flight passes see their context canceled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.cancelLocked()
	s.pauses = 0
	s.state = StateStopped
}

// Wait blocks until every loop goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Trigger runs one pass now, unless the scheduler is paused.
func (s *Scheduler) Trigger(ctx context.Context) (*SyncResult, error) {
	if s.State() == StatePaused {
		return nil, fmt.Errorf("%w: scheduler paused", shared.ErrSyncSkipped)
	}
	return s.syncer.Sync(ctx)
}

// SetVisible stops the loop while the client is hidden and restarts it when shown again.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hidden = !visible
	switch {
	case !visible && s.state != StateStopped:
		s.stopTimerLocked()
		s.cancelLocked()
		s.pauses = 0
		s.state = StateStopped
	case visible && s.state == StateStopped && s.parent != nil:
		s.runLocked()
	}
}

func (s *Scheduler) runLocked() {
	s.cancelLocked()
	if err := s.parent.Err(); err != nil {
		s.state = StateStopped
		return
	}

	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.state = StateRunning

	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.pass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	if _, err := s.syncer.Sync(ctx); err != nil && !IsSkipped(err) && ctx.Err() == nil {
		s.logger.Debug("background sync failed", "error", err)
	}
}

func (s *Scheduler) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
