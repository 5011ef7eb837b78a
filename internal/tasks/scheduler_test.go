package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/setlist/internal/shared"
)

type countingSyncer struct {
	calls atomic.Int32
}

func (s *countingSyncer) Sync(ctx context.Context) (*SyncResult, error) {
	s.calls.Add(1)
	return &SyncResult{}, nil
}

func (s *countingSyncer) Calls() int { return int(s.calls.Load()) }

func newTestScheduler(t *testing.T, interval time.Duration) (*Scheduler, *countingSyncer) {
	t.Helper()
	syncer := &countingSyncer{}
	s := NewScheduler(syncer, interval, log.New(discard{}))
	t.Cleanup(func() {
		s.Stop()
		s.Wait()
	})
	return s, syncer
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestSchedulerState(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "paused", StatePaused.String())
	assert.Empty(t, SchedulerState(42).String())
}

func TestScheduler(t *testing.T) {
	t.Run("Default Interval", func(t *testing.T) {
		s := NewScheduler(&countingSyncer{}, 0, nil)
		assert.Equal(t, DefaultInterval, s.interval)
		assert.Equal(t, StateStopped, s.State())
	})

	t.Run("Start Syncs Immediately", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		assert.Equal(t, StateRunning, s.State())
		eventually(t, func() bool { return syncer.Calls() == 1 })
	})

	t.Run("Ticks On Interval", func(t *testing.T) {
		s, syncer := newTestScheduler(t, 10*time.Millisecond)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() >= 3 })
	})

	t.Run("Stop", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() == 1 })

		s.Stop()
		s.Wait()
		assert.Equal(t, StateStopped, s.State())
	})

	t.Run("Parent Context Ends Loop", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())

		s.Start(ctx)
		eventually(t, func() bool { return syncer.Calls() == 1 })
		cancel()
		s.Wait()
	})

	t.Run("Pause And Resume", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() == 1 })

		s.Pause()
		assert.Equal(t, StatePaused, s.State())

		s.Resume(0)
		assert.Equal(t, StateRunning, s.State())
		eventually(t, func() bool { return syncer.Calls() == 2 })
	})

	t.Run("Nested Pauses", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() == 1 })

		s.Pause()
		s.Pause()
		s.Resume(0)
		assert.Equal(t, StatePaused, s.State())

		s.Resume(0)
		assert.Equal(t, StateRunning, s.State())
		eventually(t, func() bool { return syncer.Calls() == 2 })
	})

	t.Run("Delayed Resume", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() == 1 })

		s.Pause()
		s.Resume(20 * time.Millisecond)
		assert.Equal(t, StatePaused, s.State())

		eventually(t, func() bool { return s.State() == StateRunning })
		eventually(t, func() bool { return syncer.Calls() == 2 })
	})

	t.Run("Pause Cancels Pending Resume", func(t *testing.T) {
		s, _ := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		s.Pause()
		s.Resume(20 * time.Millisecond)
		s.Pause()

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, StatePaused, s.State())
	})

	t.Run("Resume Without Pause Is Ignored", func(t *testing.T) {
		s, _ := newTestScheduler(t, time.Hour)

		s.Resume(0)
		assert.Equal(t, StateStopped, s.State())
	})

	t.Run("Trigger", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		_, err := s.Trigger(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, syncer.Calls())

		s.Pause()
		_, err = s.Trigger(context.Background())
		assert.ErrorIs(t, err, shared.ErrSyncSkipped)
		assert.Equal(t, 1, syncer.Calls())
	})

	t.Run("Visibility", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() == 1 })

		s.SetVisible(false)
		assert.Equal(t, StateStopped, s.State())

		s.SetVisible(true)
		assert.Equal(t, StateRunning, s.State())
		eventually(t, func() bool { return syncer.Calls() == 2 })
	})

	t.Run("Resume While Hidden Stays Stopped", func(t *testing.T) {
		s, syncer := newTestScheduler(t, time.Hour)

		s.Start(context.Background())
		eventually(t, func() bool { return syncer.Calls() == 1 })
		s.SetVisible(false)

		s.Pause()
		assert.Equal(t, StatePaused, s.State())
		s.Resume(0)
		assert.Equal(t, StateStopped, s.State())
		assert.Equal(t, 1, syncer.Calls())

		s.SetVisible(true)
		assert.Equal(t, StateRunning, s.State())
		eventually(t, func() bool { return syncer.Calls() == 2 })
	})

	t.Run("Visible Before Start Stays Stopped", func(t *testing.T) {
		s, _ := newTestScheduler(t, time.Hour)

		s.SetVisible(true)
		assert.Equal(t, StateStopped, s.State())
	})
}
