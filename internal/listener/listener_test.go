package listener

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	pause  time.Duration
	before func()
	ntf    *pgconn.Notification
	err    error
}

// scripted replays steps, then blocks until the context ends.
type scripted struct {
	steps []step
}

func (s *scripted) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if len(s.steps) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	time.Sleep(st.pause)
	if st.before != nil {
		st.before()
	}
	return st.ntf, st.err
}

// connections hands out one scripted notifier per dial.
type connections struct {
	mu    sync.Mutex
	conns []*scripted
	errs  []error
	dials atomic.Int32
}

func (c *connections) dial(ctx context.Context) (notifier, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := int(c.dials.Add(1)) - 1
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, nil, c.errs[i]
	}
	if i >= len(c.conns) {
		return &scripted{}, func() {}, nil
	}
	return c.conns[i], func() {}, nil
}

func start(t *testing.T, c *connections, reload func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		run(ctx, c.dial, time.Millisecond, reload)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("listener did not stop")
		}
	})
}

func TestRun_ReloadsLatestChangeOfBurst(t *testing.T) {
	var version, loaded, reloads atomic.Int32
	ntf := &pgconn.Notification{Channel: "launcher_dictionaries"}
	c := &connections{conns: []*scripted{{steps: []step{
		{before: func() { version.Store(1) }, ntf: ntf},
		{pause: 50 * time.Millisecond, before: func() { version.Store(2) }, ntf: ntf},
	}}}}

	start(t, c, func() error {
		reloads.Add(1)
		loaded.Store(version.Load())
		return nil
	})

	require.Eventually(t, func() bool { return loaded.Load() == 2 }, 2*time.Second, 10*time.Millisecond,
		"the change that closed the burst must be loaded")
	time.Sleep(2 * debounce)
	assert.EqualValues(t, 1, reloads.Load(), "one burst collapses to one reload")
}

func TestRun_SeparateBurstsReloadEach(t *testing.T) {
	var reloads atomic.Int32
	ntf := &pgconn.Notification{Channel: "launcher_dictionaries"}
	c := &connections{conns: []*scripted{{steps: []step{
		{ntf: ntf},
		{pause: 2 * debounce, ntf: ntf},
	}}}}

	start(t, c, func() error { reloads.Add(1); return nil })

	require.Eventually(t, func() bool { return reloads.Load() == 2 }, 3*time.Second, 10*time.Millisecond)
}

func TestRun_ReconnectsAfterFailures(t *testing.T) {
	var reloads atomic.Int32
	c := &connections{
		errs: []error{errors.New("pool closed")},
		conns: []*scripted{
			nil,
			{steps: []step{{err: errors.New("conn reset")}}},
		},
	}

	start(t, c, func() error { reloads.Add(1); return nil })

	require.Eventually(t, func() bool { return c.dials.Load() == 3 }, 2*time.Second, 5*time.Millisecond,
		"failed acquire and dropped connection are both retried")
	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"a reconnect reloads to cover missed notifications")
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, c.dials.Load(), "a healthy connection is kept")
}

func TestRun_ReloadErrorKeepsListening(t *testing.T) {
	var reloads atomic.Int32
	ntf := &pgconn.Notification{Channel: "launcher_dictionaries"}
	c := &connections{conns: []*scripted{{steps: []step{
		{ntf: ntf},
		{pause: 2 * debounce, ntf: ntf},
	}}}}

	start(t, c, func() error {
		reloads.Add(1)
		return errors.New("bad yaml")
	})

	require.Eventually(t, func() bool { return reloads.Load() == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, c.dials.Load())
}

func TestJitter(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := jitter(time.Second)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
	assert.Greater(t, jitter(0), time.Duration(0))
}
