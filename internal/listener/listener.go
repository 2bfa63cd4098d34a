// Package listener reloads dictionaries when Postgres signals a change.
package listener

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"campaign-launcher/internal/storage"
)

const debounce = 200 * time.Millisecond

type notifier interface {
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
}

// dialFunc returns a listening connection and its release func.
type dialFunc func(ctx context.Context) (notifier, func(), error)

// ListenAndReload runs LISTEN on channel and calls reload once a burst of
// notifications has been quiet for the debounce window. A dropped
// connection is re-acquired after a jittered backoff; the first reload
// after a reconnect covers changes missed while disconnected.
func ListenAndReload(ctx context.Context, st *storage.Store, channel string, baseBackoff time.Duration, reload func() error) {
	dial := func(ctx context.Context) (notifier, func(), error) {
		conn, err := st.PgxPool().Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
			conn.Release()
			return nil, nil, err
		}
		log.Info().Str("channel", channel).Msg("listening for dictionary changes")
		return conn.Conn(), conn.Release, nil
	}
	run(ctx, dial, baseBackoff, reload)
}

func run(ctx context.Context, dial dialFunc, baseBackoff time.Duration, reload func() error) {
	kick := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		reloadAfterQuiet(ctx, kick, reload)
		close(done)
	}()
	defer func() { <-done }()

	for attempt := 0; ; attempt++ {
		n, release, err := dial(ctx)
		if err == nil {
			if attempt > 0 {
				nudge(kick)
			}
			err = wait(ctx, n, kick)
			release()
		}
		if ctx.Err() != nil {
			log.Info().Msg("listener stopped")
			return
		}
		backoff := jitter(baseBackoff)
		log.Error().Err(err).Dur("backoff", backoff).Msg("notification connection lost; reconnecting")
		select {
		case <-ctx.Done():
			log.Info().Msg("listener stopped")
			return
		case <-time.After(backoff):
		}
	}
}

// wait forwards notifications to kick until the connection fails.
func wait(ctx context.Context, n notifier, kick chan<- struct{}) error {
	for {
		ntf, err := n.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		log.Debug().Str("channel", ntf.Channel).Str("payload", ntf.Payload).Msg("dictionary notification")
		nudge(kick)
	}
}

func nudge(kick chan<- struct{}) {
	select {
	case kick <- struct{}{}:
	default:
	}
}

// reloadAfterQuiet calls reload once no kick has arrived for the debounce
// window, so the last change of a burst is always picked up.
func reloadAfterQuiet(ctx context.Context, kick <-chan struct{}, reload func() error) {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			log.Info().Msg("dictionaries changed; reloading")
			if err := reload(); err != nil {
				log.Error().Err(err).Msg("dictionary reload failed; keeping previous dictionaries")
			}
		}
	}
}

// jitter spreads reconnects between 0.5x and 1.5x of base.
func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	factor := 0.5 + rand.Float64()
	return time.Duration(float64(base) * factor)
}
