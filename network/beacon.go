package network

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionEnder is the single call a Beacon needs.
type SessionEnder interface {
	EndSession(ctx context.Context, sessionID string) error
}

// Beacon delivers the end-of-session notice on exit: detached, never
// awaited by the caller, and sent at most once for the Beacon's lifetime.
type Beacon struct {
	ender   SessionEnder
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	sent bool
	done chan struct{}
}

func NewBeacon(ender SessionEnder, timeout time.Duration, log zerolog.Logger) *Beacon {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Beacon{ender: ender, timeout: timeout, log: log, done: make(chan struct{})}
}

// Fire starts the notice for sessionID and returns immediately. It reports
// whether this call started a send; an empty id never consumes the Beacon.
func (b *Beacon) Fire(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	b.mu.Lock()
	if b.sent {
		b.mu.Unlock()
		return false
	}
	b.sent = true
	b.mu.Unlock()

	go func() {
		defer close(b.done)
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.ender.EndSession(ctx, sessionID); err != nil {
			b.log.Debug().Str("session", sessionID).Err(err).Msg("end session notice failed")
		}
	}()
	return true
}

// Fired reports whether a notice was started.
func (b *Beacon) Fired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

// Wait gives an in-flight notice up to d to finish. It returns true when
// nothing is pending.
func (b *Beacon) Wait(d time.Duration) bool {
	if !b.Fired() {
		return true
	}
	select {
	case <-b.done:
		return true
	case <-time.After(d):
		return false
	}
}
