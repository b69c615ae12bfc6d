package network

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnder struct {
	calls   atomic.Int32
	mu      sync.Mutex
	ids     []string
	err     error
	release chan struct{}
}

func (f *fakeEnder) EndSession(ctx context.Context, id string) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.calls.Add(1)
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	return f.err
}

func TestBeacon_AtMostOnce(t *testing.T) {
	f := &fakeEnder{}
	b := NewBeacon(f, time.Second, zerolog.Nop())

	var wg sync.WaitGroup
	var started atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Fire("AB12CD") {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	require.True(t, b.Wait(time.Second))
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, []string{"AB12CD"}, f.ids)
}

func TestBeacon_EmptySessionDoesNotConsume(t *testing.T) {
	f := &fakeEnder{}
	b := NewBeacon(f, time.Second, zerolog.Nop())

	assert.False(t, b.Fire(""))
	assert.False(t, b.Fired())
	assert.True(t, b.Wait(time.Millisecond))

	assert.True(t, b.Fire("XY34ZW"))
	require.True(t, b.Wait(time.Second))
	assert.Equal(t, []string{"XY34ZW"}, f.ids)
}

func TestBeacon_FireDoesNotBlock(t *testing.T) {
	f := &fakeEnder{release: make(chan struct{})}
	b := NewBeacon(f, 5*time.Second, zerolog.Nop())

	start := time.Now()
	assert.True(t, b.Fire("AB12CD"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.False(t, b.Wait(20*time.Millisecond))
	close(f.release)
	assert.True(t, b.Wait(time.Second))
}

func TestBeacon_ErrorsSwallowed(t *testing.T) {
	f := &fakeEnder{err: errors.New("connection refused")}
	b := NewBeacon(f, time.Second, zerolog.Nop())

	assert.True(t, b.Fire("AB12CD"))
	assert.True(t, b.Wait(time.Second))
	assert.False(t, b.Fire("AB12CD"))
}
