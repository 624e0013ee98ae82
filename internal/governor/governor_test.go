package governor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsZeroLimit(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}

func TestDoBoundsConcurrency(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do(context.Background(), func() error {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, int32(2))
}

func TestDoPropagatesCancellation(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	// Hold the only slot so the next Do blocks in Acquire.
	release := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = g.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestDoReturnsFnError(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	wantErr := assert.AnError
	gotErr := g.Do(context.Background(), func() error { return wantErr })
	assert.ErrorIs(t, gotErr, wantErr)
}
