package script

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPool_ConcurrentAcquireNeverExceedsSize(t *testing.T) {
	const maxSize = 3
	p := newPool(maxSize, defaultMaxStack, zap.NewNop())
	defer p.close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		granted atomic.Int32
		mu      sync.Mutex
		held    []*goja.Runtime
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			vm, err := p.acquire(ctx)
			if err != nil {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				return
			}
			granted.Add(1)
			mu.Lock()
			held = append(held, vm)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(maxSize), granted.Load())
	assert.Equal(t, int32(maxSize), p.size.Load())

	for _, vm := range held {
		p.release(vm, true)
	}
	assert.Zero(t, p.size.Load())
}

func TestPool_DiscardFreesSlot(t *testing.T) {
	p := newPool(1, defaultMaxStack, zap.NewNop())
	defer p.close()

	vm, err := p.acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), p.size.Load())
	p.release(vm, true)

	vm, err = p.acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.size.Load())
	p.release(vm, false)
	assert.Equal(t, int32(1), p.size.Load(), "idle runtime stays counted")
}
