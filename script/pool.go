package script

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// pool hands out sandboxed runtimes. A goja.Runtime is not safe for
// concurrent use, so each call holds one exclusively.
type pool struct {
	ch       chan *goja.Runtime
	maxSize  int
	maxStack int
	size     atomic.Int32
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newPool(maxSize, maxStack int, logger *zap.Logger) *pool {
	return &pool{ch: make(chan *goja.Runtime, maxSize), maxSize: maxSize, maxStack: maxStack, logger: logger}
}

func (p *pool) create() (*goja.Runtime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if err := applySandbox(vm, p.maxStack); err != nil {
		return nil, err
	}
	p.logger.Debug("script: runtime created", zap.Int32("size", p.size.Load()))
	return vm, nil
}

// acquire returns an idle runtime, creates one below the size limit, or waits.
func (p *pool) acquire(ctx context.Context) (*goja.Runtime, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}
	select {
	case vm, ok := <-p.ch:
		if !ok {
			return nil, ErrPoolClosed
		}
		return vm, nil
	default:
	}
	// The slot is reserved before the runtime exists so concurrent callers
	// never overshoot maxSize.
	if int(p.size.Add(1)) <= p.maxSize {
		vm, err := p.create()
		if err != nil {
			p.size.Add(-1)
			return nil, fmt.Errorf("script: create runtime: %w", err)
		}
		return vm, nil
	}
	p.size.Add(-1)
	select {
	case vm, ok := <-p.ch:
		if !ok {
			return nil, ErrPoolClosed
		}
		return vm, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns vm to the pool; interrupted runtimes are discarded.
func (p *pool) release(vm *goja.Runtime, discard bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if discard || p.closed {
		p.size.Add(-1)
		return
	}
	vm.ClearInterrupt()
	select {
	case p.ch <- vm:
	default:
		p.size.Add(-1)
	}
}

func (p *pool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
	for range p.ch {
		p.size.Add(-1)
	}
}
