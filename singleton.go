package fakeit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/centraunit/fakeit/observability"
)

type cellState uint32

const (
	cellUnresolved cellState = iota
	cellResolved
)

func (s cellState) String() string {
	if s == cellResolved {
		return "resolved"
	}
	return "unresolved"
}

// singletonCell runs a singleton factory at most once. It moves from
// unresolved (factory held) to resolved (instance held) exactly once and
// never back. Each cell has its own lock, so unrelated singletons never
// wait on each other.
type singletonCell struct {
	key   Key
	state atomic.Uint32
	mu    sync.Mutex

	// factory is set only while unresolved; instance only once resolved.
	factory  Factory
	instance any

	// constructor is the goroutine running factory, 0 when idle.
	constructor atomic.Int64
}

func newSingletonCell(key Key, factory Factory) *singletonCell {
	return &singletonCell{key: key, factory: factory}
}

func (s *singletonCell) current() cellState {
	return cellState(s.state.Load())
}

// resolve returns the cached instance, constructing it first if needed.
func (s *singletonCell) resolve(ctx context.Context, c *Container) (any, error) {
	// Fast path: instance is published before the state flips.
	if s.current() == cellResolved {
		return s.instance, nil
	}

	var gid int64
	if c.detectReentrancy {
		gid = currentGoroutineID()
		if gid != 0 && s.constructor.Load() == gid {
			return nil, &ReentrantResolutionError{Key: s.key}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have finished while we waited for the lock.
	if s.current() == cellResolved {
		return s.instance, nil
	}

	s.constructor.Store(gid)
	defer s.constructor.Store(0)

	return s.construct(ctx, c)
}

// construct runs the factory. Must hold s.mu.
func (s *singletonCell) construct(ctx context.Context, c *Container) (instance any, err error) {
	key := s.key.String()
	ctx, span := c.spans.StartConstructionSpan(ctx, key)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			c.spans.EndSpanWithError(span, perr)
			c.metrics.RecordConstruction(ctx, key, time.Since(started), perr)
			observability.LogSingletonFailed(c.logger, key, perr)
			panic(r)
		}
	}()

	instance, err = s.factory(c.resolver(ctx))
	took := time.Since(started)
	c.spans.EndSpanWithError(span, err)
	c.metrics.RecordConstruction(ctx, key, took, err)
	if err != nil {
		observability.LogSingletonFailed(c.logger, key, err)
		return nil, &SingletonFactoryError{Key: s.key, Err: err}
	}

	s.instance = instance
	s.factory = nil
	s.state.Store(uint32(cellResolved))
	observability.LogSingletonConstructed(c.logger, key, took)
	return instance, nil
}
