package fakeit

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type tagged struct {
	tag int64
}

// countingFactory returns a factory producing tagged values and the counter
// it increments.
func countingFactory() (Factory, *atomic.Int64) {
	var calls atomic.Int64
	return func(Resolver) (any, error) {
		return &tagged{tag: calls.Add(1)}, nil
	}, &calls
}

type SingletonTestSuite struct {
	suite.Suite
	c *Container
}

func (s *SingletonTestSuite) SetupTest() {
	s.c = New()
}

func (s *SingletonTestSuite) cell(key Key) *singletonCell {
	b, ok := s.c.bindings[key]
	s.Require().True(ok)
	s.Require().NotNil(b.cell)
	return b.cell
}

func (s *SingletonTestSuite) TestConcurrentResolveRunsFactoryOnce() {
	const workers = 50
	factory, calls := countingFactory()
	key := NamedKey("Logger")
	s.Require().NoError(s.c.RegisterSingleton(key, factory))

	start := make(chan struct{})
	results := make([]any, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = s.c.Resolve(key)
		}(i)
	}
	close(start)
	wg.Wait()

	s.Equal(int64(1), calls.Load())
	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i])
		s.Same(results[0], results[i])
		s.Equal(int64(1), results[i].(*tagged).tag)
	}
}

func (s *SingletonTestSuite) TestResolvedIsTerminal() {
	factory, calls := countingFactory()
	key := NamedKey("Logger")
	s.Require().NoError(s.c.RegisterSingleton(key, factory))

	cell := s.cell(key)
	s.Equal(cellUnresolved, cell.current())
	s.NotNil(cell.factory)

	first, err := s.c.Resolve(key)
	s.Require().NoError(err)
	s.Equal(cellResolved, cell.current())
	s.Nil(cell.factory, "factory is dropped once resolved")

	for i := 0; i < 1000; i++ {
		again, err := s.c.Resolve(key)
		s.Require().NoError(err)
		s.Same(first, again)
	}
	s.Equal(int64(1), calls.Load())
	s.Equal(cellResolved, cell.current())
}

func (s *SingletonTestSuite) TestRetryAfterFailure() {
	boom := errors.New("boom")
	var calls atomic.Int64
	key := NamedKey("Flaky")
	s.Require().NoError(s.c.RegisterSingleton(key, func(Resolver) (any, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return &tagged{tag: calls.Load()}, nil
	}))

	instance, err := s.c.Resolve(key)
	s.Nil(instance)
	var factoryErr *SingletonFactoryError
	s.Require().True(errors.As(err, &factoryErr))
	s.Equal(key, factoryErr.Key)
	s.ErrorIs(err, boom)
	s.Equal(cellUnresolved, s.cell(key).current())
	s.Nil(s.cell(key).instance, "nothing is cached from a failed run")

	instance, err = s.c.Resolve(key)
	s.Require().NoError(err)
	s.Equal(int64(2), instance.(*tagged).tag)
	s.Equal(int64(2), calls.Load())
	s.Equal(cellResolved, s.cell(key).current())
}

func (s *SingletonTestSuite) TestPanicLeavesCellUnresolved() {
	var calls atomic.Int64
	key := NamedKey("Panicky")
	s.Require().NoError(s.c.RegisterSingleton(key, func(Resolver) (any, error) {
		if calls.Add(1) == 1 {
			panic("construction exploded")
		}
		return &tagged{tag: 2}, nil
	}))

	s.Panics(func() { _, _ = s.c.Resolve(key) })
	s.Equal(cellUnresolved, s.cell(key).current())

	// the lock was released by the panic
	instance, err := s.c.Resolve(key)
	s.Require().NoError(err)
	s.Equal(int64(2), instance.(*tagged).tag)
}

func (s *SingletonTestSuite) TestUnrelatedKeysDoNotBlock() {
	gate := make(chan struct{})
	entered := make(chan struct{})
	slow := NamedKey("Slow")
	fast := NamedKey("Fast")

	s.Require().NoError(s.c.RegisterSingleton(slow, func(Resolver) (any, error) {
		close(entered)
		<-gate
		return &tagged{tag: 1}, nil
	}))
	fastFactory, _ := countingFactory()
	s.Require().NoError(s.c.RegisterSingleton(fast, fastFactory))

	slowDone := make(chan error, 1)
	go func() {
		_, err := s.c.Resolve(slow)
		slowDone <- err
	}()
	<-entered

	fastDone := make(chan error, 1)
	go func() {
		_, err := s.c.Resolve(fast)
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("resolving an unrelated singleton blocked on another's construction")
	}

	close(gate)
	s.NoError(<-slowDone)
}

func (s *SingletonTestSuite) TestWaitersSeeFirstResult() {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int64
	key := NamedKey("Gated")
	s.Require().NoError(s.c.RegisterSingleton(key, func(Resolver) (any, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-gate
		return &tagged{tag: calls.Load()}, nil
	}))

	var wg sync.WaitGroup
	results := make(chan any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.c.Resolve(key)
			s.NoError(err)
			results <- v
		}()
	}
	<-entered
	close(gate)
	wg.Wait()
	close(results)

	var first any
	for v := range results {
		if first == nil {
			first = v
		}
		s.Same(first, v)
	}
	s.Equal(int64(1), calls.Load())
}

func (s *SingletonTestSuite) TestWaitersRetryAfterFailure() {
	const waiters = 10
	gate := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int64
	key := NamedKey("FlakyGated")
	s.Require().NoError(s.c.RegisterSingleton(key, func(Resolver) (any, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-gate
			return nil, errors.New("first run fails")
		}
		return &tagged{tag: calls.Load()}, nil
	}))

	results := make([]any, waiters+1)
	errs := make([]error, waiters+1)
	var wg sync.WaitGroup
	resolve := func(i int) {
		defer wg.Done()
		results[i], errs[i] = s.c.Resolve(key)
	}

	wg.Add(1)
	go resolve(0)
	<-entered
	for i := 1; i <= waiters; i++ {
		wg.Add(1)
		go resolve(i)
	}
	// let the waiters park on the cell lock
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	var failures int
	var first any
	for i, err := range errs {
		if err != nil {
			failures++
			var factoryErr *SingletonFactoryError
			s.True(errors.As(err, &factoryErr), "caller %d: %v", i, err)
			continue
		}
		if first == nil {
			first = results[i]
		}
		s.Same(first, results[i])
	}
	s.Equal(1, failures)
	s.Error(errs[0], "the gated caller sees the failure")
	s.NotNil(first)
	s.Equal(int64(2), calls.Load())
}

func (s *SingletonTestSuite) TestReentrantResolutionFailsFast() {
	self := NamedKey("Self")
	s.Require().NoError(s.c.RegisterSingleton(self, func(r Resolver) (any, error) {
		return r.Resolve(self)
	}))

	done := make(chan error, 1)
	go func() {
		_, err := s.c.Resolve(self)
		done <- err
	}()

	select {
	case err := <-done:
		var reentrant *ReentrantResolutionError
		s.Require().True(errors.As(err, &reentrant))
		s.Equal(self, reentrant.Key)
	case <-time.After(2 * time.Second):
		s.Fail("re-entrant resolution deadlocked")
	}
	s.Equal(cellUnresolved, s.cell(self).current())
}

func (s *SingletonTestSuite) TestTransitiveReentrancy() {
	a, b := NamedKey("A"), NamedKey("B")
	s.Require().NoError(s.c.RegisterSingleton(a, func(r Resolver) (any, error) {
		return r.Resolve(b)
	}))
	s.Require().NoError(s.c.Register(b, func(r Resolver) (any, error) {
		return r.Resolve(a)
	}))

	_, err := s.c.Resolve(a)
	var reentrant *ReentrantResolutionError
	s.Require().True(errors.As(err, &reentrant))
	s.Equal(a, reentrant.Key)
}

func (s *SingletonTestSuite) TestNestedSingletons() {
	inner, innerCalls := countingFactory()
	s.Require().NoError(s.c.RegisterSingleton(NamedKey("inner"), inner))
	s.Require().NoError(s.c.RegisterSingleton(NamedKey("outer"), func(r Resolver) (any, error) {
		v, err := r.Resolve(NamedKey("inner"))
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}))

	outer, err := s.c.Resolve(NamedKey("outer"))
	s.Require().NoError(err)
	innerValue, err := s.c.Resolve(NamedKey("inner"))
	s.Require().NoError(err)
	s.Same(innerValue, outer.([]any)[0])
	s.Equal(int64(1), innerCalls.Load())
}

func TestSingletonSuite(t *testing.T) {
	suite.Run(t, new(SingletonTestSuite))
}

func TestCellStateString(t *testing.T) {
	assert.Equal(t, "unresolved", cellUnresolved.String())
	assert.Equal(t, "resolved", cellResolved.String())
}

func TestCurrentGoroutineID(t *testing.T) {
	id := currentGoroutineID()
	require.NotZero(t, id)
	assert.Equal(t, id, currentGoroutineID())

	other := make(chan int64)
	go func() { other <- currentGoroutineID() }()
	assert.NotEqual(t, id, <-other)
}
