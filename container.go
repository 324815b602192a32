// Package fakeit is the wiring core of a fake-object framework: a container
// that maps component keys to factories and resolves them, with lazily built,
// at-most-once singletons.
//
// Registration happens once, from a single goroutine, before the container
// is shared. Resolution is safe from any number of goroutines.
package fakeit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/centraunit/fakeit/observability"
)

// binding is one registered component. cell is set for singletons only.
type binding struct {
	key      Key
	lifetime Lifetime
	factory  Factory
	cell     *singletonCell
}

// Container maps keys to factories and resolves instances.
//
// Register and RegisterSingleton are setup-time calls: they take no lock and
// must not race with each other or with Resolve. After setup the binding map
// is only read.
type Container struct {
	id       string
	bindings map[Key]*binding

	logger           *slog.Logger
	metrics          observability.MetricsRecorder
	spans            observability.SpanManager
	detectReentrancy bool
}

var _ Resolver = (*Container)(nil)

var (
	defaultOnce      sync.Once
	defaultContainer *Container
)

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		id:               uuid.New().String(),
		bindings:         make(map[Key]*binding, 16),
		logger:           observability.DiscardLogger(),
		metrics:          observability.NoopMetrics{},
		spans:            observability.NoopSpanManager{},
		detectReentrancy: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = observability.EnrichLogger(c.logger, c.id)
	return c
}

// Default returns the process-wide container, created on first access.
func Default() *Container {
	defaultOnce.Do(func() {
		defaultContainer = New()
	})
	return defaultContainer
}

// ResetDefault drops the process-wide container.
// This function is intended for testing purposes only.
func ResetDefault() {
	defaultOnce = sync.Once{}
	defaultContainer = nil
}

// ID returns the container's unique id.
func (c *Container) ID() string { return c.id }

// Logger returns the container's logger, tagged with its id.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Register adds a transient binding: factory runs on every Resolve.
// Returns DuplicateRegistrationError if key is already bound.
func (c *Container) Register(key Key, factory Factory) error {
	return c.bind(key, factory, LifetimeTransient)
}

// RegisterSingleton adds a binding whose factory runs at most once, on first
// Resolve. Returns DuplicateRegistrationError if key is already bound.
func (c *Container) RegisterSingleton(key Key, factory Factory) error {
	return c.bind(key, factory, LifetimeSingleton)
}

func (c *Container) bind(key Key, factory Factory, lifetime Lifetime) error {
	if key.IsZero() {
		return &InvalidBindingError{Key: key, Reason: "zero key"}
	}
	if factory == nil {
		return &InvalidBindingError{Key: key, Reason: "nil factory"}
	}
	if existing, ok := c.bindings[key]; ok {
		return &DuplicateRegistrationError{Key: key, Existing: existing.lifetime}
	}

	b := &binding{key: key, lifetime: lifetime, factory: factory}
	if lifetime == LifetimeSingleton {
		b.cell = newSingletonCell(key, factory)
		b.factory = nil
	}
	c.bindings[key] = b
	observability.LogRegistered(c.logger, key.String(), string(lifetime))
	return nil
}

// Resolve returns the instance bound to key.
// Returns UnregisteredComponentError if key has no binding.
func (c *Container) Resolve(key Key) (any, error) {
	return c.ResolveContext(context.Background(), key)
}

// ResolveContext is Resolve with a parent context. The context only carries
// trace and request values; resolution is never cancelled.
func (c *Container) ResolveContext(ctx context.Context, key Key) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	b, ok := c.bindings[key]
	if !ok {
		err := &UnregisteredComponentError{Key: key}
		observability.LogUnregistered(c.logger, key.String())
		c.metrics.RecordResolution(ctx, key.String(), "", err)
		return nil, err
	}

	var (
		instance any
		err      error
	)
	if b.cell != nil {
		instance, err = b.cell.resolve(ctx, c)
	} else {
		instance, err = b.factory(c.resolver(ctx))
		if err != nil {
			err = &InitializationError{Key: key, Err: err}
		}
	}
	c.metrics.RecordResolution(ctx, key.String(), string(b.lifetime), err)
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// Context implements Resolver for top-level calls.
func (c *Container) Context() context.Context {
	return context.Background()
}

// Has reports whether key is bound.
func (c *Container) Has(key Key) bool {
	_, ok := c.bindings[key]
	return ok
}

// Lifetime returns the lifetime of key's binding.
func (c *Container) Lifetime(key Key) (Lifetime, bool) {
	b, ok := c.bindings[key]
	if !ok {
		return "", false
	}
	return b.lifetime, true
}

// Keys lists bound keys sorted by their string form.
func (c *Container) Keys() []Key {
	keys := make([]Key, 0, len(c.bindings))
	for k := range c.bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Bind registers a transient factory for T.
func Bind[T any](c *Container, factory func(r Resolver) (T, error)) error {
	return c.Register(KeyOf[T](), erase(factory))
}

// BindSingleton registers a singleton factory for T.
func BindSingleton[T any](c *Container, factory func(r Resolver) (T, error)) error {
	return c.RegisterSingleton(KeyOf[T](), erase(factory))
}

// Make resolves the component keyed by T.
// Returns TypeMismatchError if the bound factory produced something else.
func Make[T any](r Resolver) (T, error) {
	return MakeKey[T](r, KeyOf[T]())
}

// MakeKey resolves key and asserts the instance to T.
func MakeKey[T any](r Resolver, key Key) (T, error) {
	var zero T
	instance, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Expected: KeyOf[T]().String(),
			Got:      fmt.Sprintf("%T", instance),
		}
	}
	return typed, nil
}

// MustMake is Make for setup code: it panics on error.
func MustMake[T any](r Resolver) T {
	v, err := Make[T](r)
	if err != nil {
		panic(fmt.Sprintf("fakeit: %v", err))
	}
	return v
}

func erase[T any](factory func(r Resolver) (T, error)) Factory {
	if factory == nil {
		return nil
	}
	return func(r Resolver) (any, error) {
		v, err := factory(r)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
