package fakeit

import (
	"context"
	"reflect"
)

// Resolver is the read-only view of a container. Factories receive one, so
// they can resolve their own dependencies but cannot add bindings.
type Resolver interface {
	// Resolve returns the instance bound to key.
	Resolve(key Key) (any, error)

	// ResolveContext is Resolve with a parent context for tracing.
	ResolveContext(ctx context.Context, key Key) (any, error)

	// Context returns the context the current resolution runs under.
	Context() context.Context
}

// Factory builds an instance of a component.
type Factory func(r Resolver) (any, error)

// Lifetime defines how often a binding's factory runs.
type Lifetime string

// Available lifetimes
const (
	// LifetimeTransient runs the factory on every resolution
	LifetimeTransient Lifetime = "transient"
	// LifetimeSingleton runs the factory at most once per container
	LifetimeSingleton Lifetime = "singleton"
)

// Key identifies a component. Keys are comparable and are either a type
// token (KeyOf) or a name token (NamedKey).
type Key struct {
	typ  reflect.Type
	name string
}

// KeyOf returns the key for type T. Interface types are keyed by the
// interface itself, not by a pointer to it.
func KeyOf[T any]() Key {
	return Key{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// TypeKey returns the key for t.
func TypeKey(t reflect.Type) Key {
	return Key{typ: t}
}

// NamedKey returns a key for a component identified only by name.
func NamedKey(name string) Key {
	return Key{name: name}
}

// Type returns the type token, or nil for named keys.
func (k Key) Type() reflect.Type { return k.typ }

// IsZero reports whether k identifies nothing.
func (k Key) IsZero() bool { return k.typ == nil && k.name == "" }

func (k Key) String() string {
	if k.typ != nil {
		return k.typ.String()
	}
	return k.name
}
