// Package proxy defines the contract for creating fake objects that stand in
// for a target type, and a builder-registry implementation of it.
package proxy

import (
	"fmt"
	"reflect"
)

// Generator creates proxies. Implementations must not cache results: every
// TryCreateProxy call is independent.
type Generator interface {
	// TryCreateProxy builds a value of target that also implements every
	// type in additional, using the builder matching args. It panics only
	// when target is nil; every other failure is reported in the Result.
	TryCreateProxy(target reflect.Type, additional []reflect.Type, args []any) Result

	// MemberCanBeIntercepted reports whether calls to m can be redirected
	// by a proxy. It has no side effects.
	MemberCanBeIntercepted(m Member) bool
}

// Kind classifies why a proxy could not be created.
type Kind int

const (
	// KindNone marks a successful result.
	KindNone Kind = iota
	// KindNotInterface: the target or an additional type is not an interface.
	KindNotInterface
	// KindNoBuilder: nothing is registered for the target.
	KindNoBuilder
	// KindArgumentMismatch: no builder accepts the constructor arguments.
	KindArgumentMismatch
	// KindMissingInterface: the built value lacks an additional interface.
	KindMissingInterface
	// KindBuilderFailed: the builder returned an error or a nil value, or panicked.
	KindBuilderFailed
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotInterface:
		return "not_interface"
	case KindNoBuilder:
		return "no_builder"
	case KindArgumentMismatch:
		return "argument_mismatch"
	case KindMissingInterface:
		return "missing_interface"
	case KindBuilderFailed:
		return "builder_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the outcome of TryCreateProxy: exactly one of Instance or
// Reason is set.
type Result struct {
	instance any
	kind     Kind
	reason   string
}

// Created wraps a usable proxy. A nil instance yields a failed result.
func Created(instance any) Result {
	if isNil(instance) {
		return NotCreatable(KindBuilderFailed, "builder produced a nil proxy")
	}
	return Result{instance: instance}
}

// NotCreatable builds a failed result. An empty reason is replaced with the
// kind name so that the reason is never blank.
func NotCreatable(kind Kind, format string, args ...any) Result {
	if kind == KindNone {
		kind = KindBuilderFailed
	}
	reason := fmt.Sprintf(format, args...)
	if reason == "" {
		reason = kind.String()
	}
	return Result{kind: kind, reason: reason}
}

// Ok reports whether a proxy was created.
func (r Result) Ok() bool { return r.instance != nil }

// Instance returns the proxy, or nil on failure.
func (r Result) Instance() any { return r.instance }

// Reason returns the failure reason, or "" on success. The zero Result
// reads as a failure.
func (r Result) Reason() string {
	if !r.Ok() && r.reason == "" {
		return "no proxy created"
	}
	return r.reason
}

// Kind returns the failure class, KindNone on success.
func (r Result) Kind() Kind {
	if !r.Ok() && r.kind == KindNone {
		return KindBuilderFailed
	}
	return r.kind
}

// Err adapts a failed result to an error; nil on success.
func (r Result) Err() error {
	if r.Ok() {
		return nil
	}
	return &NotCreatableError{Kind: r.Kind(), Reason: r.Reason()}
}

// NotCreatableError is the error form of a failed Result, for callers that
// want to bubble the failure up.
type NotCreatableError struct {
	Kind   Kind
	Reason string
}

func (e *NotCreatableError) Error() string {
	return fmt.Sprintf("proxy not creatable (%s): %s", e.Kind, e.Reason)
}

// Member describes a method of a type.
type Member struct {
	Owner reflect.Type
	Name  string
}

// MemberOf describes the method name of owner.
func MemberOf(owner reflect.Type, name string) Member {
	return Member{Owner: owner, Name: name}
}

// String returns "Owner.Name".
func (m Member) String() string {
	if m.Owner == nil {
		return m.Name
	}
	return m.Owner.String() + "." + m.Name
}

// Interceptable implements the interception rule shared by generators:
// only exported methods of an interface type can be redirected. Methods of
// concrete types are statically bound.
func Interceptable(m Member) bool {
	if m.Owner == nil || m.Owner.Kind() != reflect.Interface {
		return false
	}
	method, ok := m.Owner.MethodByName(m.Name)
	return ok && method.IsExported()
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
