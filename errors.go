package fakeit

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate matches every DuplicateRegistrationError.
	ErrDuplicate = errors.New("component already registered")
	// ErrUnregistered matches every UnregisteredComponentError.
	ErrUnregistered = errors.New("component not registered")
)

// DuplicateRegistrationError is returned when a key is bound twice.
// The first binding is kept.
type DuplicateRegistrationError struct {
	Key      Key
	Existing Lifetime
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("component %s already registered as %s", e.Key, e.Existing)
}

func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicate
}

// UnregisteredComponentError is returned when resolving a key with no binding.
type UnregisteredComponentError struct {
	Key Key
}

func (e *UnregisteredComponentError) Error() string {
	return fmt.Sprintf("component not registered: %s", e.Key)
}

func (e *UnregisteredComponentError) Is(target error) bool {
	return target == ErrUnregistered
}

// InvalidBindingError represents a registration with unusable arguments.
type InvalidBindingError struct {
	Key    Key
	Reason string
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("invalid binding for %q: %s", e.Key, e.Reason)
}

// InitializationError wraps a failing transient factory.
type InitializationError struct {
	Key Key
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed for %s: %v", e.Key, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// SingletonFactoryError wraps a failing singleton factory. The singleton
// stays unresolved and the next resolution runs the factory again.
type SingletonFactoryError struct {
	Key Key
	Err error
}

func (e *SingletonFactoryError) Error() string {
	return fmt.Sprintf("singleton factory failed for %s: %v", e.Key, e.Err)
}

func (e *SingletonFactoryError) Unwrap() error {
	return e.Err
}

// ReentrantResolutionError is returned when a singleton factory resolves its
// own key, directly or through other components.
type ReentrantResolutionError struct {
	Key Key
}

func (e *ReentrantResolutionError) Error() string {
	return fmt.Sprintf("re-entrant resolution of singleton %s during its own construction", e.Key)
}

// TypeMismatchError represents a type assertion failure in Make.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}
