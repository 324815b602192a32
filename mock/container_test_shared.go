package mock

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/centraunit/fakeit"
)

// Core interfaces
type Logger interface {
	Tag() int64
	Log(msg string) string
}

type Greeter interface {
	Greet(name string) string
}

type Named interface {
	Name() string
}

// CountingLogger is tagged with the factory call that built it.
type CountingLogger struct {
	tag int64
}

func (l *CountingLogger) Tag() int64 { return l.tag }

func (l *CountingLogger) Log(msg string) string {
	return fmt.Sprintf("[%d] %s", l.tag, msg)
}

// LoggerFactory builds CountingLoggers and counts its own invocations.
// When Gate is set every call blocks until the gate is closed.
type LoggerFactory struct {
	calls atomic.Int64
	Gate  chan struct{}
}

func (f *LoggerFactory) Build(fakeit.Resolver) (any, error) {
	n := f.calls.Add(1)
	if f.Gate != nil {
		<-f.Gate
	}
	return &CountingLogger{tag: n}, nil
}

func (f *LoggerFactory) Calls() int64 { return f.calls.Load() }

// Widget is a plain transient component.
type Widget struct {
	ID int64
}

type WidgetFactory struct {
	calls atomic.Int64
}

func (f *WidgetFactory) Build(fakeit.Resolver) (any, error) {
	return &Widget{ID: f.calls.Add(1)}, nil
}

func (f *WidgetFactory) Calls() int64 { return f.calls.Load() }

// ErrFlaky is returned by FlakyFactory while it is still failing.
var ErrFlaky = errors.New("simulated construction failure")

// FlakyFactory fails its first Failures calls, then succeeds.
type FlakyFactory struct {
	Failures int64
	calls    atomic.Int64
}

func (f *FlakyFactory) Build(fakeit.Resolver) (any, error) {
	n := f.calls.Add(1)
	if n <= f.Failures {
		return nil, ErrFlaky
	}
	return &Widget{ID: n}, nil
}

func (f *FlakyFactory) Calls() int64 { return f.calls.Load() }

// FakeGreeter is what a generated fake for Greeter looks like.
type FakeGreeter struct {
	Prefix string
}

func (g *FakeGreeter) Greet(name string) string { return g.Prefix + name }

func (g *FakeGreeter) Name() string { return "fake-greeter" }

// NewFakeGreeter is a builder with one argument.
func NewFakeGreeter(prefix string) *FakeGreeter {
	return &FakeGreeter{Prefix: prefix}
}

// NewDefaultGreeter is a builder with no arguments.
func NewDefaultGreeter() (*FakeGreeter, error) {
	return &FakeGreeter{Prefix: "hello, "}, nil
}

// PlainGreeter implements Greeter but not Named.
type PlainGreeter struct{}

func (PlainGreeter) Greet(name string) string { return name }

// Service depends on Logger and Greeter through the resolver.
type Service struct {
	Logger  Logger
	Greeter Greeter
}

// NewService resolves its dependencies from r.
func NewService(r fakeit.Resolver) (*Service, error) {
	logger, err := fakeit.Make[Logger](r)
	if err != nil {
		return nil, err
	}
	greeter, err := fakeit.Make[Greeter](r)
	if err != nil {
		return nil, err
	}
	return &Service{Logger: logger, Greeter: greeter}, nil
}
