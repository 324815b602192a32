package proxy

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// builder is one registered constructor for a target interface.
type builder struct {
	fn  reflect.Value
	typ reflect.Type
}

// BuilderGenerator is a Generator backed by constructor functions that
// generated fakes register for their interface. A builder is any function
// returning a value assignable to the target, optionally followed by an
// error:
//
//	gen.Register(proxy.TypeOf[Greeter](), func(name string) *FakeGreeter { ... })
//	gen.Register(proxy.TypeOf[Greeter](), func() (*FakeGreeter, error) { ... })
//
// Several builders may be registered per target; TryCreateProxy uses the
// first, in registration order, whose parameters accept the arguments.
type BuilderGenerator struct {
	mu       sync.RWMutex
	builders map[reflect.Type][]builder
}

var _ Generator = (*BuilderGenerator)(nil)

// NewBuilderGenerator returns an empty generator.
func NewBuilderGenerator() *BuilderGenerator {
	return &BuilderGenerator{builders: make(map[reflect.Type][]builder)}
}

// Register adds a builder for target.
func (g *BuilderGenerator) Register(target reflect.Type, fn any) error {
	if target == nil {
		return fmt.Errorf("proxy: nil target type")
	}
	if target.Kind() != reflect.Interface {
		return fmt.Errorf("proxy: target %v is not an interface", target)
	}
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Errorf("proxy: builder for %v must be a non-nil function, got %T", target, fn)
	}
	t := v.Type()
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return fmt.Errorf("proxy: builder for %v must return (T) or (T, error), got %v", target, t)
	}
	if !t.Out(0).AssignableTo(target) {
		return fmt.Errorf("proxy: builder result %v does not implement %v", t.Out(0), target)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.builders[target] = append(g.builders[target], builder{fn: v, typ: t})
	return nil
}

// Targets lists the interfaces that have at least one builder.
func (g *BuilderGenerator) Targets() []reflect.Type {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]reflect.Type, 0, len(g.builders))
	for t := range g.builders {
		out = append(out, t)
	}
	return out
}

// TryCreateProxy implements Generator.
func (g *BuilderGenerator) TryCreateProxy(target reflect.Type, additional []reflect.Type, args []any) Result {
	if target == nil {
		panic("proxy: TryCreateProxy called with nil target type")
	}
	if target.Kind() != reflect.Interface {
		return NotCreatable(KindNotInterface, "type %v is not an interface and cannot be proxied", target)
	}
	for _, extra := range additional {
		if extra == nil || extra.Kind() != reflect.Interface {
			return NotCreatable(KindNotInterface, "additional type %v is not an interface", extra)
		}
	}

	g.mu.RLock()
	candidates := g.builders[target]
	g.mu.RUnlock()
	if len(candidates) == 0 {
		return NotCreatable(KindNoBuilder, "no proxy builder registered for %v", target)
	}

	for _, b := range candidates {
		in, ok := bindArguments(b.typ, args)
		if !ok {
			continue
		}
		return b.invoke(target, additional, in)
	}
	return NotCreatable(KindArgumentMismatch,
		"no builder for %v accepts arguments (%s)", target, describeArgs(args))
}

// MemberCanBeIntercepted implements Generator.
func (g *BuilderGenerator) MemberCanBeIntercepted(m Member) bool {
	return Interceptable(m)
}

func (b builder) invoke(target reflect.Type, additional []reflect.Type, in []reflect.Value) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = NotCreatable(KindBuilderFailed, "builder for %v panicked: %v", target, r)
		}
	}()

	out := b.fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return NotCreatable(KindBuilderFailed, "builder for %v failed: %v", target, out[1].Interface())
	}
	instance := out[0].Interface()
	if isNil(instance) {
		return NotCreatable(KindBuilderFailed, "builder for %v returned nil", target)
	}
	rt := reflect.TypeOf(instance)
	for _, extra := range additional {
		if !rt.Implements(extra) {
			return NotCreatable(KindMissingInterface, "proxy %v for %v does not implement %v", rt, target, extra)
		}
	}
	return Created(instance)
}

// bindArguments converts args to call values for a function of type t, by
// arity and assignability. Nil arguments match any nillable parameter.
func bindArguments(t reflect.Type, args []any) ([]reflect.Value, bool) {
	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, false
		}
	} else if len(args) != n {
		return nil, false
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var param reflect.Type
		if t.IsVariadic() && i >= n-1 {
			param = t.In(n - 1).Elem()
		} else {
			param = t.In(i)
		}
		v, ok := argumentValue(param, arg)
		if !ok {
			return nil, false
		}
		in[i] = v
	}
	return in, true
}

func argumentValue(param reflect.Type, arg any) (reflect.Value, bool) {
	if arg == nil {
		switch param.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(param), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(param) {
		return reflect.Value{}, false
	}
	return v, true
}

func describeArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = reflect.TypeOf(a).String()
	}
	return strings.Join(parts, ", ")
}
