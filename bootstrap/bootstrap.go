// Package bootstrap wires the framework's own components into a container:
// the proxy generator and the container logger.
package bootstrap

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/centraunit/fakeit"
	"github.com/centraunit/fakeit/proxy"
)

// builderEntry is a proxy builder to install into the generator.
type builderEntry struct {
	target reflect.Type
	fn     any
}

type settings struct {
	builders  []builderEntry
	generator proxy.Generator
}

// Option customizes Configure.
type Option func(*settings)

// WithBuilder installs a proxy builder for target into the default
// BuilderGenerator.
func WithBuilder(target reflect.Type, fn any) Option {
	return func(s *settings) {
		s.builders = append(s.builders, builderEntry{target: target, fn: fn})
	}
}

// WithGenerator replaces the default BuilderGenerator as the resolved
// proxy.Generator.
func WithGenerator(g proxy.Generator) Option {
	return func(s *settings) {
		s.generator = g
	}
}

// Configure registers the framework components on c. It must run during
// setup, before c is shared; a second call fails with a duplicate
// registration error.
func Configure(c *fakeit.Container, opts ...Option) error {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	err := fakeit.BindSingleton(c, func(fakeit.Resolver) (*proxy.BuilderGenerator, error) {
		gen := proxy.NewBuilderGenerator()
		for _, b := range s.builders {
			if err := gen.Register(b.target, b.fn); err != nil {
				return nil, fmt.Errorf("install proxy builder: %w", err)
			}
		}
		return gen, nil
	})
	if err != nil {
		return err
	}

	err = fakeit.BindSingleton(c, func(r fakeit.Resolver) (proxy.Generator, error) {
		if s.generator != nil {
			return s.generator, nil
		}
		return fakeit.Make[*proxy.BuilderGenerator](r)
	})
	if err != nil {
		return err
	}

	logger := c.Logger()
	return fakeit.Bind(c, func(fakeit.Resolver) (*slog.Logger, error) {
		return logger, nil
	})
}

// Generator resolves the configured proxy generator.
func Generator(r fakeit.Resolver) (proxy.Generator, error) {
	return fakeit.Make[proxy.Generator](r)
}
