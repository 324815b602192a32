package fakeit

import "context"

// resolveContext is the Resolver handed to factories. It carries the
// context of the resolution that invoked the factory, so nested resolutions
// parent their spans correctly, and exposes nothing that mutates bindings.
type resolveContext struct {
	container *Container
	ctx       context.Context
}

var _ Resolver = resolveContext{}

func (c *Container) resolver(ctx context.Context) Resolver {
	if ctx == nil {
		ctx = context.Background()
	}
	return resolveContext{container: c, ctx: ctx}
}

func (r resolveContext) Resolve(key Key) (any, error) {
	return r.container.ResolveContext(r.ctx, key)
}

func (r resolveContext) ResolveContext(ctx context.Context, key Key) (any, error) {
	if ctx == nil {
		ctx = r.ctx
	}
	return r.container.ResolveContext(ctx, key)
}

func (r resolveContext) Context() context.Context {
	return r.ctx
}
