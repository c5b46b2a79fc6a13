package exdyn

import "context"

// EntrypointName is the name every extension must export from its main
// package. EntrypointSymbol is the fully qualified symbol the loader
// resolves. This pair is the entire wire contract between host and
// extension; there is no versioning field and no capability negotiation.
const (
	EntrypointName   = "LaunchExEx"
	EntrypointSymbol = "main." + EntrypointName
)

type (
	// InitFunc is the direct authoring shape: a fallible startup that
	// yields the extension's run loop.
	InitFunc func(ctx context.Context, dctx *ContextDyn) (RunFunc, error)

	// ExtensionFunc is the wrapped authoring shape: a plain run function
	// with no distinct startup stage.
	ExtensionFunc func(ctx context.Context, dctx *ContextDyn) error
)

// NewEntrypoint erases a direct-style extension function into the
// conforming export shape. The generated export returns promptly; the
// author's setup runs when the scheduler starts the task.
func NewEntrypoint(fn InitFunc) Entrypoint {
	return func(dctx *ContextDyn) StartFunc {
		return func(ctx context.Context) (RunFunc, error) {
			return fn(ctx, dctx)
		}
	}
}

// NewEntrypointOf erases a wrapped-style extension function: startup
// trivially succeeds and the function itself becomes the run loop.
func NewEntrypointOf(fn ExtensionFunc) Entrypoint {
	return func(dctx *ContextDyn) StartFunc {
		return func(ctx context.Context) (RunFunc, error) {
			return func(ctx context.Context) error {
				return fn(ctx, dctx)
			}, nil
		}
	}
}
