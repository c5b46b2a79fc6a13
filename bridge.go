package exdyn

import (
	"context"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
)

type (
	// Sym is a fetched symbol: the address of a word holding the symbol's
	// code address. Cast it with [As] directly at the use site; do not
	// store a Sym across module state changes.
	Sym uintptr

	// RunFunc is an extension's steady-state run loop. It may suspend at
	// any internal blocking point and must honor ctx cancellation; its
	// return ends the extension.
	RunFunc func(ctx context.Context) error

	// StartFunc is the startup stage of an extension: it performs the
	// extension's own setup and yields the run loop, or a startup error.
	// The scheduler distinguishes the two stages so it can apply setup
	// timeouts separately from run-phase cancellation.
	StartFunc func(ctx context.Context) (RunFunc, error)

	// Entrypoint is the fixed erased shape of the well-known export. It
	// must return promptly; all fallible or slow work belongs in the
	// returned StartFunc.
	Entrypoint func(dctx *ContextDyn) StartFunc

	// Handle is the one-shot transfer token for an entrypoint crossing the
	// boundary. It is produced once per resolved export and must be
	// reclaimed exactly once: the reclaim yields the callable Entrypoint
	// and arms nothing for a second taking.
	Handle struct {
		take     func() Entrypoint
		reclaim  func() // observer hook, used by loader accounting and tests
		consumed atomic.Bool
	}

	// Task is the owned, host-side unit of work reconstructed from one
	// successful launch: the extension's staged computation plus the
	// library reference that keeps its code resident. A Task is safe to
	// move between goroutines; the external scheduler owns it after
	// launch.
	Task struct {
		id      uuid.UUID
		name    string
		start   StartFunc
		library Library
		started atomic.Bool
	}
)

// As reconstitutes a fetched symbol into its concrete function type. The
// result is safe to call repeatedly; the Sym itself should not be reused.
func As[T any](ptr Sym) (x T) {
	px := (*T)(unsafe.Pointer(&ptr))
	x = *px
	return
}

// NewHandle wraps an already-typed entrypoint into a transfer token, used
// on the in-process path and by test doubles. onReclaim, if given, is
// invoked exactly once, at the successful reclaim.
func NewHandle(ep Entrypoint, onReclaim ...func()) *Handle {
	h := &Handle{take: func() Entrypoint { return ep }}
	if len(onReclaim) > 0 {
		h.reclaim = onReclaim[0]
	}
	return h
}

// Reclaim consumes the handle, yielding the entrypoint. A second reclaim
// fails with ErrHandleConsumed and yields nothing.
func (h *Handle) Reclaim() (Entrypoint, error) {
	if !h.consumed.CompareAndSwap(false, true) {
		return nil, ErrHandleConsumed
	}
	if h.reclaim != nil {
		h.reclaim()
	}
	return h.take(), nil
}

// Consumed reports whether the handle has been reclaimed.
func (h *Handle) Consumed() bool {
	return h.consumed.Load()
}

func newTask(name string, start StartFunc, lib Library) *Task {
	return &Task{id: uuid.New(), name: name, start: start, library: lib}
}

// ID is the unique launch id of this task, fresh per launch.
func (t *Task) ID() uuid.UUID { return t.id }

// Name is the extension identifier the task was launched from.
func (t *Task) Name() string { return t.name }

// Library is the resident library backing the task's code.
func (t *Task) Library() Library { return t.library }

// Start drives the startup stage once and yields the run loop. Calling it
// again fails with ErrTaskStarted regardless of the first outcome.
func (t *Task) Start(ctx context.Context) (RunFunc, error) {
	if !t.started.CompareAndSwap(false, true) {
		return nil, ErrTaskStarted
	}
	return t.start(ctx)
}

// Run drives both stages to completion: startup, then the run loop. It is
// the whole lifetime of the extension as a single blocking call.
func (t *Task) Run(ctx context.Context) error {
	run, err := t.Start(ctx)
	if err != nil {
		return err
	}
	return run(ctx)
}
