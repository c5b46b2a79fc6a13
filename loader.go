package exdyn

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	// Loader opens extension libraries and invokes their entrypoints.
	// Linked modules land in process-wide resident state shared by every
	// Loader; the Loader itself only carries logging and type
	// registration concerns.
	//
	// Opening and linking are synchronous, potentially slow operations;
	// keep them off latency-sensitive scheduling paths.
	Loader struct {
		mu    sync.Mutex
		log   zerolog.Logger
		types []any
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*Loader)
)

// WithLogger replaces the loader's logger, by default the global zerolog
// logger.
func WithLogger(l zerolog.Logger) LoaderOption {
	return func(ld *Loader) { ld.log = l }
}

// WithTypes registers host types with every module the loader links, same
// as UseGlobalTypes but scoped to this loader's loads.
func WithTypes(types ...any) LoaderOption {
	return func(ld *Loader) { ld.types = append(ld.types, types...) }
}

// NewLoader creates a loader. The shared symbol table is built lazily at
// the first artifact load.
func NewLoader(opts ...LoaderOption) *Loader {
	ld := &Loader{log: log.Logger}
	for _, o := range opts {
		o(ld)
	}
	return ld
}

// Open maps the entry's library into the process, or returns the already
// resident module for its identifier. An entrypoint registered in-process
// under the same identifier takes precedence and involves no artifact.
func (l *Loader) Open(e Entry) (Library, error) {
	if ep, ok := registeredOf(e.Name); ok {
		l.log.Debug().Str("extension", e.Name).Msg("using in-process entrypoint")
		return &registered{name: e.Name, ep: ep}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := residentOf(e.Name); ok {
		return m, nil
	}
	tab, err := globalSymbols()
	if err != nil {
		return nil, fmt.Errorf("%w: symbol table: %w", ErrLibraryLoad, err)
	}
	m := newModule(e.Name, e.Path, tab)
	if err = l.linkModule(m); err != nil {
		l.log.Error().Str("extension", e.Name).Str("path", e.Path).
			Strs("missing", m.MissingSymbols()).Err(err).Msg("linking extension failed")
		return nil, err
	}
	l.export(m)
	retain(m)
	l.log.Info().Str("extension", e.Name).Str("path", e.Path).Msg("extension library resident")
	return m, nil
}

// linkModule initializes and links the module under the shared-table
// lock: goloader reads the table while linking, and other loaders may
// mutate it concurrently.
func (l *Loader) linkModule(m *Module) (err error) {
	symtabMu.Lock()
	defer symtabMu.Unlock()
	if err = m.initialize(l.types...); err != nil {
		return
	}
	return m.link()
}

// export publishes the module's own symbols into the shared table so later
// modules may depend on them. First load wins; host symbols are never
// shadowed.
func (l *Loader) export(m *Module) {
	symtabMu.Lock()
	defer symtabMu.Unlock()
	for s, u := range m.module.Syms {
		if _, ok := m.syms[s]; !ok {
			m.syms[s] = u
		}
	}
}

// LaunchDyn opens the entry's library and invokes its entrypoint with the
// erased context, reclaiming the returned handle into an owned Task. The
// library stays resident regardless of the outcome.
//
// The entrypoint executes third-party code in-process: a panic out of it
// is not recovered and takes the host down. That limitation is accepted,
// not worked around here.
func (l *Loader) LaunchDyn(e Entry, dctx *ContextDyn) (*Task, error) {
	lib, err := l.Open(e)
	if err != nil {
		return nil, err
	}
	handle, err := lib.Entrypoint()
	if err != nil {
		return nil, err
	}
	ep, err := handle.Reclaim()
	if err != nil {
		return nil, err
	}
	start := ep(dctx)
	t := newTask(e.Name, start, lib)
	l.log.Info().Str("extension", e.Name).Stringer("launch", t.ID()).Msg("extension launched")
	return t, nil
}

// Launch erases the generic context and launches the entry with it. The
// context is consumed by this single invocation.
func Launch[C ChainSpec](l *Loader, e Entry, ctx Context[C]) (*Task, error) {
	return l.LaunchDyn(e, IntoDyn(ctx))
}

// LaunchAll discovers dir and launches every entry in identifier order,
// with a per-extension context from mkctx. An identifier on the loaded
// config's disabled list is skipped without loading its artifact. A
// failing extension is reported and skipped; its siblings still launch.
// The joined error carries every per-extension failure.
func LaunchAll[C ChainSpec](l *Loader, dir string, mkctx func(Entry) Context[C]) ([]*Task, error) {
	entries, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	var (
		tasks []*Task
		errs  []error
	)
	for _, e := range entries {
		ctx := mkctx(e)
		if ctx.Loaded != nil && !ctx.Loaded.Extensions.Enabled(e.Name) {
			l.log.Info().Str("extension", e.Name).Msg("extension disabled, skipping")
			continue
		}
		t, err := Launch(l, e, ctx)
		if err != nil {
			l.log.Error().Str("extension", e.Name).Err(err).Msg("launching extension failed")
			errs = append(errs, fmt.Errorf("launch %s: %w", e.Name, err))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, errors.Join(errs...)
}
