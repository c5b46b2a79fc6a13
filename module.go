package exdyn

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/ZenLiuCN/fn"
	"github.com/pkujhd/goloader"
)

type (
	// Library is an in-process-mapped extension library. Its exports can
	// be resolved into entrypoint handles; the library itself stays
	// resident for the rest of the process once any task was produced
	// from it.
	Library interface {
		// Name is the extension identifier the library was loaded for.
		Name() string
		// Entrypoint resolves the well-known export into a fresh one-shot
		// handle, or fails with ErrMissingEntrypoint.
		Entrypoint() (*Handle, error)
	}

	// Module is an extension artifact linked into executable memory by
	// goloader. There is no unload: the code and data of every task
	// produced from the module live inside the mapped memory, so a linked
	// Module has process lifetime.
	Module struct {
		name   string
		file   string
		syms   map[string]uintptr
		linker *goloader.Linker
		module *goloader.CodeModule
	}

	// registered is the in-process form of a library: an entrypoint
	// registered from the same binary, with no artifact behind it.
	registered struct {
		name string
		ep   Entrypoint
	}
)

func newModule(name, file string, syms map[string]uintptr) *Module {
	return &Module{name: name, file: file, syms: syms}
}

// initialize reads the artifact's object data and creates the linker.
func (m *Module) initialize(types ...any) (err error) {
	if len(types) > 0 {
		goloader.RegTypes(m.syms, types...)
	}
	if m.linker, err = goloader.ReadObj(m.file, "main"); err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrLibraryLoad, m.file, err)
	}
	return
}

// link maps the module into executable memory against the shared symbol
// table. After a successful link the module is permanent.
func (m *Module) link() (err error) {
	if m.module, err = goloader.Load(m.linker, m.syms); err != nil {
		return fmt.Errorf("%w: link %s: %w", ErrLibraryLoad, m.file, err)
	}
	return
}

// Name is the extension identifier.
func (m *Module) Name() string { return m.name }

// Path is the artifact the module was read from.
func (m *Module) Path() string { return m.file }

// Entrypoint fetches the well-known export as a one-shot handle. The
// symbol is cast to its typed form right here: once a real function
// value exists the runtime traces it, while a bare Sym held across time
// would not keep anything alive.
func (m *Module) Entrypoint() (*Handle, error) {
	sym, ok := m.Fetch(EntrypointSymbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingEntrypoint, EntrypointSymbol, m.file)
	}
	return NewHandle(As[Entrypoint](sym)), nil
}

// Fetch resolves a symbol of the linked module. Symbols without a package
// qualifier default to the main package.
func (m *Module) Fetch(sym string) (u Sym, ok bool) {
	if m.module == nil {
		return
	}
	var p uintptr
	if p, ok = m.module.Syms[qualified(sym)]; !ok {
		return
	}
	return (Sym)(unsafe.Pointer(&p)), ok
}

// Exports dumps the linked module's symbol names.
func (m *Module) Exports() []string {
	if m.module == nil {
		return nil
	}
	return fn.MapKeys(m.module.Syms)
}

// MissingSymbols dumps symbols the module needs but the shared table does
// not carry. Diagnostic for a failed link.
func (m *Module) MissingSymbols() []string {
	if m.linker == nil {
		return nil
	}
	symtabMu.Lock()
	defer symtabMu.Unlock()
	return goloader.UnresolvedSymbols(m.linker, m.syms)
}

func qualified(sym string) string {
	if strings.IndexByte(sym, '.') < 0 {
		return "main." + sym
	}
	return sym
}

func (r *registered) Name() string { return r.name }

func (r *registered) Entrypoint() (*Handle, error) {
	return NewHandle(r.ep), nil
}
