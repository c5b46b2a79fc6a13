package exdyn

import (
	"sync"

	"github.com/pkujhd/goloader"
)

// Process-wide loading state. The symbol table is built once, lazily, from
// the running executable; every linked module is retained here with no
// teardown hook other than process exit. Unloading is deliberately absent:
// tasks produced from a module keep executing its mapped code for their
// whole lifetime.
var (
	symtab     map[string]uintptr
	symtabOnce sync.Once
	symtabErr  error
	// symtabMu serializes every access to symtab after its build: the
	// table is shared by all Loaders in the process.
	symtabMu sync.Mutex

	residentMu sync.RWMutex
	resident   = make(map[string]*Module)

	registryMu sync.RWMutex
	registry   = make(map[string]Entrypoint)
)

func globalSymbols() (map[string]uintptr, error) {
	symtabOnce.Do(func() {
		symtab = make(map[string]uintptr)
		symtabErr = goloader.RegSymbol(symtab)
	})
	return symtab, symtabErr
}

// UseGlobalTypes registers host types an extension artifact refers to, so
// their runtime type information resolves across the boundary. Call before
// the first load that needs them.
func UseGlobalTypes(types ...any) error {
	tab, err := globalSymbols()
	if err != nil {
		return err
	}
	symtabMu.Lock()
	defer symtabMu.Unlock()
	goloader.RegTypes(tab, types...)
	return nil
}

// UseGlobalSo registers symbol information from a shared object the host
// links against, resolving extension dependencies on it.
func UseGlobalSo(path string) error {
	tab, err := globalSymbols()
	if err != nil {
		return err
	}
	symtabMu.Lock()
	defer symtabMu.Unlock()
	return goloader.RegSymbolWithSo(tab, path)
}

// UseGlobalPath registers symbol information from an executable on disk
// instead of the running one.
func UseGlobalPath(path string) error {
	tab, err := globalSymbols()
	if err != nil {
		return err
	}
	symtabMu.Lock()
	defer symtabMu.Unlock()
	return goloader.RegSymbolWithPath(tab, path)
}

// Register binds an entrypoint to an identifier in the same binary,
// bypassing the artifact path. This is the relaxed in-process mode: both
// sides share the exact compiled types, so the erased symbol crossing is
// unnecessary. Production cross-artifact loading never uses it.
func Register(name string, ep Entrypoint) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return ErrAlreadyRegistered
	}
	registry[name] = ep
	return nil
}

// Unregister removes an in-process entrypoint. Test helper; resident
// modules have no counterpart.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

func registeredOf(name string) (Entrypoint, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ep, ok := registry[name]
	return ep, ok
}

func retain(m *Module) {
	residentMu.Lock()
	defer residentMu.Unlock()
	resident[m.name] = m
}

func residentOf(name string) (*Module, bool) {
	residentMu.RLock()
	defer residentMu.RUnlock()
	m, ok := resident[name]
	return m, ok
}

// ResidentLibraries snapshots the modules mapped into the process. They
// stay valid until process exit.
func ResidentLibraries() map[string]Library {
	residentMu.RLock()
	defer residentMu.RUnlock()
	v := make(map[string]Library, len(resident))
	for n, m := range resident {
		v[n] = m
	}
	return v
}
