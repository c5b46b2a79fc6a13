package exdyn

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

type (
	// Entry is one discovered extension: the identifier derived from the
	// artifact filename paired with the artifact path. Entries are produced
	// fresh by every [Discover] call and never cached.
	Entry struct {
		Name string // identifier, filename with platform prefix and suffix stripped
		Path string // absolute or caller-relative artifact path
	}
)

// LibraryPrefix is the current platform's shared-library filename prefix.
var LibraryPrefix = func() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return "lib"
}()

// LibrarySuffix is the current platform's shared-library filename suffix.
var LibrarySuffix = func() string {
	switch runtime.GOOS {
	case "windows":
		return ".dll"
	case "darwin":
		return ".dylib"
	default:
		return ".so"
	}
}()

// Discover scans dir (non-recursive) for extension artifacts named by the
// platform convention LibraryPrefix+identifier+LibrarySuffix and yields one
// Entry per match, sorted by identifier. Entries that do not classify
// (directories, wrong prefix or suffix, empty identifier) are skipped;
// a directory that cannot be read fails the whole call. Two artifacts
// deriving the same identifier are rejected with ErrDuplicateExtension.
func Discover(dir string) (entries []Entry, err error) {
	var st os.FileInfo
	if st, err = os.Stat(dir); err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("discover %s: %w", dir, ErrNotDirectory)
	}
	var items []os.DirEntry
	if items, err = os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	files := make([]string, 0, len(items))
	for _, it := range items {
		if it.IsDir() {
			continue
		}
		files = append(files, it.Name())
	}
	return entriesFrom(dir, files)
}

// entriesFrom classifies plain filenames into sorted entries, rejecting
// identifier collisions.
func entriesFrom(dir string, files []string) (entries []Entry, err error) {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		name, ok := identifierOf(f)
		if !ok {
			continue
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q from %s and %s", ErrDuplicateExtension, name, prev, f)
		}
		seen[name] = f
		entries = append(entries, Entry{Name: name, Path: filepath.Join(dir, f)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return
}

// identifierOf strips the platform prefix and suffix, reporting whether the
// filename classifies as an extension artifact at all.
func identifierOf(file string) (string, bool) {
	if !strings.HasPrefix(file, LibraryPrefix) || !strings.HasSuffix(file, LibrarySuffix) {
		return "", false
	}
	id := file[len(LibraryPrefix) : len(file)-len(LibrarySuffix)]
	if id == "" {
		return "", false
	}
	return id, true
}

// ArtifactName is the inverse of identifier derivation: the artifact
// filename the current platform expects for an extension identifier.
func ArtifactName(identifier string) string {
	return LibraryPrefix + identifier + LibrarySuffix
}
