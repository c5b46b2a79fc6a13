package exdyn

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ZenLiuCN/fn"
	"github.com/pkujhd/goloader"
	"github.com/pkujhd/goloader/obj"
	"github.com/rs/zerolog/log"
)

// BuildArtifact compiles extension go sources into a loadable artifact in
// dir, named by the platform convention for the identifier, and returns
// the artifact path. Requires a go sdk prepared for object compilation
// (see the compile tool's prepare command).
func BuildArtifact(debug bool, identifier, dir string, sources []string) (path string, err error) {
	if err = WriteImportcfg(debug, sources); err != nil {
		return
	}
	path = filepath.Join(dir, ArtifactName(identifier))
	args := append([]string{"tool", "compile", "-importcfg", "importcfg", "-o", path}, sources...)
	cmd := exec.Command("go", args...)
	if debug {
		log.Debug().Strs("args", cmd.Args).Msg("compile artifact")
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err = cmd.Run(); err != nil {
		return "", fmt.Errorf("compile %s: %w", identifier, err)
	}
	if !debug {
		err = os.Remove("importcfg")
	}
	return
}

// WriteImportcfg resolves the sources' package dependencies and writes the
// importcfg file the object compiler reads, in the working directory.
func WriteImportcfg(debug bool, sources []string) (err error) {
	var cfg *os.File
	if cfg, err = os.OpenFile("importcfg", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.ModePerm); err != nil {
		return
	}
	defer fn.IgnoreClose(cfg)
	out, err := listImports(debug, append([]string{"list", "-export", "-f", "{{.Imports}}"}, sources...))
	if err != nil {
		return err
	}
	if out != "" && out[0] == '[' {
		out = out[1 : len(out)-1]
	}
	deps := strings.Split(out, " ")
	if debug {
		log.Debug().Strs("deps", deps).Msg("extension dependencies")
	}
	out, err = listImports(debug, append([]string{
		"list", "-export", "-f",
		"{{if .Export}}packagefile {{.ImportPath}}={{.Export}}{{end}}", "std",
	}, deps...))
	if err != nil {
		return err
	}
	_, err = cfg.WriteString(out)
	return
}

func listImports(debug bool, args []string) (string, error) {
	cmd := exec.Command("go", args...)
	if debug {
		log.Debug().Strs("args", cmd.Args).Msg("resolve imports")
	}
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("resolve imports: %w\nerr:%s\nout:%s", err, ee.Stderr, out)
		}
		return "", fmt.Errorf("resolve imports: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CopyFile from src to dest with optional src file info.
func CopyFile(src string, dest string, si fs.FileInfo) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer fn.IgnoreClose(sf)
	df, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer fn.IgnoreClose(df)
	_, err = io.Copy(df, sf)
	if err == nil {
		if si == nil {
			if si, err = os.Stat(src); err != nil {
				return
			}
		}
		err = os.Chmod(dest, si.Mode())
	}
	return
}

// CopyDir from src to dest with optional src file info.
func CopyDir(src string, dest string, si fs.FileInfo) (err error) {
	if si == nil {
		if si, err = os.Stat(src); err != nil {
			return err
		}
	}
	if err = os.MkdirAll(dest, si.Mode()); err != nil {
		return err
	}
	var sp string
	return filepath.Walk(src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}
		if sp, err = filepath.Rel(src, filepath.Dir(path)); err != nil {
			return err
		}
		dp := filepath.Join(dest, sp, info.Name())
		if info.IsDir() {
			return CopyDir(path, dp, info)
		}
		return CopyFile(path, dp, info)
	})
}

// Inspect dumps the symbols inside an artifact without linking it.
func Inspect(file string) ([]string, error) {
	return goloader.Parse(file, "main")
}

// ArtifactInfo is the import surface of one artifact: every package it
// pulls in, with the module version when one can be recovered from the
// compile units.
type ArtifactInfo struct {
	File    string
	Imports map[string]string
}

func (i ArtifactInfo) String() string {
	s := strings.Builder{}
	for p, v := range i.Imports {
		if v != "" {
			s.WriteString(fmt.Sprintf("\t%s@%s\n", p, v))
		} else {
			s.WriteString(fmt.Sprintf("\t%s\n", p))
		}
	}
	return s.String()
}

// ArtifactImports parses an artifact and resolves its imported packages
// and, where recoverable, their module versions. Diagnostic for authors
// checking what their extension drags across the boundary.
func ArtifactImports(file string) (*ArtifactInfo, error) {
	p := &obj.Pkg{Syms: make(map[string]*obj.ObjSymbol), File: file, PkgPath: "main"}
	if err := p.Symbols(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	info := &ArtifactInfo{File: file, Imports: make(map[string]string, len(p.ImportPkgs))}
	for _, pkg := range p.ImportPkgs {
		info.Imports[pkg] = ""
	}
	for _, f := range p.CUFiles {
		f = strings.TrimPrefix(f, "gofile..")
		if strings.HasPrefix(f, "$GOROOT") {
			continue
		}
		if strings.IndexByte(f, '!') >= 0 {
			f = unescapeImport(f)
		}
		for pkg := range info.Imports {
			if x := strings.Index(f, pkg); x >= 0 && info.Imports[pkg] == "" {
				rest := f[x+len(pkg):]
				if y := strings.IndexByte(rest, '@'); y >= 0 {
					ver := rest[y+1:]
					if z := strings.IndexByte(ver, '/'); z >= 0 {
						info.Imports[pkg] = ver[:z]
					}
				}
			}
		}
	}
	return info, nil
}

// unescapeImport undoes the go object file path escaping where '!x' marks
// an upper-case letter.
func unescapeImport(f string) string {
	v := strings.Builder{}
	up := false
	for _, c := range []byte(f) {
		switch {
		case c == '!':
			up = true
		case up:
			up = false
			v.WriteByte(c - 32)
		default:
			v.WriteByte(c)
		}
	}
	return v.String()
}
