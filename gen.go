package exdyn

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
)

// Shape classifies an author's function against the accepted entrypoint
// shapes.
type Shape int

const (
	// ShapeInvalid matches neither accepted shape.
	ShapeInvalid Shape = iota
	// ShapeInit is func(context.Context, *ContextDyn) (RunFunc, error).
	ShapeInit
	// ShapeRun is func(context.Context, *ContextDyn) error.
	ShapeRun
)

// ValidateEntrypoint parses the extension source and classifies the named
// top-level function. A function matching neither shape fails the build
// with ErrBadSignature.
func ValidateEntrypoint(src []byte, funcName string) (Shape, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "extension.go", src, parser.SkipObjectResolution)
	if err != nil {
		return ShapeInvalid, fmt.Errorf("parse extension source: %w", err)
	}
	for _, d := range file.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok || fd.Recv != nil || fd.Name.Name != funcName {
			continue
		}
		return classify(fd.Type)
	}
	return ShapeInvalid, fmt.Errorf("%w: no top-level function %q", ErrBadSignature, funcName)
}

func classify(ft *ast.FuncType) (Shape, error) {
	params := flatten(ft.Params)
	if len(params) != 2 || !isSelector(params[0], "context", "Context") || !isContextDynPtr(params[1]) {
		return ShapeInvalid, fmt.Errorf("%w: parameters must be (context.Context, *ContextDyn)", ErrBadSignature)
	}
	results := flatten(ft.Results)
	switch len(results) {
	case 1:
		if isIdent(results[0], "error") {
			return ShapeRun, nil
		}
	case 2:
		if isSelector(results[0], "", "RunFunc") && isIdent(results[1], "error") {
			return ShapeInit, nil
		}
	}
	return ShapeInvalid, fmt.Errorf("%w: results must be (RunFunc, error) or error", ErrBadSignature)
}

func flatten(fl *ast.FieldList) (types []ast.Expr) {
	if fl == nil {
		return
	}
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			types = append(types, f.Type)
		}
	}
	return
}

// isSelector matches pkg.Name; an empty pkg accepts any package alias.
func isSelector(e ast.Expr, pkg, name string) bool {
	s, ok := e.(*ast.SelectorExpr)
	if !ok || s.Sel.Name != name {
		return false
	}
	id, ok := s.X.(*ast.Ident)
	return ok && (pkg == "" || id.Name == pkg)
}

func isContextDynPtr(e ast.Expr) bool {
	p, ok := e.(*ast.StarExpr)
	return ok && isSelector(p.X, "", "ContextDyn")
}

func isIdent(e ast.Expr, name string) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == name
}

// GenerateEntrypoint emits the shim source exporting the author's function
// under EntrypointName, in the erased shape the loader resolves. The shim
// belongs next to the author's source in the extension's main package.
func GenerateEntrypoint(funcName string, shape Shape) ([]byte, error) {
	var wrap string
	switch shape {
	case ShapeInit:
		wrap = "NewEntrypoint"
	case ShapeRun:
		wrap = "NewEntrypointOf"
	default:
		return nil, ErrBadSignature
	}
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "// Code generated by the exdyn compile tool. DO NOT EDIT.\n\n")
	fmt.Fprintf(b, "package main\n\n")
	fmt.Fprintf(b, "import exdyn %q\n\n", "github.com/0xurb/exdyn")
	fmt.Fprintf(b, "// %s is the well-known extension entrypoint.\n", EntrypointName)
	fmt.Fprintf(b, "func %s(dctx *exdyn.ContextDyn) exdyn.StartFunc {\n", EntrypointName)
	fmt.Fprintf(b, "\treturn exdyn.%s(%s)(dctx)\n", wrap, funcName)
	fmt.Fprintf(b, "}\n")
	return format.Source(b.Bytes())
}

// GenerateFromSource validates the named function and emits its shim in
// one step.
func GenerateFromSource(src []byte, funcName string) ([]byte, error) {
	shape, err := ValidateEntrypoint(src, funcName)
	if err != nil {
		return nil, err
	}
	return GenerateEntrypoint(funcName, shape)
}
