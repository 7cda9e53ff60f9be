// Package load loads type checked packages to instrument.
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"log/slog"

	"golang.org/x/tools/go/packages"
)

// Mode is what instrumentation needs from loaded packages.
const Mode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedModule

// Options tunes loading.
type Options struct {
	// Dir is where patterns are resolved, the current directory when empty.
	Dir string

	// Tests adds test packages.
	Tests bool

	// Env overrides the go command environment.
	Env []string

	Logger *slog.Logger
}

// Packages loads packages matching patterns. Packages with errors fail the
// whole load since they can't be rewritten safely.
func Packages(ctx context.Context, patterns []string, opts Options) ([]*packages.Package, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    Mode,
		Dir:     opts.Dir,
		Env:     opts.Env,
		Tests:   opts.Tests,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var errs []error
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Errorf("package %s: %w", pkg.PkgPath, e))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	log.Info("packages loaded", slog.Int("count", len(pkgs)), slog.Any("patterns", patterns))
	return pkgs, nil
}

// File is a syntax file of a package along with its file name.
type File struct {
	Name   string
	Syntax *ast.File
}

// Files pairs syntax trees of pkg with their compiled file names.
// Generated files are left out when skipGenerated is set.
func Files(pkg *packages.Package, skipGenerated bool) []File {
	res := make([]File, 0, len(pkg.Syntax))
	for i, f := range pkg.Syntax {
		if skipGenerated && ast.IsGenerated(f) {
			continue
		}

		name := pkg.Fset.Position(f.Package).Filename
		if name == "" && i < len(pkg.CompiledGoFiles) {
			name = pkg.CompiledGoFiles[i]
		}
		res = append(res, File{Name: name, Syntax: f})
	}
	return res
}
