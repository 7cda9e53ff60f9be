package load

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestPackages(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}

	pkgs, err := Packages(context.Background(), []string{"github.com/sirkon/jumbotrace/events"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("%d packages loaded", len(pkgs))
	}

	pkg := pkgs[0]
	if pkg.Types == nil || pkg.TypesInfo == nil {
		t.Fatal("package is not type checked")
	}

	files := Files(pkg, true)
	if len(files) == 0 {
		t.Fatal("no files")
	}
	for _, f := range files {
		if !strings.HasSuffix(f.Name, ".go") || !filepath.IsAbs(f.Name) {
			t.Errorf("unexpected file name %s", f.Name)
		}
	}
}

func TestPackagesError(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}

	if _, err := Packages(context.Background(), []string{"github.com/sirkon/jumbotrace/nonexistent"}, Options{}); err == nil {
		t.Error("error expected")
	}
}
