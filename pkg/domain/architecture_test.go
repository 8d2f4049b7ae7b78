package domain

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TestDomainImportsStandardLibraryOnly keeps the domain layer a leaf: it must
// not depend on internal packages or third-party modules.
func TestDomainImportsStandardLibraryOnly(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working dir: %v", err)
	}
	entries, err := os.ReadDir(wd)
	if err != nil {
		t.Fatalf("cannot read dir: %v", err)
	}
	fset := token.NewFileSet()
	violations := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(wd, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range file.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			first := strings.SplitN(path, "/", 2)[0]
			if strings.Contains(first, ".") || first == "lostfound" {
				violations++
				t.Errorf("domain package must only import the standard library: %s (%s)", path, name)
			}
		}
	}
	if violations > 0 {
		t.Fatalf("found %d forbidden imports in domain package", violations)
	}
}
