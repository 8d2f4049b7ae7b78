package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImportPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal", InternalImportForbidden, "lostfound/internal/core", true},
		{"internal pkg", InternalImportForbidden, "lostfound/pkg/itemcode", false},
		{"infra", InfraImportForbidden, "lostfound/internal/infra/blob/s3", true},
		{"infra facade", InfraImportForbidden, "lostfound/internal/blob", false},
		{"third party", ThirdPartyImport, "go.uber.org/zap", true},
		{"stdlib", ThirdPartyImport, "net/url", false},
		{"module", ThirdPartyImport, "lostfound/pkg/domain", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "ok.go", "package tmp\nimport \"fmt\"\nfunc X() { fmt.Println(1) }\n")
	writeSource(t, dir, "bad.go", "package tmp\nimport _ \"lostfound/internal/infra/blob/fs\"\n")
	writeSource(t, dir, "bad_test.go", "package tmp\nimport _ \"lostfound/internal/infra/blob/s3\"\n")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, filepath.Join(dir, "sub"), "sub.go", "package sub\nimport _ \"lostfound/internal/infra/x\"\n")

	viols, err := directImportViolations(dir, InfraImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "bad.go") {
		t.Fatalf("expected only bad.go to violate, got %v", viols)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")

	writeSource(t, dir, "broken.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, InfraImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), InfraImportForbidden); err == nil {
		t.Fatalf("expected read error")
	}
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) {
	r.msg = format
}

func TestTransitiveViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nlostfound/pkg/domain\n\ngo.uber.org/zap\n"), nil
	}
	viols, _, err := transitiveDependencyViolations(".", ThirdPartyImport)
	if err != nil || len(viols) != 1 || viols[0] != "go.uber.org/zap" {
		t.Fatalf("unexpected violations %v %v", viols, err)
	}

	var r recorder
	failIfTransitiveViolations(&r, "stdlib only", viols)
	if r.msg == "" {
		t.Fatalf("expected fatal on transitive violation")
	}
	r = recorder{}
	failIfDirectViolations(&r, "none", nil)
	if r.msg != "" {
		t.Fatalf("unexpected fatal")
	}
}
