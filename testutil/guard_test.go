package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"domain", DomainImport, "rotacore/pkg/domain", true},
		{"domain versioned", DomainImport, "example.com/mod/pkg/domain@v1", true},
		{"domain prefix only", DomainImport, "rotacore/pkg/domainutil", false},
		{"internal", InternalImport, "rotacore/internal/solver", true},
		{"internal bare", InternalImport, "example.com/internal", false},
		{"module", ModuleImport, "rotacore/internal/core", true},
		{"module lookalike", ModuleImport, "rotacorex/pkg", false},
		{"third party", ThirdPartyImport, "github.com/google/uuid", true},
		{"third party gopkg", ThirdPartyImport, "gopkg.in/yaml.v3", true},
		{"stdlib", ThirdPartyImport, "encoding/json", false},
		{"stdlib single", ThirdPartyImport, "context", false},
		{"except allowed", ModuleImportExcept("rotacore/pkg/domain"), "rotacore/pkg/domain", false},
		{"except other", ModuleImportExcept("rotacore/pkg/domain"), "rotacore/internal/core", true},
		{"except foreign", ModuleImportExcept(), "github.com/x/y", false},
		{"third party allowed", ThirdPartyImportExcept("github.com/x/y"), "github.com/x/y", false},
		{"third party allowed sub", ThirdPartyImportExcept("github.com/x/y"), "github.com/x/y/z", false},
		{"third party sibling", ThirdPartyImportExcept("github.com/x/y"), "github.com/x/yz", true},
		{"third party stdlib", ThirdPartyImportExcept(), "net/http", false},
		{"any of", AnyOf(DomainImport, ThirdPartyImport), "go.uber.org/zap", true},
		{"any of none", AnyOf(DomainImport, ThirdPartyImport), "sort", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\tz \"go.uber.org/zap\"\n)\nvar _ = fmt.Sprint\nvar _ = z.L\n")
	writeGo(t, dir, "a_test.go", "package tmp\nimport \"github.com/stretchr/testify/require\"\nvar _ = require.True\n")
	writeGo(t, dir, "notes.txt", "import \"github.com/x/y\"")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeGo(t, filepath.Join(dir, "sub"), "b.go", "package sub\nimport \"github.com/x/y\"\n")

	viols, err := directImportViolations(dir, ThirdPartyImport)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "go.uber.org/zap (in a.go)" {
		t.Fatalf("unexpected violations: %v", viols)
	}
	AssertNoDirectImports(t, dir, DomainImport, "no domain import")
}

func TestDirectImportViolationsParseError(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "broken.go", "package\n")
	if _, err := directImportViolations(dir, ThirdPartyImport); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), ThirdPartyImport); err == nil {
		t.Fatalf("expected read error")
	}
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestFailIfViolations(t *testing.T) {
	var rec recordingFatal
	failIfViolations(&rec, "direct imports", "layering", nil)
	if rec.msg != "" {
		t.Fatalf("no violations should not fail, got %q", rec.msg)
	}
	failIfViolations(&rec, "direct imports", "layering", []string{"a", "b"})
	if !strings.Contains(rec.msg, "forbidden direct imports detected (layering)") || !strings.Contains(rec.msg, "a\nb") {
		t.Fatalf("unexpected message %q", rec.msg)
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("context\nrotacore/internal/solver\n\nrotacore/pkg/domain\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", DomainImport)
	if err != nil || len(viols) != 1 || viols[0] != "rotacore/pkg/domain" {
		t.Fatalf("viols=%v err=%v", viols, err)
	}
	AssertNoTransitiveDependency(t, "./...", ThirdPartyImport, "stub output is stdlib and module only")

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations(".", DomainImport); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure, got out=%q err=%v", out, err)
	}
}
