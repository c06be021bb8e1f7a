package dsl_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	g "github.com/reoring/msgskema/dsl"
)

const catalogYAML = `
schemas:
  point: (class Point (field x int) (field y int))
  path: (array point)
  tags: (map string (array string))
`

func TestLoadCatalog(t *testing.T) {
	c, err := g.LoadCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(c.Names(), []string{"point", "path", "tags"}) {
		t.Fatalf("declaration order lost: %v", c.Names())
	}
	path, ok := c.Lookup("path")
	if !ok {
		t.Fatalf("path not found")
	}
	want := "(array (class Point (field x int) (field y int)))"
	if path.Expression() != want {
		t.Fatalf("got %q, want %q", path.Expression(), want)
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Fatalf("unexpected lookup hit")
	}
}

func TestLoadCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"forward reference": "schemas:\n  path: (array point)\n  point: int\n",
		"duplicate":         "schemas:\n  a: int\n  a: long\n",
		"not a mapping":     "schemas:\n  - int\n",
		"non-scalar entry":  "schemas:\n  a:\n    b: int\n",
		"bad expression":    "schemas:\n  a: (array\n",
		"bad yaml":          "schemas: [",
	}
	for name, doc := range cases {
		if _, err := g.LoadCatalog([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadCatalog_Empty(t *testing.T) {
	c, err := g.LoadCatalog([]byte("{}"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Names()) != 0 {
		t.Fatalf("expected no schemas, got %v", c.Names())
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "schemas.yaml")
	if err := os.WriteFile(p, []byte(catalogYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := g.LoadCatalogFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Names()) != 3 {
		t.Fatalf("unexpected names %v", c.Names())
	}
	_, err = g.LoadCatalogFile(filepath.Join(dir, "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "nope.yaml") {
		t.Fatalf("expected missing file error, got %v", err)
	}
}
