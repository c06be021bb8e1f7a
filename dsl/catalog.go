package dsl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	msgskema "github.com/reoring/msgskema"
)

// Catalog is an ordered set of named schemas loaded from YAML:
//
//	schemas:
//	  point: (class Point (field x int) (field y int))
//	  path: (array point)
//
// Entries may reference earlier names.
type Catalog struct {
	names   []string
	schemas map[string]msgskema.Schema
}

type catalogFile struct {
	Schemas yaml.Node `yaml:"schemas"`
}

// LoadCatalog parses a YAML catalog document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("dsl: catalog: %w", err)
	}
	c := &Catalog{schemas: map[string]msgskema.Schema{}}
	n := &f.Schemas
	if n.Kind == 0 {
		return c, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("dsl: catalog: line %d: schemas must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if vn.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("dsl: catalog: line %d: schema %q must be an expression string", vn.Line, kn.Value)
		}
		if _, dup := c.schemas[kn.Value]; dup {
			return nil, fmt.Errorf("dsl: catalog: line %d: duplicate schema %q", kn.Line, kn.Value)
		}
		s, err := ParseWith(vn.Value, c.Lookup)
		if err != nil {
			return nil, fmt.Errorf("dsl: catalog: line %d: schema %q: %w", vn.Line, kn.Value, err)
		}
		c.names = append(c.names, kn.Value)
		c.schemas[kn.Value] = s
	}
	return c, nil
}

// LoadCatalogFile reads and parses a YAML catalog file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadCatalog(data)
}

// Lookup returns the schema declared under name.
func (c *Catalog) Lookup(name string) (msgskema.Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// Names returns schema names in declaration order.
func (c *Catalog) Names() []string { return append([]string(nil), c.names...) }
