package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reoring/msgskema/internal/gen"
	ir "github.com/reoring/msgskema/internal/ir"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Generate PackMsg/UnpackMsg methods for Go structs",
	Long: `Generate record codecs for struct types declared in a Go package.

Each struct is encoded as a positional array of its exported fields, in
declaration order, honoring msgpack:"name" and msgpack:"-" tags. Scalar
fields are packed inline; other fields go through the codec package.

Examples:
  msgskema compile --type User
  msgskema compile --type User,Order --dir ./model --out model_msgskema.go`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

var (
	compileTypes string
	compileDir   string
	compileOut   string
)

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVar(&compileTypes, "type", "", "comma separated struct type names")
	compileCmd.Flags().StringVar(&compileDir, "dir", ".", "package directory")
	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "", "output file (default <first type>_msgskema.go in --dir)")
	_ = compileCmd.MarkFlagRequired("type")
}

func runCompile(cmd *cobra.Command, args []string) error {
	names := splitCSV(compileTypes)
	if len(names) == 0 {
		return fmt.Errorf("--type is required")
	}
	pkg, objs, err := collectObjects(compileDir, names)
	if err != nil {
		return err
	}
	src, err := gen.RenderFile(gen.File{Package: pkg, Types: objs})
	if err != nil {
		return err
	}
	out := compileOut
	if out == "" {
		out = filepath.Join(compileDir, strings.ToLower(names[0])+"_msgskema.go")
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return err
	}
	for _, o := range objs {
		logger.Info().Str("type", o.Name).Int("fields", len(o.Fields)).Str("out", out).Msg("generated")
	}
	return nil
}

// parsePackage parses the non-test Go files of dir.
func parsePackage(dir string) (string, []*ast.File, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return "", nil, err
	}
	fs := token.NewFileSet()
	var (
		pkg   string
		files []*ast.File
	)
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") || strings.HasSuffix(path, "_msgskema.go") {
			continue
		}
		f, err := parser.ParseFile(fs, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return "", nil, err
		}
		if pkg == "" {
			pkg = f.Name.Name
		} else if f.Name.Name != pkg {
			continue
		}
		files = append(files, f)
	}
	if pkg == "" {
		return "", nil, fmt.Errorf("no Go files in %s", dir)
	}
	return pkg, files, nil
}

// collectObjects builds the record layout of each named struct type.
func collectObjects(dir string, names []string) (string, []*ir.Object, error) {
	pkg, files, err := parsePackage(dir)
	if err != nil {
		return "", nil, err
	}
	structs := map[string]*ast.StructType{}
	for _, f := range files {
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name == nil || ts.TypeParams != nil {
					continue
				}
				if st, ok := ts.Type.(*ast.StructType); ok {
					structs[ts.Name.Name] = st
				}
			}
		}
	}
	objs := make([]*ir.Object, 0, len(names))
	for _, name := range names {
		st, ok := structs[name]
		if !ok {
			return "", nil, fmt.Errorf("struct type %s not found in %s", name, dir)
		}
		obj, err := objectOf(name, st)
		if err != nil {
			return "", nil, err
		}
		objs = append(objs, obj)
	}
	return pkg, objs, nil
}

func objectOf(name string, st *ast.StructType) (*ir.Object, error) {
	obj := &ir.Object{Name: name}
	if st.Fields == nil {
		return obj, nil
	}
	for _, field := range st.Fields.List {
		wireName := ""
		if field.Tag != nil {
			tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
			wireName = tag.Get("msgpack")
			if comma := strings.IndexByte(wireName, ','); comma >= 0 {
				wireName = wireName[:comma]
			}
			if wireName == "-" {
				continue
			}
		}
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("%s: embedded field %s is not supported", name, types.ExprString(field.Type))
		}
		schema, err := schemaOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, field.Names[0].Name, err)
		}
		for _, id := range field.Names {
			if !id.IsExported() {
				continue
			}
			wn := wireName
			if wn == "" {
				wn = id.Name
			}
			obj.Fields = append(obj.Fields, ir.Field{
				GoName:   id.Name,
				WireName: wn,
				GoType:   types.ExprString(field.Type),
				Schema:   schema,
			})
		}
	}
	return obj, nil
}

// schemaOf maps a field type expression to its IR node. Named types that
// are not scalars become references.
func schemaOf(e ast.Expr) (ir.Schema, error) {
	switch t := e.(type) {
	case *ast.Ident, *ast.SelectorExpr:
		spelled := types.ExprString(t)
		if p, ok := ir.PrimitiveFor(spelled); ok {
			return p, nil
		}
		if spelled == "any" {
			return nil, fmt.Errorf("interface fields have no schema")
		}
		return &ir.Ref{Name: spelled}, nil
	case *ast.StarExpr:
		return schemaOf(t.X)
	case *ast.ArrayType:
		if p, ok := ir.PrimitiveFor("[]" + types.ExprString(t.Elt)); ok && t.Len == nil {
			return p, nil
		}
		if t.Len != nil {
			if id, ok := t.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
				p, _ := ir.PrimitiveFor("[]byte")
				return p, nil
			}
		}
		item, err := schemaOf(t.Elt)
		if err != nil {
			return nil, err
		}
		return &ir.Array{Item: item}, nil
	case *ast.MapType:
		k, err := schemaOf(t.Key)
		if err != nil {
			return nil, err
		}
		v, err := schemaOf(t.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Map{Key: k, Value: v}, nil
	default:
		return nil, fmt.Errorf("unsupported field type %s", types.ExprString(e))
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
