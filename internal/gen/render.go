package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	ir "github.com/reoring/msgskema/internal/ir"
)

// File describes one generated source file.
type File struct {
	Package string
	Types   []*ir.Object
}

type fieldView struct {
	Pack   string
	Unpack string
}

type typeView struct {
	Name   string
	Expr   string
	Fields []fieldView
}

type fileView struct {
	Package    string
	NeedsCodec bool
	Types      []typeView
}

// scalar pack/unpack pairs for field types spelled exactly like this.
var scalars = map[string][2]string{
	"bool":    {"p.PackBool(%s)", "msgskema.UnpackBool(u)"},
	"string":  {"p.PackString(%s)", "msgskema.UnpackString(u)"},
	"[]byte":  {"p.PackBytes(%s)", "msgskema.UnpackBytes(u)"},
	"[]uint8": {"p.PackBytes(%s)", "msgskema.UnpackBytes(u)"},
	"int8":    {"p.PackInt8(%s)", "msgskema.UnpackNumber[int8](u)"},
	"int16":   {"p.PackInt16(%s)", "msgskema.UnpackNumber[int16](u)"},
	"int32":   {"p.PackInt32(%s)", "msgskema.UnpackNumber[int32](u)"},
	"rune":    {"p.PackInt32(%s)", "msgskema.UnpackNumber[int32](u)"},
	"int64":   {"p.PackInt64(%s)", "msgskema.UnpackNumber[int64](u)"},
	"int":     {"p.PackInt64(int64(%s))", "msgskema.UnpackNumber[int](u)"},
	"uint8":   {"p.PackUint8(%s)", "msgskema.UnpackNumber[uint8](u)"},
	"byte":    {"p.PackUint8(%s)", "msgskema.UnpackNumber[uint8](u)"},
	"uint16":  {"p.PackUint16(%s)", "msgskema.UnpackNumber[uint16](u)"},
	"uint32":  {"p.PackUint32(%s)", "msgskema.UnpackNumber[uint32](u)"},
	"uint64":  {"p.PackUint64(%s)", "msgskema.UnpackNumber[uint64](u)"},
	"uint":    {"p.PackUint64(uint64(%s))", "msgskema.UnpackNumber[uint](u)"},
	"float32": {"p.PackFloat32(%s)", "msgskema.UnpackNumber[float32](u)"},
	"float64": {"p.PackFloat64(%s)", "msgskema.UnpackNumber[float64](u)"},
}

func viewOf(f File) (fileView, error) {
	v := fileView{Package: f.Package}
	for _, obj := range f.Types {
		if obj == nil || obj.Name == "" {
			return fileView{}, fmt.Errorf("gen: type without name")
		}
		tv := typeView{Name: obj.Name, Expr: obj.Expression()}
		for _, fd := range obj.Fields {
			if fd.GoName == "" {
				return fileView{}, fmt.Errorf("gen: %s: field without name", obj.Name)
			}
			ref := "x." + fd.GoName
			if s, ok := scalars[fd.GoType]; ok {
				tv.Fields = append(tv.Fields, fieldView{
					Pack:   fmt.Sprintf(s[0], ref),
					Unpack: ref + ", err = " + s[1],
				})
				continue
			}
			v.NeedsCodec = true
			tv.Fields = append(tv.Fields, fieldView{
				Pack:   "codec.Pack(p, " + ref + ")",
				Unpack: "err = codec.Unpack(u, &" + ref + ")",
			})
		}
		v.Types = append(v.Types, tv)
	}
	return v, nil
}

var fileTmpl = template.Must(template.New("file").Parse(`// Code generated by msgskema compile. DO NOT EDIT.

package {{.Package}}

import (
	msgskema "github.com/reoring/msgskema"
{{- if .NeedsCodec}}
	"github.com/reoring/msgskema/codec"
{{- end}}
)
{{range .Types}}
// {{.Name}}SchemaExpression is the schema expression of {{.Name}}.
const {{.Name}}SchemaExpression = {{printf "%q" .Expr}}

// PackMsg writes x as a {{len .Fields}} element array.
func (x *{{.Name}}) PackMsg(p msgskema.Packer) error {
	if err := p.PackArray({{len .Fields}}); err != nil {
		return err
	}
{{- range .Fields}}
	if err := {{.Pack}}; err != nil {
		return err
	}
{{- end}}
	return nil
}

// UnpackMsg reads x from a {{len .Fields}} element array. A nil value zeroes x.
func (x *{{.Name}}) UnpackMsg(u msgskema.Unpacker) error {
	n, err := u.UnpackArray()
	if err != nil {
		return err
	}
	if n < 0 {
		*x = {{.Name}}{}
		return nil
	}
	if n != {{len .Fields}} {
		return msgskema.ArityError({{printf "%q" .Name}}, {{len .Fields}}, n)
	}
{{- range .Fields}}
	if {{.Unpack}}; err != nil {
		return err
	}
{{- end}}
	return nil
}
{{end}}`))

// RenderFile renders PackMsg/UnpackMsg methods and a schema expression
// constant for every type in f, gofmt'ed.
func RenderFile(f File) ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: package name required")
	}
	view, err := viewOf(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format: %w\n%s", err, buf.Bytes())
	}
	return out, nil
}
