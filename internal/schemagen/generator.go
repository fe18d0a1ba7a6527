package schemagen

import (
	"fmt"
	"io"

	"github.com/dave/jennifer/jen"
	"github.com/ettle/strcase"
	"github.com/hamba/avro/v2"
)

// Generator renders Go types for Avro record schemas.
type Generator struct {
	config *Config
}

// New creates a new Generator with the given configuration.
func New(cfg *Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: cfg}, nil
}

// Generate parses every source and writes one formatted Go file to w.
//
// Each top-level record becomes a struct plus a SchemaName constant holding
// its full name. Nested records and enums are emitted once, in the order they
// are first met.
func (g *Generator) Generate(w io.Writer, sources ...Source) error {
	if len(sources) == 0 {
		return errNoSources
	}

	f := jen.NewFile(g.config.Package)
	f.HeaderComment(fmt.Sprintf("Code generated by %s. DO NOT EDIT.", g.config.Tool))

	r := &renderer{file: f, seen: map[string]bool{}}
	cache := &avro.SchemaCache{}
	names := make([]jen.Code, 0, len(sources))

	for _, src := range sources {
		schema, err := avro.ParseWithCache(src.Schema, "", cache)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", src.Name, err)
		}
		rec, ok := schema.(*avro.RecordSchema)
		if !ok {
			return fmt.Errorf("%s: expected a record schema, got %s", src.Name, schema.Type())
		}

		typeName := r.record(rec)
		names = append(names, jen.Id(typeName+"SchemaName").Op("=").Lit(rec.FullName()))
	}

	f.Comment("Avro full names of the generated records.")
	f.Const().Defs(names...)

	if err := f.Render(w); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	return nil
}

type renderer struct {
	file *jen.File
	seen map[string]bool
}

// record emits the struct for rec and returns its Go name.
func (r *renderer) record(rec *avro.RecordSchema) string {
	name := strcase.ToGoPascal(rec.Name())
	if r.seen[rec.FullName()] {
		return name
	}
	r.seen[rec.FullName()] = true

	fields := make([]jen.Code, 0, len(rec.Fields()))
	for _, field := range rec.Fields() {
		stmt := jen.Id(strcase.ToGoPascal(field.Name())).Add(r.goType(field.Type())).Tag(map[string]string{
			"avro": field.Name(),
			"json": field.Name(),
		})
		if field.Doc() != "" {
			stmt = jen.Comment(field.Doc()).Line().Add(stmt)
		}
		fields = append(fields, stmt)
	}

	if rec.Doc() != "" {
		r.file.Comment(rec.Doc())
	} else {
		r.file.Commentf("%s is the Go form of the %s record.", name, rec.FullName())
	}
	r.file.Type().Id(name).Struct(fields...)
	r.file.Line()
	return name
}

func (r *renderer) enum(e *avro.EnumSchema) string {
	name := strcase.ToGoPascal(e.Name())
	if r.seen[e.FullName()] {
		return name
	}
	r.seen[e.FullName()] = true

	defs := make([]jen.Code, 0, len(e.Symbols()))
	for _, symbol := range e.Symbols() {
		defs = append(defs, jen.Id(name+strcase.ToGoPascal(symbol)).Op("=").Lit(symbol))
	}
	r.file.Commentf("Symbols of the %s enum.", e.FullName())
	r.file.Const().Defs(defs...)
	r.file.Line()
	return name
}

// goType maps an Avro type to the Go type hamba/avro decodes it into.
// Enums stay plain strings.
func (r *renderer) goType(schema avro.Schema) *jen.Statement {
	switch s := schema.(type) {
	case *avro.PrimitiveSchema:
		return primitive(s.Type())
	case *avro.RecordSchema:
		return jen.Id(r.record(s))
	case *avro.RefSchema:
		return r.goType(s.Schema())
	case *avro.EnumSchema:
		r.enum(s)
		return jen.String()
	case *avro.ArraySchema:
		return jen.Index().Add(r.goType(s.Items()))
	case *avro.MapSchema:
		return jen.Map(jen.String()).Add(r.goType(s.Values()))
	case *avro.FixedSchema:
		return jen.Index(jen.Lit(s.Size())).Byte()
	case *avro.UnionSchema:
		return r.union(s)
	default:
		return jen.Interface()
	}
}

// union maps ["null", T] to *T, or to T itself when T is already nilable.
// Any other union decodes into an untyped value.
func (r *renderer) union(s *avro.UnionSchema) *jen.Statement {
	if !s.Nullable() || len(s.Types()) != 2 {
		return jen.Interface()
	}
	for _, t := range s.Types() {
		if t.Type() == avro.Null {
			continue
		}
		inner := r.goType(t)
		switch t.Type() {
		case avro.Map, avro.Array, avro.Bytes:
			return inner
		default:
			return jen.Op("*").Add(inner)
		}
	}
	return jen.Interface()
}

func primitive(t avro.Type) *jen.Statement {
	switch t {
	case avro.String:
		return jen.String()
	case avro.Boolean:
		return jen.Bool()
	case avro.Int:
		return jen.Int32()
	case avro.Long:
		return jen.Int64()
	case avro.Float:
		return jen.Float32()
	case avro.Double:
		return jen.Float64()
	case avro.Bytes:
		return jen.Index().Byte()
	default:
		return jen.Interface()
	}
}
