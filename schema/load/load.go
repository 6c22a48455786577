// Package load builds a schema.Registry from YAML schema files, for tools
// that work with tables declared outside Go code.
//
//	tables:
//	  - name: Author
//	    mixins: [soft_delete]
//	    fields:
//	      - {name: name, type: string}
//	    edges:
//	      - {name: books, to: Book, ref: author}
//	  - name: Book
//	    fields:
//	      - {name: title, type: string}
//	      - {name: pages, type: int, optional: true}
//	    edges:
//	      - {name: author, from: Author, ref: books}
//	  - name: Comment
//	    fields:
//	      - {name: body, type: text}
//	    edges:
//	      - {name: subject, generic: true}
//	  - name: Document
//	    versioned_along: [slug]
//	    fields:
//	      - {name: slug, type: string}
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	cmixin "github.com/syssam/relic/contrib/mixin"
	"github.com/syssam/relic/schema"
	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
	"github.com/syssam/relic/schema/mixin"
)

// File is the document root of a schema file.
type File struct {
	Tables []Table `yaml:"tables"`
}

// Table declares one table.
type Table struct {
	// Name is the definition name, e.g. "Book".
	Name string `yaml:"name"`
	// SQLName overrides the default table name.
	SQLName        string   `yaml:"table,omitempty"`
	DefaultOrder   []string `yaml:"default_order,omitempty"`
	VersionedAlong []string `yaml:"versioned_along,omitempty"`
	// Mixins lists named mixins, see Mixins.
	Mixins []string `yaml:"mixins,omitempty"`
	Fields []Field  `yaml:"fields,omitempty"`
	Edges  []Edge   `yaml:"edges,omitempty"`
}

// Field declares a field. Type is one of string, text, int, int64, float,
// bool, time, uuid, json, bytes and enum.
type Field struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Values     []string `yaml:"values,omitempty"`
	Optional   bool     `yaml:"optional,omitempty"`
	Nillable   bool     `yaml:"nillable,omitempty"`
	Immutable  bool     `yaml:"immutable,omitempty"`
	Default    any      `yaml:"default,omitempty"`
	StorageKey string   `yaml:"storage_key,omitempty"`
	Comment    string   `yaml:"comment,omitempty"`
}

// Edge declares a relationship. Exactly one of To, From and Generic is set.
type Edge struct {
	Name      string `yaml:"name"`
	To        string `yaml:"to,omitempty"`
	From      string `yaml:"from,omitempty"`
	Generic   bool   `yaml:"generic,omitempty"`
	Ref       string `yaml:"ref,omitempty"`
	Unique    bool   `yaml:"unique,omitempty"`
	Required  bool   `yaml:"required,omitempty"`
	Immutable bool   `yaml:"immutable,omitempty"`
	Column    string `yaml:"column,omitempty"`
	Comment   string `yaml:"comment,omitempty"`
}

// Mixins are the mixins a table can name.
var Mixins = map[string]schema.Mixin{
	"id":               cmixin.ID{},
	"tenant_id":        cmixin.TenantID{},
	"versioned":        cmixin.Versioned{},
	"time":             mixin.Time{},
	"create_time":      mixin.CreateTime{},
	"update_time":      mixin.UpdateTime{},
	"soft_delete":      mixin.SoftDelete{},
	"time_soft_delete": mixin.TimeSoftDelete{},
}

// Path reads the schema file at path and builds its registry.
func Path(path string) (*schema.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: reading schema file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse builds the registry of a schema document.
func Parse(data []byte) (*schema.Registry, error) {
	return Read(bytes.NewReader(data))
}

// Read builds the registry of the schema document read from r. Unknown
// keys are rejected.
func Read(r io.Reader) (*schema.Registry, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("load: parsing schema: %w", err)
	}
	defs, err := f.Definitions()
	if err != nil {
		return nil, err
	}
	ifaces := make([]schema.Interface, len(defs))
	for i, d := range defs {
		ifaces[i] = d
	}
	return schema.Build(ifaces...)
}

// Definitions converts the declared tables into schema definitions.
func (f *File) Definitions() ([]*schema.Definition, error) {
	if len(f.Tables) == 0 {
		return nil, errors.New("load: no tables declared")
	}
	defs := make([]*schema.Definition, 0, len(f.Tables))
	for _, t := range f.Tables {
		d, err := t.definition()
		if err != nil {
			return nil, fmt.Errorf("load: table %q: %w", t.Name, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (t Table) definition() (*schema.Definition, error) {
	if t.Name == "" {
		return nil, errors.New("missing name")
	}
	d := &schema.Definition{
		TypeName: t.Name,
		ConfigData: schema.Config{
			Table:          t.SQLName,
			DefaultOrder:   t.DefaultOrder,
			VersionedAlong: t.VersionedAlong,
		},
	}
	for _, name := range t.Mixins {
		m, ok := Mixins[name]
		if !ok {
			return nil, fmt.Errorf("unknown mixin %q", name)
		}
		d.MixinList = append(d.MixinList, m)
	}
	for _, f := range t.Fields {
		b, err := f.builder()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		d.FieldList = append(d.FieldList, b)
	}
	for _, e := range t.Edges {
		b, err := e.builder()
		if err != nil {
			return nil, fmt.Errorf("edge %q: %w", e.Name, err)
		}
		d.EdgeList = append(d.EdgeList, b)
	}
	return d, nil
}

var fieldTypes = map[string]func(string) *field.Builder{
	"string": field.String,
	"text":   field.Text,
	"int":    field.Int,
	"int64":  field.Int64,
	"float":  field.Float,
	"bool":   field.Bool,
	"time":   field.Time,
	"uuid":   field.UUID,
	"json":   field.JSON,
	"bytes":  field.Bytes,
	"enum":   field.Enum,
}

func (f Field) builder() (*field.Builder, error) {
	newField, ok := fieldTypes[f.Type]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", f.Type)
	}
	b := newField(f.Name)
	if len(f.Values) > 0 {
		b.Values(f.Values...)
	}
	if f.Optional {
		b.Optional()
	}
	if f.Nillable {
		b.Nillable()
	}
	if f.Immutable {
		b.Immutable()
	}
	if f.StorageKey != "" {
		b.StorageKey(f.StorageKey)
	}
	if f.Comment != "" {
		b.Comment(f.Comment)
	}
	if f.Default != nil {
		v, err := f.defaultValue()
		if err != nil {
			return nil, err
		}
		b.Default(v)
	}
	return b, nil
}

// defaultValue returns the default of the field. Time fields accept "now"
// and uuid fields "new", both evaluated on every create.
func (f Field) defaultValue() (any, error) {
	switch {
	case f.Type == "time" && f.Default == "now":
		return time.Now, nil
	case f.Type == "uuid" && f.Default == "new":
		return uuid.New, nil
	case f.Type == "time" || f.Type == "uuid":
		s, ok := f.Default.(string)
		if !ok {
			return nil, fmt.Errorf("default of %s field must be a string, got %T", f.Type, f.Default)
		}
		return s, nil
	}
	return f.Default, nil
}

func (e Edge) builder() (*edge.Builder, error) {
	var b *edge.Builder
	switch {
	case e.To != "" && e.From == "" && !e.Generic:
		b = edge.To(e.Name, e.To)
	case e.From != "" && e.To == "" && !e.Generic:
		b = edge.From(e.Name, e.From)
	case e.Generic && e.To == "" && e.From == "":
		if e.Ref != "" {
			return nil, errors.New("generic reference with ref")
		}
		b = edge.GenericRef(e.Name)
	default:
		return nil, errors.New("exactly one of to, from and generic must be set")
	}
	if e.Ref != "" {
		b.Ref(e.Ref)
	}
	if e.Unique {
		b.Unique()
	}
	if e.Required {
		b.Required()
	}
	if e.Immutable {
		b.Immutable()
	}
	if e.Column != "" {
		b.StorageKey(edge.Column(e.Column))
	}
	if e.Comment != "" {
		b.Comment(e.Comment)
	}
	return b, nil
}
