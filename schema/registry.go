package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/relic/schema/edge"
	"github.com/syssam/relic/schema/field"
)

// Registry holds the registered table definitions and the tables built
// from them. Register every definition, then call Build once. A built
// registry is read-only and safe for concurrent use.
type Registry struct {
	defs   []namedDef
	tables []*Table
	index  map[string]*Table
	built  bool
}

type namedDef struct {
	name string
	def  Interface
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Table)}
}

// Build registers the given definitions in a new registry and builds it.
func Build(defs ...Interface) (*Registry, error) {
	r := NewRegistry().Register(defs...)
	if err := r.Build(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(defs ...Interface) *Registry {
	r, err := Build(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds table definitions to the registry. The definition name is
// the Go type name, or the result of a Name method when one is defined.
func (r *Registry) Register(defs ...Interface) *Registry {
	for _, d := range defs {
		r.RegisterNamed(defName(d), d)
	}
	return r
}

// RegisterNamed adds a table definition under the given name.
func (r *Registry) RegisterNamed(name string, d Interface) *Registry {
	r.defs = append(r.defs, namedDef{name: name, def: d})
	return r
}

func defName(d Interface) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}
	t := reflect.TypeOf(d)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Table returns the table registered under the given definition name or
// SQL table name.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.index[name]
	return t, ok
}

// Tables returns the built tables in registration order.
func (r *Registry) Tables() []*Table { return r.tables }

// Build builds the tables of all registered definitions and resolves
// their relationships. All definition errors are reported together.
func (r *Registry) Build() error {
	if r.built {
		return errors.New("schema: registry already built")
	}
	var errs []error
	edges := make(map[*Table][]*edge.Descriptor)
	for _, d := range r.defs {
		t, es, err := buildTable(d.name, d.def)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, key := range []string{t.Name, t.SQLName} {
			if other, ok := r.index[key]; ok && other != t {
				errs = append(errs, fmt.Errorf("schema: duplicate table %q", key))
			}
			r.index[key] = t
		}
		r.tables = append(r.tables, t)
		edges[t] = es
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, t := range r.tables {
		for _, e := range edges[t] {
			if err := r.addEdge(t, e); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, t := range r.tables {
		if err := r.resolveRefs(t); err != nil {
			errs = append(errs, err)
		}
		if err := finishTable(t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	r.built = true
	return nil
}

func buildTable(name string, d Interface) (*Table, []*edge.Descriptor, error) {
	cfg := d.Config()
	t := &Table{
		Name:         name,
		SQLName:      cfg.Table,
		index:        make(map[string]*Column),
		sqlIndex:     make(map[string]*Column),
		defaultOrder: cfg.DefaultOrder,
	}
	if t.SQLName == "" {
		t.SQLName = TableName(name)
	}
	var (
		fields []Field
		edges  []Edge
		errs   []error
	)
	for _, m := range d.Mixin() {
		fields = append(fields, m.Fields()...)
		edges = append(edges, m.Edges()...)
	}
	fields = append(fields, d.Fields()...)
	edges = append(edges, d.Edges()...)

	fds := make([]*field.Descriptor, 0, len(fields)+3)
	for _, f := range fields {
		fds = append(fds, f.Descriptor())
	}
	if !hasField(fds, IDField) {
		fds = append([]*field.Descriptor{field.Int64(IDField).Descriptor()}, fds...)
	}
	if len(cfg.VersionedAlong) > 0 {
		if !hasField(fds, VersionField) {
			fds = append(fds, field.Int(VersionField).Default(1).Immutable().Descriptor())
		}
		if !hasField(fds, DeletedAtField) {
			fds = append(fds, field.Time(DeletedAtField).Optional().Descriptor())
		}
	}
	for _, fd := range fds {
		if fd.Err != nil {
			errs = append(errs, fmt.Errorf("schema: %s: %w", name, fd.Err))
			continue
		}
		c := &Column{
			Name:      fd.Name,
			SQLName:   fd.Column(),
			Type:      fd.Type,
			Nullable:  fd.Nillable,
			Immutable: fd.Immutable,
			table:     t,
			fdesc:     fd,
		}
		if err := t.add(c); err != nil {
			errs = append(errs, err)
		}
	}
	var eds []*edge.Descriptor
	for _, e := range edges {
		ed := e.Descriptor()
		if ed.Err != nil {
			errs = append(errs, fmt.Errorf("schema: %s: %w", name, ed.Err))
			continue
		}
		eds = append(eds, ed)
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	t.pk = t.index[IDField]
	if len(cfg.VersionedAlong) > 0 {
		t.version = t.index[VersionField]
		t.versionAlong = cfg.VersionedAlong
	}
	return t, eds, nil
}

func hasField(fds []*field.Descriptor, name string) bool {
	for _, fd := range fds {
		if fd.Name == name {
			return true
		}
	}
	return false
}

func (t *Table) add(c *Column) error {
	if _, ok := t.index[c.Name]; ok {
		return fmt.Errorf("schema: %s: duplicate field or edge %q", t.Name, c.Name)
	}
	for _, col := range c.SQLColumns() {
		if _, ok := t.sqlIndex[col]; ok {
			return fmt.Errorf("schema: %s: duplicate column %q", t.Name, col)
		}
	}
	t.index[c.Name] = c
	for _, col := range c.SQLColumns() {
		t.sqlIndex[col] = c
	}
	t.columns = append(t.columns, c)
	return nil
}

func (r *Registry) addEdge(t *Table, ed *edge.Descriptor) error {
	c := &Column{
		Name:      ed.Name,
		Immutable: ed.Immutable,
		Nullable:  !ed.Required,
		table:     t,
		edesc:     ed,
	}
	switch ed.Kind {
	case edge.Generic:
		c.Cardinality = ToOne
		c.Generic = true
		c.SQLName = ed.Column
		c.Type = field.TypeInt64
	case edge.Inverse:
		target, ok := r.index[ed.Type]
		if !ok {
			return fmt.Errorf("schema: %s: edge %q references unknown table %q", t.Name, ed.Name, ed.Type)
		}
		c.Cardinality = ToOne
		c.Target = target
		c.SQLName = ed.Column
		c.Type = target.pk.Type
	case edge.Assoc:
		target, ok := r.index[ed.Type]
		if !ok {
			return fmt.Errorf("schema: %s: edge %q references unknown table %q", t.Name, ed.Name, ed.Type)
		}
		c.Cardinality = ToMany
		if ed.Unique {
			c.Cardinality = ToOne
		}
		c.Target = target
		c.Type = target.pk.Type
		c.Nullable = true
	default:
		return fmt.Errorf("schema: %s: edge %q has unknown kind %d", t.Name, ed.Name, ed.Kind)
	}
	return t.add(c)
}

// resolveRefs links both sides of every relationship. To edges must name
// an inverse edge of the target pointing back to the declaring table.
func (r *Registry) resolveRefs(t *Table) error {
	var errs []error
	for _, c := range t.Edges() {
		if c.Generic || c.edesc.RefName == "" {
			continue
		}
		ref, ok := c.Target.index[c.edesc.RefName]
		switch {
		case !ok || !ref.IsEdge():
			errs = append(errs, fmt.Errorf("schema: %s: edge %q references unknown edge %q of %s", t.Name, c.Name, c.edesc.RefName, c.Target.Name))
			continue
		case ref.Target != t:
			errs = append(errs, fmt.Errorf("schema: %s: edge %q references edge %q of %s, which targets %s", t.Name, c.Name, ref.Name, c.Target.Name, refTarget(ref)))
			continue
		case c.KeyedOnTarget() && ref.KeyedOnTarget():
			errs = append(errs, fmt.Errorf("schema: %s: edges %q and %s.%q must not both be To edges", t.Name, c.Name, c.Target.Name, ref.Name))
			continue
		case !c.KeyedOnTarget() && !ref.KeyedOnTarget():
			errs = append(errs, fmt.Errorf("schema: %s: edges %q and %s.%q must not both be From edges", t.Name, c.Name, c.Target.Name, ref.Name))
			continue
		}
		c.Ref = ref
	}
	return errors.Join(errs...)
}

func refTarget(c *Column) string {
	if c.Target == nil {
		return "a generic reference"
	}
	return c.Target.Name
}

func finishTable(t *Table) error {
	var errs []error
	if c, ok := t.index[DeletedAtField]; ok && !c.IsEdge() && c.Type == field.TypeTime {
		t.deletedAt = c
	}
	for _, name := range t.versionAlong {
		c, ok := t.index[name]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("schema: %s: unknown versioning key %q", t.Name, name))
		case c.KeyedOnTarget():
			errs = append(errs, fmt.Errorf("schema: %s: versioning key %q must be stored on the table", t.Name, name))
		default:
			t.versionKeys = append(t.versionKeys, c)
		}
	}
	for _, term := range t.defaultOrder {
		name := strings.TrimPrefix(term, "-")
		if c, ok := t.index[name]; !ok || c.IsEdge() {
			errs = append(errs, fmt.Errorf("schema: %s: default order references unknown field %q", t.Name, name))
		}
	}
	for _, c := range t.Edges() {
		if c.KeyedOnTarget() && c.Ref == nil {
			errs = append(errs, fmt.Errorf("schema: %s: edge %q has no inverse edge on %s", t.Name, c.Name, c.Target.Name))
		}
	}
	return errors.Join(errs...)
}
