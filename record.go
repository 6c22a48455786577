package relic

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syssam/relic/schema"
)

// GenericRef is the value of a generic reference: the SQL name of the
// referenced table and the primary key of the referenced row.
type GenericRef struct {
	Table string `json:"table" msgpack:"table"`
	ID    any    `json:"id" msgpack:"id"`
}

// IsZero reports whether the reference points nowhere.
func (r GenericRef) IsZero() bool { return r.Table == "" || r.ID == nil }

// Loader fetches relationships that were not preloaded. The orm client
// implements it.
type Loader interface {
	// LoadOne fetches the to-one relationship of owner. For edges holding
	// the foreign key, key is its value; otherwise it is the owner's
	// primary key.
	LoadOne(ctx context.Context, owner *Record, edge *schema.Column, key any) (*Record, error)
	// LoadMany fetches the to-many relationship of owner.
	LoadMany(ctx context.Context, owner *Record, edge *schema.Column) ([]*Record, error)
	// LoadGeneric fetches the row a generic reference points at.
	LoadGeneric(ctx context.Context, owner *Record, edge *schema.Column, ref GenericRef) (*Record, error)
}

// Record is one hydrated row of a registered table.
//
// Scalar values are keyed by field name. To-one relationships holding the
// foreign key store the key under the relationship name, generic
// references store a GenericRef. Relationships are reached through One and
// Many, whether they were preloaded or not.
//
// Records are not safe for concurrent mutation. Writes never modify a
// record in place; they return a new one.
type Record struct {
	table  *schema.Table
	values map[string]any
	edges  map[string]any
}

// NewRecord returns an empty record of the given table.
func NewRecord(t *schema.Table) *Record {
	return &Record{
		table:  t,
		values: make(map[string]any),
		edges:  make(map[string]any),
	}
}

// Table returns the table of the record.
func (r *Record) Table() *schema.Table { return r.table }

// ID returns the primary key value.
func (r *Record) ID() any { return r.values[r.table.PrimaryKey().Name] }

// Get returns the stored value of a field or of the foreign key of a to-one
// relationship. The name may be the field name or the SQL column name.
func (r *Record) Get(name string) (any, bool) {
	c, ok := r.table.Column(name)
	if !ok || c.KeyedOnTarget() {
		return nil, false
	}
	v, ok := r.values[c.Name]
	return v, ok
}

// Value is like Get but returns nil for unknown names.
func (r *Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// Set stores the value of a field or of a foreign key.
func (r *Record) Set(name string, v any) {
	if c, ok := r.table.Column(name); ok {
		name = c.Name
	}
	r.values[name] = v
}

// Ref returns the value of a generic reference.
func (r *Record) Ref(name string) (GenericRef, bool) {
	ref, ok := r.values[name].(GenericRef)
	return ref, ok && !ref.IsZero()
}

// Values returns a copy of the stored values keyed by field name.
func (r *Record) Values() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// One returns the slot of a to-one relationship. It returns nil if the name
// is not a to-one relationship of the table.
func (r *Record) One(name string) *Deferred[*Record] {
	d, _ := r.edges[name].(*Deferred[*Record])
	return d
}

// Many returns the slot of a to-many relationship. It returns nil if the
// name is not a to-many relationship of the table.
func (r *Record) Many(name string) *Deferred[[]*Record] {
	d, _ := r.edges[name].(*Deferred[[]*Record])
	return d
}

// SetOne replaces the slot of a to-one relationship.
func (r *Record) SetOne(name string, d *Deferred[*Record]) { r.edges[name] = d }

// SetMany replaces the slot of a to-many relationship.
func (r *Record) SetMany(name string, d *Deferred[[]*Record]) { r.edges[name] = d }

// HasEdge reports whether the slot of the named relationship exists.
func (r *Record) HasEdge(name string) bool {
	_, ok := r.edges[name]
	return ok
}

// Defer attaches a lazy slot for a relationship that was not preloaded.
// Slots already attached are left untouched.
func (r *Record) Defer(edge *schema.Column, l Loader) {
	if r.HasEdge(edge.Name) {
		return
	}
	switch {
	case edge.Generic:
		ref, ok := r.Ref(edge.Name)
		if !ok {
			r.SetOne(edge.Name, Loaded[*Record](r, edge.Name, nil))
			return
		}
		r.SetOne(edge.Name, Lazy(r, edge.Name, ref, func(ctx context.Context) (*Record, error) {
			return l.LoadGeneric(ctx, r, edge, ref)
		}))
	case edge.Cardinality == schema.ToMany:
		r.SetMany(edge.Name, Lazy(r, edge.Name, r.ID(), func(ctx context.Context) ([]*Record, error) {
			return l.LoadMany(ctx, r, edge)
		}))
	case edge.KeyedOnTarget():
		key := r.ID()
		r.SetOne(edge.Name, Lazy(r, edge.Name, key, func(ctx context.Context) (*Record, error) {
			return l.LoadOne(ctx, r, edge, key)
		}))
	default:
		key := r.values[edge.Name]
		if key == nil {
			r.SetOne(edge.Name, Loaded[*Record](r, edge.Name, nil))
			return
		}
		r.SetOne(edge.Name, Lazy(r, edge.Name, key, func(ctx context.Context) (*Record, error) {
			return l.LoadOne(ctx, r, edge, key)
		}))
	}
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	return fmt.Sprintf("%s(%v)", r.table.Name, r.ID())
}

// MarshalJSON implements json.Marshaler. Loaded relationships are nested,
// deferred ones are omitted. A record already being encoded higher up the
// graph is written as its primary key.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.tree(nil))
}

func (r *Record) tree(seen []*Record) map[string]any {
	m := make(map[string]any, len(r.values)+len(r.edges))
	for k, v := range r.values {
		m[k] = v
	}
	seen = append(seen, r)
	for name, slot := range r.edges {
		switch d := slot.(type) {
		case *Deferred[*Record]:
			if v, err := d.Get(); err == nil {
				m[name] = nested(v, seen)
			}
		case *Deferred[[]*Record]:
			if vs, err := d.Get(); err == nil {
				list := make([]any, 0, len(vs))
				for _, v := range vs {
					list = append(list, nested(v, seen))
				}
				m[name] = list
			}
		}
	}
	return m
}

func nested(r *Record, seen []*Record) any {
	if r == nil {
		return nil
	}
	for _, s := range seen {
		if s == r {
			return r.ID()
		}
	}
	return r.tree(seen)
}

// Deferred is the slot of a relationship. It either holds a loaded value or
// fetches it on the first call to Resolve.
type Deferred[T any] struct {
	// Owner is the record holding the slot.
	Owner *Record
	// Name of the relationship.
	Name string
	// Key identifies the related rows: the foreign key value, the owner
	// primary key for relationships keyed on the target, or a GenericRef.
	Key any

	mu     sync.Mutex
	loaded bool
	value  T
	fetch  func(context.Context) (T, error)
}

// Loaded returns a resolved slot.
func Loaded[T any](owner *Record, name string, v T) *Deferred[T] {
	return &Deferred[T]{Owner: owner, Name: name, loaded: true, value: v}
}

// Lazy returns a slot resolved by fetch on first access.
func Lazy[T any](owner *Record, name string, key any, fetch func(context.Context) (T, error)) *Deferred[T] {
	return &Deferred[T]{Owner: owner, Name: name, Key: key, fetch: fetch}
}

// Loaded reports whether the value is available without a fetch.
func (d *Deferred[T]) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Get returns the loaded value, or a NotLoadedError.
func (d *Deferred[T]) Get() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		var zero T
		return zero, NewNotLoadedError(d.Name)
	}
	return d.value, nil
}

// Resolve returns the value, fetching it first if needed. A successful
// fetch is stored in the slot; later calls do not fetch again. A failed
// fetch leaves the slot unloaded.
func (d *Deferred[T]) Resolve(ctx context.Context) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.value, nil
	}
	if d.fetch == nil {
		var zero T
		return zero, NewNotLoadedError(d.Name)
	}
	v, err := d.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	d.value, d.loaded, d.fetch = v, true, nil
	return v, nil
}

// Set stores a value in the slot and marks it loaded.
func (d *Deferred[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value, d.loaded, d.fetch = v, true, nil
}
