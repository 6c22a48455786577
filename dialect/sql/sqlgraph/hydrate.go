package sqlgraph

import (
	"context"
	"fmt"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/schema"
)

// Plan records the layout of the selected columns of a statement, so rows
// can be split back into the tables they came from.
type Plan struct {
	Root *PlanNode
	// Width is the number of selected columns.
	Width int
}

// PlanNode is the slice of a row belonging to one table expression.
type PlanNode struct {
	Alias string
	Table *schema.Table
	// Edge reaches the node from its parent. Nil for the root.
	Edge *schema.Column
	// Offset of the first column of the node in the row.
	Offset int
	// Columns are the stored columns in select order. A generic reference
	// takes two values: its table name and its key.
	Columns  []*schema.Column
	Children []*PlanNode
}

// NewPlan lays out the selected nodes of the tree: the root columns first,
// then the columns of every selected node in walk order.
func NewPlan(t *JoinTree) *Plan {
	p := &Plan{}
	var add func(*JoinNode, *PlanNode)
	add = func(n *JoinNode, parent *PlanNode) {
		pn := &PlanNode{
			Alias:   n.Expr.Alias,
			Table:   n.Expr.Table,
			Edge:    n.Expr.Edge,
			Offset:  p.Width,
			Columns: n.Expr.Table.Stored(),
		}
		p.Width += len(n.Expr.Table.SQLColumns())
		if parent == nil {
			p.Root = pn
		} else {
			parent.Children = append(parent.Children, pn)
		}
		for _, c := range n.children() {
			if c.Selected {
				add(c, pn)
			}
		}
	}
	add(t.Root, nil)
	return p
}

// Nodes returns the nodes of the plan in select order.
func (p *Plan) Nodes() []*PlanNode {
	var (
		nodes []*PlanNode
		walk  func(*PlanNode)
	)
	walk = func(n *PlanNode) {
		nodes = append(nodes, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(p.Root)
	return nodes
}

// Render writes the select list of the plan.
func (p *Plan) Render(b *sql.Builder) {
	i := 0
	for _, n := range p.Nodes() {
		for _, col := range n.Table.SQLColumns() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.Qualified(n.Alias, col)
			i++
		}
	}
}

type identity struct {
	table *schema.Table
	pk    any
}

type member struct {
	parent *relic.Record
	edge   string
	pk     any
}

// hydrator holds the state of one Hydrate call. Nothing is shared between
// calls.
type hydrator struct {
	loader  relic.Loader
	records map[identity]*relic.Record
	order   []*relic.Record
	members map[member]struct{}
}

// Hydrate builds the records of the given rows. Rows repeating a root
// primary key, as produced by joined to-many relationships, are merged into
// the same record. Roots are returned in order of first appearance, and
// to-many children keep their row order. Relationships that were not
// selected get lazy slots resolved through the loader.
func Hydrate(rows [][]any, plan *Plan, loader relic.Loader) ([]*relic.Record, error) {
	if loader == nil {
		loader = unloaded{}
	}
	h := &hydrator{
		loader:  loader,
		records: make(map[identity]*relic.Record),
		members: make(map[member]struct{}),
	}
	var roots []*relic.Record
	seen := make(map[any]struct{})
	for _, row := range rows {
		if len(row) != plan.Width {
			return nil, relic.NewMalformedRowError(plan.Root.Table.Name, plan.Root.Alias,
				fmt.Sprintf("row has %d values, plan expects %d", len(row), plan.Width))
		}
		root, err := h.record(plan.Root, row)
		if err != nil {
			return nil, err
		}
		if root == nil {
			return nil, relic.NewMalformedRowError(plan.Root.Table.Name, plan.Root.Alias, "null primary key")
		}
		// A root may already exist as the child of an earlier root.
		if _, ok := seen[mapKey(root.ID())]; !ok {
			seen[mapKey(root.ID())] = struct{}{}
			roots = append(roots, root)
		}
		if err := h.children(root, plan.Root, row); err != nil {
			return nil, err
		}
	}
	for _, r := range h.order {
		for _, e := range r.Table().Edges() {
			r.Defer(e, h.loader)
		}
	}
	return roots, nil
}

// record returns the record of the node in the row, creating it on first
// sight. It returns nil for null-extended rows of joined tables.
func (h *hydrator) record(n *PlanNode, row []any) (*relic.Record, error) {
	raw := row[n.Offset+h.pkIndex(n)]
	if raw == nil {
		return nil, nil
	}
	pk, err := n.Table.PrimaryKey().Parse(raw)
	if err != nil {
		return nil, relic.NewMalformedRowError(n.Table.Name, n.Alias, fmt.Sprintf("primary key: %v", err))
	}
	id := identity{table: n.Table, pk: mapKey(pk)}
	if r, ok := h.records[id]; ok {
		return r, nil
	}
	r := relic.NewRecord(n.Table)
	i := n.Offset
	for _, c := range n.Columns {
		if c.Generic {
			ref, err := parseRef(c, row[i], row[i+1])
			if err != nil {
				return nil, relic.NewMalformedRowError(n.Table.Name, n.Alias, fmt.Sprintf("column %q: %v", c.SQLName, err))
			}
			r.Set(c.Name, ref)
			i += 2
			continue
		}
		v, err := c.Parse(row[i])
		if err != nil {
			return nil, relic.NewMalformedRowError(n.Table.Name, n.Alias, fmt.Sprintf("column %q: %v", c.SQLName, err))
		}
		r.Set(c.Name, v)
		i++
	}
	h.records[id] = r
	h.order = append(h.order, r)
	return r, nil
}

func (h *hydrator) pkIndex(n *PlanNode) int {
	i := 0
	pk := n.Table.PrimaryKey()
	for _, c := range n.Columns {
		if c == pk {
			return i
		}
		i += len(c.SQLColumns())
	}
	return i
}

func (h *hydrator) children(parent *relic.Record, n *PlanNode, row []any) error {
	for _, cn := range n.Children {
		child, err := h.record(cn, row)
		if err != nil {
			return err
		}
		name := cn.Edge.Name
		if cn.Edge.Cardinality == schema.ToMany {
			slot := parent.Many(name)
			if slot == nil {
				slot = relic.Loaded(parent, name, []*relic.Record{})
				parent.SetMany(name, slot)
			}
			if child != nil {
				m := member{parent: parent, edge: name, pk: mapKey(child.ID())}
				if _, ok := h.members[m]; !ok {
					h.members[m] = struct{}{}
					list, _ := slot.Get()
					slot.Set(append(list, child))
				}
			}
		} else if slot := parent.One(name); slot == nil || (!slot.Loaded() && child != nil) {
			parent.SetOne(name, relic.Loaded(parent, name, child))
		}
		if child != nil {
			if err := h.children(child, cn, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseRef(c *schema.Column, table, key any) (relic.GenericRef, error) {
	if table == nil || key == nil {
		return relic.GenericRef{}, nil
	}
	name, err := c.Parse(table)
	if err != nil {
		return relic.GenericRef{}, err
	}
	id, err := c.Parse(key)
	if err != nil {
		return relic.GenericRef{}, err
	}
	s, ok := name.(string)
	if !ok {
		return relic.GenericRef{}, fmt.Errorf("table name of type %T", name)
	}
	return relic.GenericRef{Table: s, ID: id}, nil
}

// mapKey returns a map-safe form of a key value.
func mapKey(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// unloaded is the loader of records hydrated without one.
type unloaded struct{}

func (unloaded) LoadOne(_ context.Context, _ *relic.Record, e *schema.Column, _ any) (*relic.Record, error) {
	return nil, relic.NewNotLoadedError(e.Name)
}

func (unloaded) LoadMany(_ context.Context, _ *relic.Record, e *schema.Column) ([]*relic.Record, error) {
	return nil, relic.NewNotLoadedError(e.Name)
}

func (unloaded) LoadGeneric(_ context.Context, _ *relic.Record, e *schema.Column, _ relic.GenericRef) (*relic.Record, error) {
	return nil, relic.NewNotLoadedError(e.Name)
}
