package sqlgraph

import (
	"strings"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/schema"
)

// AliasSep separates the segments of a join alias: the table reached
// through "author.publisher" from books is aliased "books__author__publisher".
const AliasSep = "__"

// TableExpr is one occurrence of a table in the FROM and JOIN clauses of a
// statement.
type TableExpr struct {
	// Path is the dotted relationship path from the root, empty for the root.
	Path string
	// Alias is unique within the statement. The root alias is the table name.
	Alias string
	Table *schema.Table
	// Parent is the table expression the relationship starts from.
	Parent *TableExpr
	// Edge is the relationship of Parent reaching this table.
	Edge *schema.Column
}

// IsRoot reports whether the expression is the root of the statement.
func (t *TableExpr) IsRoot() bool { return t.Parent == nil }

// Column returns the qualified reference to a SQL column of the table.
func (t *TableExpr) Column(name string) sql.Expr {
	return &qualifiedColumn{alias: t.Alias, column: name}
}

// PrimaryKey returns the qualified reference to the primary key.
func (t *TableExpr) PrimaryKey() sql.Expr {
	return t.Column(t.Table.PrimaryKey().SQLName)
}

type qualifiedColumn struct {
	alias, column string
}

func (c *qualifiedColumn) Render(b *sql.Builder) {
	b.Qualified(c.alias, c.column)
}

// Resolver maps relationship paths of one statement to table expressions.
// Resolving the same path twice returns the same *TableExpr. A Resolver
// implements sql.Scope, so column references of the expression algebra
// render against the aliases it assigns.
type Resolver struct {
	root    *TableExpr
	exprs   map[string]*TableExpr
	aliases map[string]string
}

// NewResolver returns a resolver for statements rooted at the given table.
func NewResolver(root *schema.Table) *Resolver {
	r := &Resolver{
		root:    &TableExpr{Alias: root.SQLName, Table: root},
		exprs:   make(map[string]*TableExpr),
		aliases: make(map[string]string),
	}
	r.exprs[""] = r.root
	r.aliases[r.root.Alias] = ""
	return r
}

// Root returns the table expression of the root table.
func (r *Resolver) Root() *TableExpr { return r.root }

// Resolve returns the table expression reached through the given dotted
// relationship path, creating it and its ancestors on first use.
func (r *Resolver) Resolve(path string) (*TableExpr, error) {
	if te, ok := r.exprs[path]; ok {
		return te, nil
	}
	if strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") || strings.Contains(path, "..") {
		return nil, relic.NewInvalidPathError(r.root.Table.Name, path)
	}
	parent, name := r.root, path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		p, err := r.Resolve(path[:i])
		if err != nil {
			return nil, err
		}
		parent, name = p, path[i+1:]
	}
	e, ok := parent.Table.Column(name)
	switch {
	case !ok || e.Name != name || !e.IsEdge():
		return nil, relic.NewInvalidPathError(r.root.Table.Name, path)
	case e.Generic:
		return nil, relic.NewUnsupportedPreloadError(r.root.Table.Name, path)
	}
	te := &TableExpr{
		Path:   path,
		Alias:  r.root.Alias + AliasSep + strings.ReplaceAll(path, ".", AliasSep),
		Table:  e.Target,
		Parent: parent,
		Edge:   e,
	}
	if other, ok := r.aliases[te.Alias]; ok {
		return nil, relic.NewAliasCollisionError(te.Alias, other, path)
	}
	r.aliases[te.Alias] = path
	r.exprs[path] = te
	return te, nil
}

// Column implements sql.Scope. The name may be a field name, the name of a
// to-one relationship holding its foreign key, or a stored SQL column name.
func (r *Resolver) Column(path, name string) (string, string, error) {
	te, err := r.Resolve(path)
	if err != nil {
		return "", "", err
	}
	c, ok := te.Table.Column(name)
	switch {
	case !ok || c.KeyedOnTarget():
		return "", "", relic.NewUnknownColumnError(te.Table.Name, name)
	case c.Name != name:
		// Stored SQL name, e.g. the "_table" column of a generic reference.
		return te.Alias, name, nil
	}
	return te.Alias, c.SQLName, nil
}

// Check validates every column reference of the given expressions without
// rendering them.
func (r *Resolver) Check(es ...sql.Expr) error {
	for _, c := range sql.Columns(es...) {
		if _, _, err := r.Column(c.Path, c.Name); err != nil {
			return err
		}
	}
	return nil
}

var _ sql.Scope = (*Resolver)(nil)
