package sqlgraph

import (
	"slices"
	"strings"

	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/schema"
)

// JoinNode is a node of the join tree. The root node stands for the root
// table and is never joined.
type JoinNode struct {
	// Name of the relationship reaching the node from its parent.
	Name string
	Expr *TableExpr
	// Children are keyed by relationship name.
	Children map[string]*JoinNode
	// Selected nodes are preloaded: their columns are selected and
	// hydrated. Other nodes are joined only for filtering and ordering.
	Selected bool
}

// children returns the child nodes sorted by name.
func (n *JoinNode) children() []*JoinNode {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	slices.Sort(names)
	nodes := make([]*JoinNode, len(names))
	for i, name := range names {
		nodes[i] = n.Children[name]
	}
	return nodes
}

// JoinTree is the set of tables joined by one statement.
type JoinTree struct {
	Root *JoinNode
}

// BuildJoinTree builds the join tree of the given preload paths and of the
// paths referenced implicitly by filters and ordering. Every node on a
// preload path is selected; nodes reached only through implicit paths are
// join-only.
func BuildJoinTree(r *Resolver, preloads, implicit []string) (*JoinTree, error) {
	t := &JoinTree{Root: &JoinNode{Expr: r.Root(), Children: make(map[string]*JoinNode), Selected: true}}
	for _, p := range preloads {
		if err := t.add(r, p, true); err != nil {
			return nil, err
		}
	}
	for _, p := range implicit {
		if err := t.add(r, p, false); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *JoinTree) add(r *Resolver, path string, selected bool) error {
	// Resolve the full path first, so a bad segment fails the whole path.
	if _, err := r.Resolve(path); err != nil {
		return err
	}
	node := t.Root
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		child, ok := node.Children[seg]
		if !ok {
			te, err := r.Resolve(strings.Join(segs[:i+1], "."))
			if err != nil {
				return err
			}
			child = &JoinNode{Name: seg, Expr: te, Children: make(map[string]*JoinNode)}
			node.Children[seg] = child
		}
		child.Selected = child.Selected || selected
		node = child
	}
	return nil
}

// Walk calls fn for every joined node in depth-first order, parents before
// their children and siblings in name order. The root is not visited.
func (t *JoinTree) Walk(fn func(*JoinNode)) {
	var walk func(*JoinNode)
	walk = func(n *JoinNode) {
		for _, c := range n.children() {
			fn(c)
			walk(c)
		}
	}
	walk(t.Root)
}

// Empty reports whether the tree joins no table.
func (t *JoinTree) Empty() bool { return len(t.Root.Children) == 0 }

// FansOut reports whether a to-many relationship is joined, so the root
// rows may repeat.
func (t *JoinTree) FansOut() bool {
	fans := false
	t.Walk(func(n *JoinNode) {
		if n.Expr.Edge.Cardinality == schema.ToMany {
			fans = true
		}
	})
	return fans
}

// Selected returns the selected nodes in select order: the root first,
// then the joined nodes in walk order.
func (t *JoinTree) Selected() []*JoinNode {
	nodes := []*JoinNode{t.Root}
	t.Walk(func(n *JoinNode) {
		if n.Selected {
			nodes = append(nodes, n)
		}
	})
	return nodes
}

// Render writes the JOIN clauses of the tree. Soft-deleted rows of joined
// tables are excluded in the join condition unless includeDeleted is set,
// so a root row without live related rows is still returned.
func (t *JoinTree) Render(b *sql.Builder, includeDeleted bool) {
	t.Walk(func(n *JoinNode) {
		te := n.Expr
		b.WriteString(" LEFT JOIN ").Ident(te.Table.SQLName).WriteString(" AS ").Ident(te.Alias).WriteString(" ON ")
		e := te.Edge
		if e.KeyedOnTarget() {
			b.Qualified(te.Alias, e.Ref.SQLName).WriteString(" = ").Qualified(te.Parent.Alias, te.Parent.Table.PrimaryKey().SQLName)
		} else {
			b.Qualified(te.Alias, te.Table.PrimaryKey().SQLName).WriteString(" = ").Qualified(te.Parent.Alias, e.SQLName)
		}
		if !includeDeleted && te.Table.SoftDelete() {
			b.WriteString(" AND ").Qualified(te.Alias, te.Table.DeletedAt().SQLName).WriteString(" IS NULL")
		}
	})
}
