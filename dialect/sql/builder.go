package sql

import (
	"errors"
	"strings"

	"github.com/syssam/relic/dialect"
)

// Scope resolves column references of an expression tree to their
// alias-qualified SQL names. It is consulted at render time only, so the
// same expression can be rendered against different join layouts.
type Scope interface {
	// Column returns the table qualifier (alias) and the SQL column name of
	// the field name reached through the dotted relationship path.
	Column(path, name string) (qualifier, column string, err error)
}

// Builder is the SQL string builder shared by every fragment of one
// statement. Fragments append their parameters to the same builder, so the
// positional placeholders and the argument list always line up.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
	scope   Scope
	errs    []error
}

// Dialect creates a new Builder for the given dialect.
func Dialect(name string) *Builder {
	return &Builder{dialect: name}
}

// Dialect returns the dialect name of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// WithScope sets the column scope used when rendering column expressions.
func (b *Builder) WithScope(s Scope) *Builder {
	b.scope = s
	return b
}

// Scope returns the column scope of the builder, possibly nil.
func (b *Builder) Scope() Scope { return b.scope }

// WriteString appends the given string to the statement.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Byte appends the given byte to the statement.
func (b *Builder) Byte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Pad appends a single space.
func (b *Builder) Pad() *Builder {
	return b.Byte(' ')
}

// Ident appends the given identifier quoted for the builder dialect.
func (b *Builder) Ident(s string) *Builder {
	q := `"`
	if b.dialect == dialect.MySQL {
		q = "`"
	}
	b.sb.WriteString(q)
	b.sb.WriteString(strings.ReplaceAll(s, q, q+q))
	b.sb.WriteString(q)
	return b
}

// Qualified appends a qualified column reference. An empty qualifier
// writes the column alone.
func (b *Builder) Qualified(qualifier, column string) *Builder {
	if qualifier != "" {
		b.Ident(qualifier).Byte('.')
	}
	return b.Ident(column)
}

// IdentComma appends the given identifiers quoted and separated by commas.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(s[i])
	}
	return b
}

// Arg appends a positional placeholder and records its argument.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	return b.WriteString(dialect.Placeholder(b.dialect, len(b.args)))
}

// Join renders the given expression into the builder.
func (b *Builder) Join(e Expr) *Builder {
	if e == nil {
		b.AddError(errors.New("sql: nil expression"))
		return b
	}
	e.Render(b)
	return b
}

// JoinComma renders the given expressions separated by commas.
func (b *Builder) JoinComma(es ...Expr) *Builder {
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Join(e)
	}
	return b
}

// Wrap writes the output of f wrapped in parentheses.
func (b *Builder) Wrap(f func(*Builder)) *Builder {
	b.Byte('(')
	f(b)
	return b.Byte(')')
}

// AddError records an error found while building the statement.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the first error recorded by the builder. Later errors are
// usually consequences of the first one.
func (b *Builder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return b.errs[0]
}

// Len returns the length of the statement written so far.
func (b *Builder) Len() int { return b.sb.Len() }

// String returns the statement written so far.
func (b *Builder) String() string { return b.sb.String() }

// Args returns the arguments recorded so far.
func (b *Builder) Args() []any { return b.args }

// Query returns the statement and its arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}
