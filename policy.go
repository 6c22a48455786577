package relic

import (
	"context"
	"fmt"

	"github.com/syssam/relic/schema"
)

// Op is the operation of a mutation.
type Op uint

// Mutation operations.
const (
	OpCreate    Op = 1 << iota // insert one row
	OpUpdate                   // update the rows matching a query
	OpUpdateOne                // update one record
	OpDelete                   // delete the rows matching a query
	OpDeleteOne                // delete one record
)

// Is reports whether i matches the given operation.
func (i Op) Is(o Op) bool { return i&o != 0 }

var opNames = map[Op]string{
	OpCreate:    "OpCreate",
	OpUpdate:    "OpUpdate",
	OpUpdateOne: "OpUpdateOne",
	OpDelete:    "OpDelete",
	OpDeleteOne: "OpDeleteOne",
}

func (i Op) String() string {
	if s, ok := opNames[i]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", uint(i))
}

type (
	// Query is the view of a pending query given to policies.
	Query interface {
		// Table returns the root table of the query.
		Table() *schema.Table
	}

	// Mutation is the view of a pending write given to policies.
	Mutation interface {
		// Table returns the written table.
		Table() *schema.Table
		// Op returns the operation of the write.
		Op() Op
		// Field returns the value the write gives to the named field or
		// to-one relationship. For OpUpdateOne it falls back to the
		// current value of the record.
		Field(name string) (any, bool)
	}

	// Policy decides whether queries and mutations of a table are allowed,
	// and may narrow them. A nil error allows the operation.
	Policy interface {
		EvalQuery(context.Context, Query) error
		EvalMutation(context.Context, Mutation) error
	}
)
