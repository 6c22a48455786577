package privacy

import (
	"context"
	"errors"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
)

type (
	// QueryRule decides whether a query may run, and may narrow it when
	// the query implements Filter.
	QueryRule interface {
		EvalQuery(context.Context, relic.Query) error
	}

	// MutationRule decides whether a write may run, and may narrow it when
	// the mutation implements Filter.
	MutationRule interface {
		EvalMutation(context.Context, relic.Mutation) error
	}

	// QueryMutationRule is a rule of both reads and writes.
	QueryMutationRule interface {
		QueryRule
		MutationRule
	}

	// QueryPolicy is an ordered list of query rules.
	QueryPolicy []QueryRule

	// MutationPolicy is an ordered list of mutation rules.
	MutationPolicy []MutationRule
)

// EvalQuery returns the first decision other than Skip, or nil when every
// rule skips.
func (rules QueryPolicy) EvalQuery(ctx context.Context, q relic.Query) error {
	for _, r := range rules {
		if err := r.EvalQuery(ctx, q); err != nil && !errors.Is(err, Skip) {
			return err
		}
	}
	return nil
}

// EvalMutation returns the first decision other than Skip, or nil when
// every rule skips.
func (rules MutationPolicy) EvalMutation(ctx context.Context, m relic.Mutation) error {
	for _, r := range rules {
		if err := r.EvalMutation(ctx, m); err != nil && !errors.Is(err, Skip) {
			return err
		}
	}
	return nil
}

// QueryRuleFunc adapts a function to a QueryRule.
type QueryRuleFunc func(context.Context, relic.Query) error

// EvalQuery returns f(ctx, q).
func (f QueryRuleFunc) EvalQuery(ctx context.Context, q relic.Query) error { return f(ctx, q) }

// MutationRuleFunc adapts a function to a MutationRule.
type MutationRuleFunc func(context.Context, relic.Mutation) error

// EvalMutation returns f(ctx, m).
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m relic.Mutation) error {
	return f(ctx, m)
}

// ContextQueryMutationRule returns a rule deciding from the context alone.
func ContextQueryMutationRule(eval func(context.Context) error) QueryMutationRule {
	return contextRule(eval)
}

type contextRule func(context.Context) error

func (f contextRule) EvalQuery(ctx context.Context, _ relic.Query) error       { return f(ctx) }
func (f contextRule) EvalMutation(ctx context.Context, _ relic.Mutation) error { return f(ctx) }

// AlwaysAllowRule allows every operation.
func AlwaysAllowRule() QueryMutationRule {
	return ContextQueryMutationRule(func(context.Context) error { return Allow })
}

// AlwaysDenyRule denies every operation. It usually ends a policy that
// should deny what no earlier rule allowed.
func AlwaysDenyRule() QueryMutationRule {
	return ContextQueryMutationRule(func(context.Context) error { return Deny })
}

// OnMutationOperation applies rule to the operations in op and skips the
// others.
func OnMutationOperation(rule MutationRule, op relic.Op) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m relic.Mutation) error {
		if !m.Op().Is(op) {
			return Skip
		}
		return rule.EvalMutation(ctx, m)
	})
}

// DenyMutationOperationRule denies the operations in op.
func DenyMutationOperationRule(op relic.Op) MutationRule {
	return OnMutationOperation(MutationRuleFunc(func(_ context.Context, m relic.Mutation) error {
		return Denyf("relic/privacy: operation %s is not allowed", m.Op())
	}), op)
}

// Filter is implemented by the queries and the update or delete mutations
// of the orm. Predicates given to WhereP are added to the WHERE clause of
// the statement.
type Filter interface {
	WhereP(...sql.Expr)
}

// FilterFunc is a rule narrowing operations instead of deciding them:
//
//	privacy.FilterFunc(func(ctx context.Context, f privacy.Filter) error {
//		f.WhereP(sql.C("workspace_id").EQ(workspaceID))
//		return privacy.Skip
//	})
//
// Operations that cannot be narrowed, such as creates, are denied.
type FilterFunc func(context.Context, Filter) error

// EvalQuery implements QueryRule.
func (f FilterFunc) EvalQuery(ctx context.Context, q relic.Query) error {
	fq, ok := q.(Filter)
	if !ok {
		return Denyf("relic/privacy: query type %T does not support filtering", q)
	}
	return f(ctx, fq)
}

// EvalMutation implements MutationRule.
func (f FilterFunc) EvalMutation(ctx context.Context, m relic.Mutation) error {
	fm, ok := m.(Filter)
	if !ok {
		return Denyf("relic/privacy: mutation type %T does not support filtering", m)
	}
	return f(ctx, fm)
}
