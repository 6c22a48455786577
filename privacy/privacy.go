package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/relic"
)

// Decisions returned by rules. Rules may wrap them, see Allowf and Denyf.
var (
	// Allow ends the evaluation and lets the operation run.
	Allow = errors.New("relic/privacy: allow rule")
	// Deny ends the evaluation and fails the operation.
	Deny = errors.New("relic/privacy: deny rule")
	// Skip leaves the decision to the next rule.
	Skip = errors.New("relic/privacy: skip rule")
)

// Allowf returns an Allow decision with a formatted message.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a Deny decision with a formatted message. The message is
// the error returned to the caller of the denied operation.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Policy is the policy of one table, split into the rules of reads and
// the rules of writes.
type Policy struct {
	Query    QueryPolicy
	Mutation MutationPolicy
}

// EvalQuery implements relic.Policy.
func (p Policy) EvalQuery(ctx context.Context, q relic.Query) error {
	return p.Query.EvalQuery(ctx, q)
}

// EvalMutation implements relic.Policy.
func (p Policy) EvalMutation(ctx context.Context, m relic.Mutation) error {
	return p.Mutation.EvalMutation(ctx, m)
}

// Policies are the policies attached to a table, evaluated in order. The
// first policy returning Allow or a denial ends the evaluation, and Allow
// is reported as a nil error. A decision attached to the context with
// DecisionContext is returned without evaluating any policy.
type Policies []relic.Policy

// EvalQuery implements relic.Policy.
func (ps Policies) EvalQuery(ctx context.Context, q relic.Query) error {
	return ps.eval(ctx, func(p relic.Policy) error { return p.EvalQuery(ctx, q) })
}

// EvalMutation implements relic.Policy.
func (ps Policies) EvalMutation(ctx context.Context, m relic.Mutation) error {
	return ps.eval(ctx, func(p relic.Policy) error { return p.EvalMutation(ctx, m) })
}

func (ps Policies) eval(ctx context.Context, eval func(relic.Policy) error) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, p := range ps {
		decision := eval(p)
		switch {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext returns a copy of parent carrying decision, which then
// overrides the policies of every operation run with the context. Nil and
// Skip leave parent unchanged.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext returns the decision attached to ctx. An Allow
// decision is returned as nil.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}
