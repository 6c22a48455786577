package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
)

// Viewer is the user on whose behalf an operation runs.
type Viewer interface {
	GetID() string
	GetRoles() []string
	// GetTenantID returns "" for viewers outside any tenant.
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a copy of ctx carrying the viewer.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, v)
}

// ViewerFromContext returns the viewer of ctx, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a Viewer holding its attributes.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

func (v *SimpleViewer) GetID() string       { return v.UserID }
func (v *SimpleViewer) GetRoles() []string  { return v.Roles }
func (v *SimpleViewer) GetTenantID() string { return v.TenantID }

// DenyIfNoViewer denies operations run without a viewer.
func DenyIfNoViewer() QueryMutationRule {
	return ContextQueryMutationRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("relic/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole allows operations of viewers holding one of the roles.
func HasRole(roles ...string) QueryMutationRule {
	return ContextQueryMutationRule(func(ctx context.Context) error {
		v := ViewerFromContext(ctx)
		if v == nil {
			return Skip
		}
		for _, r := range roles {
			if slices.Contains(v.GetRoles(), r) {
				return Allow
			}
		}
		return Skip
	})
}

// IsOwner allows writes whose value of field is the ID of the viewer. For
// updates the value is the one the row has after the write.
func IsOwner(field string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m relic.Mutation) error {
		v := ViewerFromContext(ctx)
		if v == nil {
			return Skip
		}
		if value, ok := m.Field(field); ok && fmt.Sprint(value) == v.GetID() {
			return Allow
		}
		return Skip
	})
}

// OwnerFilterRule narrows reads, updates and deletes to the rows whose
// field holds the ID of the viewer, and denies creating rows owned by
// someone else.
func OwnerFilterRule(field string) QueryMutationRule {
	return viewerFilter{field: field, what: "owner", key: Viewer.GetID}
}

// TenantFilterRule narrows reads, updates and deletes to the rows of the
// tenant of the viewer, and denies creating rows of another tenant. It
// pairs with the TenantID mixin of contrib/mixin:
//
//	tenant := privacy.TenantFilterRule("tenant_id")
//	client := orm.NewClient(drv, registry, orm.WithPolicy("Document", privacy.Policy{
//		Query:    privacy.QueryPolicy{tenant},
//		Mutation: privacy.MutationPolicy{tenant},
//	}))
func TenantFilterRule(field string) QueryMutationRule {
	return viewerFilter{field: field, what: "tenant", key: Viewer.GetTenantID}
}

// viewerFilter matches the rows whose field equals a key of the viewer.
// Operations without a viewer, or with an empty key, are denied.
type viewerFilter struct {
	field string
	what  string
	key   func(Viewer) string
}

func (r viewerFilter) value(ctx context.Context) (string, error) {
	v := ViewerFromContext(ctx)
	if v == nil {
		return "", Denyf("relic/privacy: viewer required for %s-filtered %s", r.what, r.field)
	}
	key := r.key(v)
	if key == "" {
		return "", Denyf("relic/privacy: %s required", r.what)
	}
	return key, nil
}

func (r viewerFilter) filter(ctx context.Context, f Filter) error {
	key, err := r.value(ctx)
	if err != nil {
		return err
	}
	f.WhereP(sql.C(r.field).EQ(key))
	return Skip
}

func (r viewerFilter) EvalQuery(ctx context.Context, q relic.Query) error {
	return FilterFunc(r.filter).EvalQuery(ctx, q)
}

func (r viewerFilter) EvalMutation(ctx context.Context, m relic.Mutation) error {
	if !m.Op().Is(relic.OpCreate) {
		return FilterFunc(r.filter).EvalMutation(ctx, m)
	}
	key, err := r.value(ctx)
	if err != nil {
		return err
	}
	if v, ok := m.Field(r.field); !ok || fmt.Sprint(v) != key {
		return Denyf("relic/privacy: %s mismatch", r.what)
	}
	return Skip
}
