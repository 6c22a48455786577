// Package privacy provides the types and rules of privacy policies, which
// decide whether queries and writes of a table are allowed before they
// reach the database.
//
// A policy is attached to a table when the client is created:
//
//	client := orm.NewClient(drv, registry,
//		orm.WithPolicy("Document", privacy.Policy{
//			Mutation: privacy.MutationPolicy{
//				privacy.DenyIfNoViewer(),
//				privacy.HasRole("admin"),
//				privacy.IsOwner("owner_id"),
//				privacy.AlwaysDenyRule(),
//			},
//			Query: privacy.QueryPolicy{
//				privacy.TenantFilterRule("tenant_id"),
//			},
//		}),
//	)
//
// # Rule Evaluation
//
// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: grants access and stops evaluation
//   - Deny: denies access and stops evaluation
//   - Skip (or nil): continues to the next rule
//
// A policy whose rules all skip allows the operation. End a policy with
// AlwaysDenyRule to deny by default.
//
// Rules may narrow an operation instead of deciding it: FilterFunc receives
// the query or the update/delete mutation as a Filter and adds predicates
// to it.
//
// # Viewer
//
// Rules such as HasRole and TenantFilterRule read the Viewer attached to
// the context:
//
//	ctx := privacy.WithViewer(ctx, &privacy.SimpleViewer{
//		UserID:   "user-123",
//		Roles:    []string{"user"},
//		TenantID: "tenant-abc",
//	})
//	docs, err := client.Query("Document").All(ctx)
//
// A denied operation returns the error of the rule, which wraps Deny:
//
//	if errors.Is(err, privacy.Deny) {
//		...
//	}
package privacy
