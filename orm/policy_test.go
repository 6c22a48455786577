package orm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/relic"
	"github.com/syssam/relic/dialect/sql"
	"github.com/syssam/relic/orm"
	"github.com/syssam/relic/privacy"
)

// ownBooks narrows book queries and writes to the books of the viewer,
// matched by author name.
var ownBooks = privacy.FilterFunc(func(ctx context.Context, f privacy.Filter) error {
	f.WhereP(sql.C("author.name").EQ(privacy.ViewerFromContext(ctx).GetID()))
	return privacy.Skip
})

func viewer(name string) context.Context {
	return privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: name})
}

func TestQueryPolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := sqlite(t, orm.WithPolicy("Book", privacy.Policy{
		Query: privacy.QueryPolicy{privacy.DenyIfNoViewer(), ownBooks},
	}))
	rob := create(ctx, t, c, "Author", map[string]any{"name": "Rob"})
	ken := create(ctx, t, c, "Author", map[string]any{"name": "Ken"})
	create(ctx, t, c, "Book", map[string]any{"title": "Go", "author": rob})
	create(ctx, t, c, "Book", map[string]any{"title": "Plan 9", "author": rob})
	unix := create(ctx, t, c, "Book", map[string]any{"title": "Unix", "author": ken})

	q := c.Query("Book").OrderBy(sql.Asc(sql.C("title")))
	books, err := q.All(viewer("Rob"))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Go", books[0].Value("title"))
	n, err := q.Count(viewer("Ken"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = q.All(ctx)
	assert.ErrorIs(t, err, privacy.Deny)

	// The query itself is left unfiltered.
	n, err = q.Count(privacy.DecisionContext(ctx, privacy.Allow))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Lazy loads go through the same policies.
	reviews, err := c.Query("Review").All(ctx)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	r := create(ctx, t, c, "Review", map[string]any{"body": "classic", "stars": 5, "book": unix})
	_, err = r.One("book").Resolve(ctx)
	assert.ErrorIs(t, err, privacy.Deny)
	_, err = r.One("book").Resolve(viewer("Rob"))
	require.NoError(t, err)
	b, err := r.One("book").Get()
	require.NoError(t, err)
	assert.Nil(t, b, "filtered out for Rob")
}

func TestMutationPolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := sqlite(t,
		orm.WithPolicy("Book", privacy.Policy{
			Mutation: privacy.MutationPolicy{
				privacy.DenyMutationOperationRule(relic.OpDelete | relic.OpDeleteOne),
				privacy.OnMutationOperation(ownBooks, relic.OpUpdate|relic.OpUpdateOne),
			},
		}),
		orm.WithPolicy("reviews", privacy.Policy{
			Mutation: privacy.MutationPolicy{ownBooks},
		}),
	)
	rob := create(ctx, t, c, "Author", map[string]any{"name": "Rob"})
	ken := create(ctx, t, c, "Author", map[string]any{"name": "Ken"})
	gobook := create(ctx, t, c, "Book", map[string]any{"title": "Go", "author": rob})
	unix := create(ctx, t, c, "Book", map[string]any{"title": "Unix", "author": ken})

	n, err := c.Query("Book").Set("pages", 10).ForAllRows().Update(viewer("Rob"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = c.Save(viewer("Rob"), unix, map[string]any{"title": "UNIX"})
	assert.True(t, relic.IsNotFound(err), "%v", err)
	saved, err := c.Save(viewer("Rob"), gobook, map[string]any{"title": "The Go Programming Language"})
	require.NoError(t, err)
	assert.Equal(t, "The Go Programming Language", saved.Value("title"))

	err = c.DeleteOne(ctx, unix)
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), "OpDeleteOne")
	_, err = c.Query("Book").Where(sql.C("title").EQ("Unix")).Delete(ctx)
	assert.ErrorIs(t, err, privacy.Deny)
	n, err = c.Query("Book").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Creates cannot be narrowed by filters.
	_, err = c.Create(viewer("Rob"), "Review", map[string]any{"body": "x", "stars": 1, "book": gobook})
	assert.ErrorIs(t, err, privacy.Deny)
	assert.Contains(t, err.Error(), "does not support filtering")
}

func TestMutationPolicyFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var seen []any
	c := sqlite(t, orm.WithPolicy("Book", privacy.Policy{
		Mutation: privacy.MutationPolicy{
			privacy.MutationRuleFunc(func(_ context.Context, m relic.Mutation) error {
				v, _ := m.Field("pages")
				seen = append(seen, m.Op().String(), v)
				return privacy.Skip
			}),
			privacy.IsOwner("title"),
			privacy.OnMutationOperation(privacy.AlwaysDenyRule(), relic.OpCreate),
		},
	}))
	_, err := c.Create(ctx, "Book", map[string]any{"title": "Go", "pages": 300})
	assert.ErrorIs(t, err, privacy.Deny)
	b, err := c.Create(viewer("Go"), "Book", map[string]any{"title": "Go", "pages": 300})
	require.NoError(t, err, "allowed as owner")
	_, err = c.Save(viewer("Go"), b, map[string]any{"pages": 310})
	require.NoError(t, err)
	assert.Equal(t, []any{"OpCreate", 300, "OpCreate", 300, "OpUpdateOne", 310}, seen)
}

func TestVersionedMutationPolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	unlocked := privacy.FilterFunc(func(_ context.Context, f privacy.Filter) error {
		f.WhereP(sql.C("slug").NEQ("locked"))
		return privacy.Skip
	})
	c := sqlite(t, orm.WithPolicy("Document", privacy.Policy{
		Mutation: privacy.MutationPolicy{
			privacy.OnMutationOperation(unlocked, relic.OpUpdate|relic.OpUpdateOne),
		},
	}))
	locked := create(ctx, t, c, "Document", map[string]any{"slug": "locked", "body": "v1"})
	open := create(ctx, t, c, "Document", map[string]any{"slug": "open", "body": "v1"})

	_, err := c.Save(ctx, locked, map[string]any{"body": "v2"})
	assert.True(t, relic.IsNotFound(err), "%v", err)
	next, err := c.Save(ctx, open, map[string]any{"body": "v2"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Value("version"))

	n, err := c.Query("Document").Set("body", "v3").ForAllRows().Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	history, err := c.History(ctx, "Document", map[string]any{"slug": "locked"})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPolicyFilterDoesNotScopeWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	counted := privacy.FilterFunc(func(_ context.Context, f privacy.Filter) error {
		f.WhereP(sql.C("pages").GTE(0))
		return privacy.Skip
	})
	c := sqlite(t, orm.WithPolicy("Book", privacy.Policy{
		Mutation: privacy.MutationPolicy{
			privacy.OnMutationOperation(counted, relic.OpUpdate|relic.OpDelete),
		},
	}))
	create(ctx, t, c, "Book", map[string]any{"title": "Go", "pages": 380})
	create(ctx, t, c, "Book", map[string]any{"title": "Unix", "pages": 200})

	_, err := c.Query("Book").Delete(ctx)
	assert.True(t, relic.IsEmptyPredicate(err), "%v", err)
	_, err = c.Query("Book").Set("pages", 1).Update(ctx)
	assert.True(t, relic.IsEmptyPredicate(err), "%v", err)
	n, err := c.Query("Book").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.Query("Book").ForAllRows().Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestViewerPolicy(t *testing.T) {
	t.Parallel()
	rules := []privacy.QueryMutationRule{
		privacy.DenyIfNoViewer(),
		privacy.HasRole("admin"),
		privacy.OwnerFilterRule("name"),
	}
	var policy privacy.Policy
	for _, r := range rules {
		policy.Query = append(policy.Query, r)
		policy.Mutation = append(policy.Mutation, r)
	}
	c := sqlite(t, orm.WithPolicy("Author", policy))
	admin := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "root", Roles: []string{"admin"}})
	ken := create(admin, t, c, "Author", map[string]any{"name": "Ken"})
	create(admin, t, c, "Author", map[string]any{"name": "Rob"})

	authors, err := c.Query("Author").All(viewer("Rob"))
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "Rob", authors[0].Value("name"))
	n, err := c.Query("Author").Count(admin)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = c.Query("Author").All(context.Background())
	assert.ErrorIs(t, err, privacy.Deny)

	_, err = c.Create(viewer("Rob"), "Author", map[string]any{"name": "Ken"})
	assert.ErrorIs(t, err, privacy.Deny)
	assert.ErrorContains(t, err, "owner mismatch")
	_, err = c.Create(viewer("Rob"), "Author", map[string]any{"name": "Rob"})
	require.NoError(t, err)

	n, err = c.Query("Author").Set("name", "Rob Pike").ForAllRows().Update(viewer("Rob"))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "both rows named Rob")
	err = c.DeleteOne(viewer("Rob"), ken)
	assert.True(t, relic.IsNotFound(err), "%v", err)
	n, err = c.Query("Author").Where(sql.C("name").EQ("Ken")).Count(admin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
