package docrepo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"grisera/internal/document/badgerstore"
	"grisera/internal/domain"
	"grisera/internal/repository"
	"grisera/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	store, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	r := New(store, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Repository {
		return newTestRepository(t)
	})
}

func TestGetReason(t *testing.T) {
	r := newTestRepository(t)
	res, err := r.Get(context.Background(), domain.Modalities, "anything", 0, domain.NoSource)
	require.NoError(t, err)
	assert.Equal(t, &domain.NotFound{ID: "anything", Errors: domain.ReasonDocumentNotFound}, res.NotFound())
}

func TestExecutionsAreEmbedded(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	a := repotest.Create(t, r, domain.Activities, domain.Document{"activity": "group"})
	e := repotest.Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a})

	raw, err := r.store.Get(ctx, string(domain.Activities), a)
	require.NoError(t, err)
	children := raw.Documents("activity_executions")
	require.Len(t, children, 1)
	assert.Equal(t, e, children[0].ID())

	_, err = r.store.Get(ctx, string(domain.ActivityExecutions), e)
	assert.Error(t, err)

	list, err := r.List(ctx, domain.Activities, repository.Query{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "activity_executions")
}

func TestEmbeddedCreateNeedsParent(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	_, err := r.Create(ctx, domain.ActivityExecutions, domain.Document{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.Create(ctx, domain.ActivityExecutions, domain.Document{"activity_id": "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRelinkToMissingParentKeepsChild(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	a := repotest.Create(t, r, domain.Activities, domain.Document{"activity": "group"})
	e := repotest.Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a})

	err := r.UpdateRelationships(ctx, domain.ActivityExecutions, e, domain.Document{"activity_id": "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, a, repotest.Get(t, r, domain.ActivityExecutions, e, 0)["activity_id"])
}

func TestOrderByIDs(t *testing.T) {
	docs := []domain.Document{{"id": "a"}, {"id": "b"}}
	got := orderByIDs(docs, []string{"b", "x", "a", "b"})
	assert.Equal(t, []domain.Document{{"id": "b"}, {"id": "a"}, {"id": "b"}}, got)
}

func TestParentRewritesKeepConcurrentExecutions(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	a := repotest.Create(t, r, domain.Activities, domain.Document{"activity": "group"})

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := r.Create(ctx, domain.ActivityExecutions, domain.Document{"activity_id": a})
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.UpdateProperties(ctx, domain.Activities, a, domain.Document{"activity": fmt.Sprintf("group %d", i)}))
		}(i)
	}
	wg.Wait()

	raw, err := r.store.Get(ctx, string(domain.Activities), a)
	require.NoError(t, err)
	assert.Len(t, raw.Documents("activity_executions"), n)
}

func TestDeleteActivityClearsExecutionReferences(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	a := repotest.Create(t, r, domain.Activities, domain.Document{"activity": "group"})
	e := repotest.Create(t, r, domain.ActivityExecutions, domain.Document{"activity_id": a})
	p := repotest.Create(t, r, domain.Participations, domain.Document{"activity_execution_id": e})

	require.NoError(t, r.Delete(ctx, domain.Activities, a))

	raw, err := r.store.Get(ctx, string(domain.Participations), p)
	require.NoError(t, err)
	assert.NotContains(t, raw, "activity_execution_id")
}
