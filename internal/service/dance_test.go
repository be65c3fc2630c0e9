package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/memstore"
	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

// blockingDances parks the first search until its context ends.
type blockingDances struct {
	*memstore.Store
	calls   atomic.Int32
	started chan struct{}
}

func (b *blockingDances) SearchDances(ctx context.Context, q string, limit int) ([]model.Dance, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.Store.SearchDances(ctx, q, limit)
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]model.Dance
	getErr      error
	invalidated int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]model.Dance{}} }

func (c *fakeCache) Get(_ context.Context, q string) ([]model.Dance, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	d, ok := c.entries[q]
	return d, ok, nil
}

func (c *fakeCache) Set(_ context.Context, q string, d []model.Dance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[q] = d
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.invalidated++
	return nil
}

func seedDances(t *testing.T, st *memstore.Store, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, st.CreateDance(context.Background(), &model.Dance{Name: n}))
	}
}

func TestSearch_ShortQueriesReturnNothing(t *testing.T) {
	st := memstore.New()
	seedDances(t, st, "Waltz")
	svc := NewDanceService(st, nil)

	for _, q := range []string{"", " ", "W", "  w  "} {
		got, err := svc.Search(context.Background(), "", q)
		require.NoError(t, err)
		assert.Empty(t, got, "query %q", q)
		assert.NotNil(t, got)
	}
}

func TestSearch_MatchesAndLimits(t *testing.T) {
	st := memstore.New()
	for i := range 15 {
		seedDances(t, st, "Line Dance "+string(rune('A'+i)))
	}
	seedDances(t, st, "Waltz")
	svc := NewDanceService(st, nil)

	got, err := svc.Search(context.Background(), "", "  line ")
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.Equal(t, "Line Dance A", got[0].Name)

	got, err = svc.Search(context.Background(), "", "WAL")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Waltz", got[0].Name)
}

func TestSearch_NewerSearchSupersedesOlder(t *testing.T) {
	st := memstore.New()
	seedDances(t, st, "Waltz", "West Coast Swing")
	dances := &blockingDances{Store: st, started: make(chan struct{})}
	svc := NewDanceService(dances, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), "tab-1", "wa")
		errc <- err
	}()
	<-dances.started

	got, err := svc.Search(context.Background(), "tab-1", "wal")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Waltz", got[0].Name)

	assert.ErrorIs(t, <-errc, ErrSuperseded)
}

func TestSearch_OtherSessionsAreIndependent(t *testing.T) {
	st := memstore.New()
	seedDances(t, st, "Waltz")
	svc := NewDanceService(st, nil)

	_, err := svc.Search(context.Background(), "a", "wal")
	require.NoError(t, err)
	got, err := svc.Search(context.Background(), "b", "wal")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.sessions, "finished searches release their session")
}

func TestSearch_UsesCache(t *testing.T) {
	st := memstore.New()
	seedDances(t, st, "Waltz")
	cache := newFakeCache()
	svc := NewDanceService(st, cache)

	got, err := svc.Search(context.Background(), "", "wal")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, cache.entries, "wal")

	cache.entries["wal"] = []model.Dance{{ID: "cached", Name: "Cached Waltz"}}
	got, err = svc.Search(context.Background(), "", "wal")
	require.NoError(t, err)
	assert.Equal(t, "cached", got[0].ID)

	cache.getErr = errors.New("redis down")
	got, err = svc.Search(context.Background(), "", "wal")
	require.NoError(t, err, "cache failures fall through to the store")
	assert.Equal(t, "Waltz", got[0].Name)
}

func TestCreateDance(t *testing.T) {
	st := memstore.New()
	cache := newFakeCache()
	svc := NewDanceService(st, cache)

	_, err := svc.Create(context.Background(), model.DanceRequest{Name: "   "})
	assert.Contains(t, fieldErrors(t, err), "name")

	d, err := svc.Create(context.Background(), model.DanceRequest{Name: " Polka ", Link: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Polka", d.Name)
	assert.Nil(t, d.Link)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, 1, cache.invalidated)

	got, err := svc.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Polka", got.Name)
}
