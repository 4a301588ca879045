package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records Add calls and serves a fixed ID set
type fakeStore struct {
	existing    map[string]struct{}
	existingErr error
	addErr      error
	added       [][]Entry
}

func (f *fakeStore) Add(_ context.Context, entries []Entry) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, entries)
	return nil
}

func (f *fakeStore) ExistingIDs(context.Context) (map[string]struct{}, error) {
	return f.existing, f.existingErr
}

func (f *fakeStore) Search(context.Context, string, int) ([]SearchResult, error) {
	return nil, nil
}

func entriesWithIDs(ids ...string) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Content: "content " + id}
	}
	return out
}

func TestAddNewSkipsExistingIDs(t *testing.T) {
	store := &fakeStore{existing: map[string]struct{}{"1": {}, "2": {}}}

	added, err := AddNew(context.Background(), store, entriesWithIDs("1", "2", "3", "4"))

	require.NoError(t, err)
	assert.Equal(t, 2, added)
	require.Len(t, store.added, 1)
	require.Len(t, store.added[0], 2)
	assert.Equal(t, "3", store.added[0][0].ID)
	assert.Equal(t, "4", store.added[0][1].ID)
}

func TestAddNewAllDuplicates(t *testing.T) {
	store := &fakeStore{existing: map[string]struct{}{"1": {}, "2": {}}}

	added, err := AddNew(context.Background(), store, entriesWithIDs("1", "2"))

	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Empty(t, store.added)
}

func TestAddNewDegradesWhenListingFails(t *testing.T) {
	store := &fakeStore{existingErr: errors.New("index unavailable")}

	added, err := AddNew(context.Background(), store, entriesWithIDs("1", "2"))

	require.NoError(t, err)
	assert.Equal(t, 2, added)
	require.Len(t, store.added, 1)
	assert.Len(t, store.added[0], 2)
}

func TestAddNewPropagatesAddFailure(t *testing.T) {
	store := &fakeStore{addErr: errors.New("connection reset")}

	_, err := AddNew(context.Background(), store, entriesWithIDs("1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add vector entries")
}

func TestAddNewEmptyCandidates(t *testing.T) {
	store := &fakeStore{}

	added, err := AddNew(context.Background(), store, nil)

	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Empty(t, store.added)
}
