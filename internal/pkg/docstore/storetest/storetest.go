// Package storetest holds the behaviour every docstore.Store must share. Each
// driver package runs it from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) docstore.Store

const coll = "people"

// Run executes the whole suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s docstore.Store)
	}{
		{"InsertAndFind", testInsertAndFind},
		{"FindManySortSkipLimit", testFindManySortSkipLimit},
		{"TimestampOrder", testTimestampOrder},
		{"ContainsFoldIsLiteral", testContainsFoldIsLiteral},
		{"InFilterAndCount", testInFilterAndCount},
		{"UpdateFields", testUpdateFields},
		{"DeleteByID", testDeleteByID},
		{"DeleteMany", testDeleteMany},
		{"Upsert", testUpsert},
		{"UniqueIndex", testUniqueIndex},
		{"InvalidInput", testInvalidInput},
		{"ClosedStore", testClosedStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			tt.fn(t, s)
		})
	}
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func seed(t *testing.T, s docstore.Store, docs ...docstore.Document) []string {
	t.Helper()
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id, err := s.Insert(ctx(t), coll, d)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func testInsertAndFind(t *testing.T, s docstore.Store) {
	ids := seed(t, s, docstore.Document{"name": "Asha", "rollNumber": "R1", "year": 2.0})
	require.NotEmpty(t, ids[0])
	require.NoError(t, s.ValidateID(ids[0]))

	got, err := s.FindOne(ctx(t), coll, docstore.ByID(ids[0]))
	require.NoError(t, err)
	assert.Equal(t, ids[0], got.ID())
	assert.Equal(t, "Asha", got["name"])
	assert.EqualValues(t, 2, got["year"])

	got, err = s.FindOne(ctx(t), coll, docstore.Where(docstore.Eq("rollNumber", "R1")))
	require.NoError(t, err)
	assert.Equal(t, ids[0], got.ID())

	_, err = s.FindOne(ctx(t), coll, docstore.Where(docstore.Eq("rollNumber", "nope")))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testFindManySortSkipLimit(t *testing.T, s docstore.Store) {
	seed(t, s,
		docstore.Document{"name": "c", "rollNumber": "R3"},
		docstore.Document{"name": "a", "rollNumber": "R1"},
		docstore.Document{"name": "b", "rollNumber": "R2"},
	)

	asc := []docstore.SortField{{Field: "rollNumber"}}
	docs, err := s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{Sort: asc})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2", "R3"}, rolls(docs))

	docs, err = s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{
		Sort: []docstore.SortField{{Field: "rollNumber", Descending: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"R3", "R2", "R1"}, rolls(docs))

	docs, err = s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{Sort: asc, Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"R2"}, rolls(docs))

	docs, err = s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{Sort: asc, Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

type stamped struct {
	RollNumber string    `json:"rollNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}

func testTimestampOrder(t *testing.T, s docstore.Store) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, v := range []stamped{
		{RollNumber: "half-second", CreatedAt: base.Add(500 * time.Millisecond)},
		{RollNumber: "whole-second", CreatedAt: base},
		{RollNumber: "next-second", CreatedAt: base.Add(time.Second)},
	} {
		doc, err := docstore.Encode(v)
		require.NoError(t, err)
		seed(t, s, doc)
	}

	docs, err := s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{
		Sort: []docstore.SortField{{Field: "createdAt"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"whole-second", "half-second", "next-second"}, rolls(docs))

	got, err := docstore.DecodeAll[stamped](docs)
	require.NoError(t, err)
	assert.True(t, got[0].CreatedAt.Equal(base))
}

func testContainsFoldIsLiteral(t *testing.T, s docstore.Store) {
	seed(t, s,
		docstore.Document{"name": "Ravi Kumar", "rollNumber": "R1"},
		docstore.Document{"name": "RAVINA", "rollNumber": "R2"},
		docstore.Document{"name": "a.b", "rollNumber": "R3"},
		docstore.Document{"name": "100% sure", "rollNumber": "R4"},
	)
	sort := docstore.FindOptions{Sort: []docstore.SortField{{Field: "rollNumber"}}}

	docs, err := s.FindMany(ctx(t), coll, docstore.Where(docstore.ContainsFold("name", "ravi")), sort)
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2"}, rolls(docs))

	docs, err = s.FindMany(ctx(t), coll, docstore.Where(docstore.ContainsFold("name", ".*")), sort)
	require.NoError(t, err)
	assert.Empty(t, docs, "pattern characters must be matched literally")

	docs, err = s.FindMany(ctx(t), coll, docstore.Where(docstore.ContainsFold("name", "0%")), sort)
	require.NoError(t, err)
	assert.Equal(t, []string{"R4"}, rolls(docs))

	docs, err = s.FindMany(ctx(t), coll, docstore.Where(docstore.ContainsFold("name", "")), sort)
	require.NoError(t, err)
	assert.Len(t, docs, 4)
}

func testInFilterAndCount(t *testing.T, s docstore.Store) {
	seed(t, s,
		docstore.Document{"rollNumber": "R1"},
		docstore.Document{"rollNumber": "R2"},
		docstore.Document{"rollNumber": "R3"},
	)

	docs, err := s.FindMany(ctx(t), coll, docstore.Where(docstore.In("rollNumber", []string{"R1", "R3", "R9"})),
		docstore.FindOptions{Sort: []docstore.SortField{{Field: "rollNumber"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R3"}, rolls(docs))

	n, err := s.Count(ctx(t), coll, docstore.All())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = s.Count(ctx(t), "empty_collection", docstore.All())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testUpdateFields(t *testing.T, s docstore.Store) {
	ids := seed(t, s, docstore.Document{"name": "Old", "phone": "111", "rollNumber": "R1"})

	require.NoError(t, s.UpdateFields(ctx(t), coll, ids[0], docstore.Document{"name": "New"}))

	got, err := s.FindOne(ctx(t), coll, docstore.ByID(ids[0]))
	require.NoError(t, err)
	assert.Equal(t, "New", got["name"])
	assert.Equal(t, "111", got["phone"], "fields not in the update are kept")

	missing := anotherID(t, s, ids[0])
	err = s.UpdateFields(ctx(t), coll, missing, docstore.Document{"name": "x"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func testDeleteByID(t *testing.T, s docstore.Store) {
	ids := seed(t, s, docstore.Document{"rollNumber": "R1"}, docstore.Document{"rollNumber": "R2"})

	require.NoError(t, s.DeleteByID(ctx(t), coll, ids[0]))
	assert.ErrorIs(t, s.DeleteByID(ctx(t), coll, ids[0]), docstore.ErrNotFound)

	n, err := s.Count(ctx(t), coll, docstore.All())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testDeleteMany(t *testing.T, s docstore.Store) {
	seed(t, s,
		docstore.Document{"rollNumber": "R1", "tag": "x"},
		docstore.Document{"rollNumber": "R2", "tag": "x"},
		docstore.Document{"rollNumber": "R3", "tag": "y"},
	)

	n, err := s.DeleteMany(ctx(t), coll, docstore.Where(docstore.Eq("tag", "x")))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.DeleteMany(ctx(t), coll, docstore.Where(docstore.Eq("tag", "x")))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testUpsert(t *testing.T, s docstore.Store) {
	filter := docstore.Where(docstore.Eq("rollNumber", "R1"))

	id, created, err := s.Upsert(ctx(t), coll, filter, docstore.Document{"rollNumber": "R1", "avg": 7.5})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.Upsert(ctx(t), coll, filter, docstore.Document{"rollNumber": "R1", "avg": 8.25})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, again)

	n, err := s.Count(ctx(t), coll, filter)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.FindOne(ctx(t), coll, filter)
	require.NoError(t, err)
	assert.InDelta(t, 8.25, got["avg"], 1e-9)
}

func testUniqueIndex(t *testing.T, s docstore.Store) {
	require.NoError(t, s.EnsureUniqueIndex(ctx(t), coll, "rollNumber"))
	require.NoError(t, s.EnsureUniqueIndex(ctx(t), coll, "rollNumber"), "idempotent")

	ids := seed(t, s, docstore.Document{"rollNumber": "R1"}, docstore.Document{"rollNumber": "R2"})

	_, err := s.Insert(ctx(t), coll, docstore.Document{"rollNumber": "R1"})
	assert.ErrorIs(t, err, docstore.ErrDuplicateKey)

	err = s.UpdateFields(ctx(t), coll, ids[1], docstore.Document{"rollNumber": "R1"})
	assert.ErrorIs(t, err, docstore.ErrDuplicateKey)

	require.NoError(t, s.UpdateFields(ctx(t), coll, ids[0], docstore.Document{"rollNumber": "R1", "name": "same"}))
}

func testInvalidInput(t *testing.T, s docstore.Store) {
	assert.ErrorIs(t, s.ValidateID("not-an-id"), docstore.ErrInvalidID)
	assert.ErrorIs(t, s.DeleteByID(ctx(t), coll, "not-an-id"), docstore.ErrInvalidID)
	assert.ErrorIs(t, s.UpdateFields(ctx(t), coll, "not-an-id", docstore.Document{"a": 1.0}), docstore.ErrInvalidID)

	_, err := s.FindMany(ctx(t), coll, docstore.Where(docstore.Eq("bad field", "x")), docstore.FindOptions{})
	assert.ErrorIs(t, err, docstore.ErrInvalidFilter)

	_, err = s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{Sort: []docstore.SortField{{Field: "$where"}}})
	assert.ErrorIs(t, err, docstore.ErrInvalidFilter)

	_, err = s.Count(ctx(t), "bad;name", docstore.All())
	assert.ErrorIs(t, err, docstore.ErrInvalidFilter)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Count(cancelled, coll, docstore.All())
	assert.ErrorIs(t, err, context.Canceled)
}

func testClosedStore(t *testing.T, s docstore.Store) {
	require.NoError(t, s.Ping(ctx(t)))
	require.NoError(t, s.Close(ctx(t)))
	require.NoError(t, s.Close(ctx(t)), "closing twice is harmless")

	_, err := s.Insert(ctx(t), coll, docstore.Document{"rollNumber": "R1"})
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
	_, err = s.FindMany(ctx(t), coll, docstore.All(), docstore.FindOptions{})
	assert.ErrorIs(t, err, docstore.ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx(t)), docstore.ErrUnavailable)
}

func rolls(docs []docstore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		r, _ := d["rollNumber"].(string)
		out = append(out, r)
	}
	return out
}

// anotherID returns a well-formed id different from id, by inserting and
// deleting a throwaway document.
func anotherID(t *testing.T, s docstore.Store, id string) string {
	t.Helper()
	other, err := s.Insert(ctx(t), "scratch", docstore.Document{"x": 1.0})
	require.NoError(t, err)
	require.NoError(t, s.DeleteByID(ctx(t), "scratch", other))
	require.NotEqual(t, id, other)
	return other
}
