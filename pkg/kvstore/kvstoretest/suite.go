// Package kvstoretest holds the behaviour every kvstore backend must share.
package kvstoretest

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/haierkeys/post-revisions-service/pkg/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the conformance suite; factory must return an empty store
func Run(t *testing.T, factory func(t *testing.T) kvstore.Store) {
	t.Run("FieldMap", func(t *testing.T) { testFieldMap(t, factory(t)) })
	t.Run("FieldMapAndDeleteKeys", func(t *testing.T) { testFieldMapAndDeleteKeys(t, factory(t)) })
	t.Run("UpdateFields", func(t *testing.T) { testUpdateFields(t, factory(t)) })
	t.Run("TimeOrdered", func(t *testing.T) { testTimeOrdered(t, factory(t)) })
	t.Run("Sets", func(t *testing.T) { testSets(t, factory(t)) })
	t.Run("ScanKeys", func(t *testing.T) { testScanKeys(t, factory(t)) })
	t.Run("ConcurrentFieldWrites", func(t *testing.T) { testConcurrentFieldWrites(t, factory(t)) })
}

func testFieldMap(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	m, err := s.GetFieldMap(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, s.SetFieldMap(ctx, "h", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, s.SetFieldMap(ctx, "h", map[string]string{"b": "3"}))

	m, err = s.GetFieldMap(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, m)

	n, err := s.CountFields(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.DeleteField(ctx, "h", "a"))
	require.NoError(t, s.DeleteField(ctx, "h", "nope"))
	m, err = s.GetFieldMap(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "3"}, m)

	require.NoError(t, s.SetFieldMap(ctx, "h2", map[string]string{"x": "y"}))
	maps, err := s.GetFieldMaps(ctx, []string{"h2", "missing", "h"})
	require.NoError(t, err)
	require.Len(t, maps, 3)
	assert.Equal(t, map[string]string{"x": "y"}, maps[0])
	assert.Empty(t, maps[1])
	assert.Equal(t, map[string]string{"b": "3"}, maps[2])

	require.NoError(t, s.DeleteKeys(ctx, "h", "h2", "missing"))
	n, err = s.CountFields(ctx, "h")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testFieldMapAndDeleteKeys(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddTimeOrdered(ctx, "legacy", 100, "a"))
	require.NoError(t, s.AddTimeOrdered(ctx, "legacy", 200, "b"))

	require.NoError(t, s.SetFieldMapAndDeleteKeys(ctx, "current",
		map[string]string{"100": "A", "200": "B"}, "legacy"))

	m, err := s.GetFieldMap(ctx, "current")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"100": "A", "200": "B"}, m)

	zs, err := s.GetTimeOrderedRange(ctx, "legacy", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, zs)
}

func testUpdateFields(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	require.NoError(t, s.SetFieldMap(ctx, "h", map[string]string{"100": "a", "200": "b", "head": "x"}))
	require.NoError(t, s.UpdateFields(ctx, "h", map[string]string{"200": "B", "300": "c"}, "100", "head", "absent"))

	m, err := s.GetFieldMap(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"200": "B", "300": "c"}, m)

	require.NoError(t, s.UpdateFields(ctx, "h", nil, "200", "300"))
	n, err := s.CountFields(ctx, "h")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testTimeOrdered(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	zs, err := s.GetTimeOrderedRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, zs)

	require.NoError(t, s.AddTimeOrdered(ctx, "z", 300, "c"))
	require.NoError(t, s.AddTimeOrdered(ctx, "z", 100, "a"))
	require.NoError(t, s.AddTimeOrdered(ctx, "z", 200, "b"))
	require.NoError(t, s.AddTimeOrdered(ctx, "z", -5, "neg"))

	zs, err = s.GetTimeOrderedRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []kvstore.ScoredMember{
		{Score: -5, Member: "neg"},
		{Score: 100, Member: "a"},
		{Score: 200, Member: "b"},
		{Score: 300, Member: "c"},
	}, zs)

	zs, err = s.GetTimeOrderedRange(ctx, "z", -1, -1)
	require.NoError(t, err)
	assert.Equal(t, []kvstore.ScoredMember{{Score: 300, Member: "c"}}, zs)

	zs, err = s.GetTimeOrderedRange(ctx, "z", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []kvstore.ScoredMember{{Score: 100, Member: "a"}, {Score: 200, Member: "b"}}, zs)

	// re-scoring keeps one copy of the member
	require.NoError(t, s.AddTimeOrdered(ctx, "z", 400, "a"))
	zs, err = s.GetTimeOrderedRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	require.Len(t, zs, 4)
	assert.Equal(t, kvstore.ScoredMember{Score: 400, Member: "a"}, zs[3])

	require.NoError(t, s.DeleteKeys(ctx, "z"))
	zs, err = s.GetTimeOrderedRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, zs)
}

func testSets(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	ok, err := s.IsSetMember(ctx, "s", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddSetMembers(ctx, "s", "1", "2"))
	require.NoError(t, s.AddSetMembers(ctx, "s", "2"))

	ok, err = s.IsSetMember(ctx, "s", "2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsSetMember(ctx, "s", "3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testScanKeys(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	require.NoError(t, s.AddTimeOrdered(ctx, "pid:1:revisions", 1, "a"))
	require.NoError(t, s.AddTimeOrdered(ctx, "pid:22:revisions", 1, "a"))
	require.NoError(t, s.SetFieldMap(ctx, "pid:1:revisionHistory", map[string]string{"1": "x"}))
	require.NoError(t, s.SetFieldMap(ctx, "post:1", map[string]string{"pid": "1"}))

	var got []string
	require.NoError(t, s.ScanKeys(ctx, "pid:*:revisions", func(key string) error {
		got = append(got, key)
		return nil
	}))
	sort.Strings(got)
	got = dedupe(got)
	assert.Equal(t, []string{"pid:1:revisions", "pid:22:revisions"}, got)
}

func testConcurrentFieldWrites(t *testing.T, s kvstore.Store) {
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			field := string(rune('a' + i))
			assert.NoError(t, s.SetFieldMap(ctx, "c", map[string]string{field: field}))
		}(i)
	}
	wg.Wait()

	n, err := s.CountFields(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)
}

// SCAN may yield a key more than once
func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, k := range sorted {
		if i == 0 || sorted[i-1] != k {
			out = append(out, k)
		}
	}
	return out
}
