package hashtable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S2 from spec.md §8: hash_fn(k) = k % 3 forces (3,"a"), (6,"b"), (9,"c")
// into the same bucket; find/del/foreach must still behave correctly
// under the collision, and disabling auto-rehash keeps a later add from
// triggering a resize.
func TestScenarioS2HashCollision(t *testing.T) {
	mod3 := func(k int) uint64 { return uint64(k % 3) }
	tbl := New[int, string](mod3, WithAutoRehash[int, string](false))

	require.NoError(t, tbl.Add(3, "a"))
	require.NoError(t, tbl.Add(6, "b"))
	require.NoError(t, tbl.Add(9, "c"))
	require.Equal(t, 3, tbl.EntryCount())

	_, v, ok := tbl.Find(6)
	require.True(t, ok)
	require.Equal(t, "b", v)

	require.NoError(t, tbl.Del(6))
	_, _, ok = tbl.Find(6)
	require.False(t, ok)

	seen := map[int]string{}
	tbl.Foreach(func(k int, v string) { seen[k] = v })
	require.Equal(t, map[int]string{3: "a", 9: "c"}, seen)

	bucketsBefore := tbl.BucketCount()
	require.NoError(t, tbl.Add(12, "d"))
	require.Equal(t, bucketsBefore, tbl.BucketCount(), "auto-rehash disabled: bucket count must not change")
}

// Round-trip law from spec.md §8: add(k, v) then del(k) restores
// entryCount, and a subsequent find fails.
func TestAddDelRoundTrip(t *testing.T) {
	tbl := New[string, int](func(s string) uint64 {
		var h uint64
		for i := 0; i < len(s); i++ {
			h = h*31 + uint64(s[i])
		}
		return h
	})

	before := tbl.EntryCount()
	require.NoError(t, tbl.Add("x", 1))
	require.NoError(t, tbl.Del("x"))
	require.Equal(t, before, tbl.EntryCount())

	_, _, ok := tbl.Find("x")
	require.False(t, ok)
}

// Invariant: duplicate keys are permitted and Find returns the
// earliest-inserted match; Del removes only the first match.
func TestDuplicateKeysInsertionOrder(t *testing.T) {
	tbl := New[int, string](func(k int) uint64 { return uint64(k) })

	require.NoError(t, tbl.Add(1, "first"))
	require.NoError(t, tbl.Add(1, "second"))
	require.Equal(t, 2, tbl.EntryCount())

	_, v, ok := tbl.Find(1)
	require.True(t, ok)
	require.Equal(t, "first", v)

	require.NoError(t, tbl.Del(1))
	_, v, ok = tbl.Find(1)
	require.True(t, ok)
	require.Equal(t, "second", v)
}

// Invariant: Foreach must tolerate the callback deleting the entry it is
// currently visiting without skipping or revisiting other entries.
func TestForeachSafeDuringDelete(t *testing.T) {
	tbl := New[int, int](func(k int) uint64 { return uint64(k) })
	for i := 0; i < 5; i++ {
		require.NoError(t, tbl.Add(i, i*10))
	}

	visited := 0
	tbl.Foreach(func(k, v int) {
		visited++
		_ = tbl.Del(k)
	})
	require.Equal(t, 5, visited)
	require.Equal(t, 0, tbl.EntryCount())
}

func TestFindForeachNoMatchInvokesOnce(t *testing.T) {
	tbl := New[int, string](func(k int) uint64 { return uint64(k) })
	calls := 0
	var gotOK bool
	tbl.FindForeach(42, func(k int, v string, ok bool) {
		calls++
		gotOK = ok
	})
	require.Equal(t, 1, calls)
	require.False(t, gotOK)
}

func TestSetReplacesAndInvokesDestructor(t *testing.T) {
	var destroyed []string
	tbl := New[string, string](func(s string) uint64 { return uint64(len(s)) },
		WithDestructor[string, string](func(k, v string) { destroyed = append(destroyed, v) }))

	require.NoError(t, tbl.Add("a", "one"))
	require.NoError(t, tbl.Set("a", "two"))
	require.Equal(t, 1, tbl.EntryCount())
	require.Equal(t, []string{"one"}, destroyed)

	_, v, ok := tbl.Find("a")
	require.True(t, ok)
	require.Equal(t, "two", v)
}

func TestListIterationVisitsAllEntries(t *testing.T) {
	tbl := New[int, int](func(k int) uint64 { return uint64(k) })
	for i := 0; i < 20; i++ {
		require.NoError(t, tbl.Add(i, i))
	}

	it := tbl.ListBegin()
	seen := map[int]bool{}
	for {
		k, _, ok := it.ListNext()
		if !ok {
			break
		}
		seen[k] = true
	}
	it.ListEnd()
	require.Len(t, seen, 20)
}

func TestAutoRehashGrowsBucketCount(t *testing.T) {
	tbl := New[int, int](func(k int) uint64 { return uint64(k) })
	initial := tbl.BucketCount()
	for i := 0; i < 200; i++ {
		require.NoError(t, tbl.Add(i, i))
	}
	require.Greater(t, tbl.BucketCount(), initial)
	require.Equal(t, 200, tbl.EntryCount())

	// Every key must remain findable after rehashing.
	for i := 0; i < 200; i++ {
		_, v, ok := tbl.Find(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestArenaBackedTableReusesEntries(t *testing.T) {
	arena := NewArena[int, string]()
	tbl := New[int, string](func(k int) uint64 { return uint64(k) }, WithArena[int, string](arena))

	require.NoError(t, tbl.Add(1, "a"))
	require.NoError(t, tbl.Del(1))
	require.NoError(t, tbl.Add(2, "b"))

	_, v, ok := tbl.Find(2)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestFreeInvokesDestructorForEveryEntry(t *testing.T) {
	var destroyed []int
	tbl := New[int, int](func(k int) uint64 { return uint64(k) },
		WithDestructor[int, int](func(k, v int) { destroyed = append(destroyed, k) }))
	for i := 0; i < 5; i++ {
		require.NoError(t, tbl.Add(i, i))
	}

	tbl.Free()
	require.Equal(t, 0, tbl.EntryCount())
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4}, destroyed)
}
