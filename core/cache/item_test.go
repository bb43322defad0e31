package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/typedcache/core/typed"
)

func TestNewItem(t *testing.T) {
	it := NewItem(testKey{ID: 1}, time.Minute, testValue{N: 2})

	require.Equal(t, time.Minute, it.LifeSpan())
	require.Equal(t, it.CreatedOn(), it.AccessedOn())
	require.Zero(t, it.AccessCount())

	key, ok := typed.DowncastKey[testKey](it.Key())
	require.True(t, ok)
	require.Equal(t, testKey{ID: 1}, key)

	val, ok := typed.Downcast[testValue](it.Value())
	require.True(t, ok)
	require.Equal(t, testValue{N: 2}, val)

	_, ok = typed.Downcast[string](it.Value())
	require.False(t, ok)
}

func TestItem_KeepAlive(t *testing.T) {
	mock := clock.NewMock()
	it := newItem(mock, k(1), time.Second, v(1))
	created := it.CreatedOn()

	mock.Add(300 * time.Millisecond)
	it.KeepAlive()

	require.Equal(t, created, it.CreatedOn())
	require.Equal(t, created.Add(300*time.Millisecond), it.AccessedOn())
	require.Equal(t, uint64(1), it.AccessCount())

	mock.Add(time.Millisecond)
	it.KeepAlive()
	require.Equal(t, created.Add(301*time.Millisecond), it.AccessedOn())
	require.Equal(t, uint64(2), it.AccessCount())
}

func TestItem_KeepAlive_Concurrent(t *testing.T) {
	it := NewItem("key", time.Minute, 1)

	const goroutines = 50
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				it.KeepAlive()
				_ = it.AccessedOn()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(goroutines*iterations), it.AccessCount())
	require.False(t, it.AccessedOn().Before(it.CreatedOn()))
}

func TestItem_AboutToExpireCallbacks(t *testing.T) {
	it := NewItem(1, 0, "one")
	var calls []string
	record := func(name string) func(typed.Key) {
		return func(typed.Key) { calls = append(calls, name) }
	}

	it.SetAboutToExpireCallback(record("a"))
	it.AddAboutToExpireCallback(record("b"))
	for _, cb := range it.expireCallbacks() {
		cb(it.Key())
	}
	require.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	it.SetAboutToExpireCallback(record("c"))
	for _, cb := range it.expireCallbacks() {
		cb(it.Key())
	}
	require.Equal(t, []string{"c"}, calls)

	it.RemoveAboutToExpireCallbacks()
	require.Empty(t, it.expireCallbacks())
}

func TestItem_SnapshotIgnoresLaterRegistration(t *testing.T) {
	it := NewItem(1, 0, "one")
	it.SetAboutToExpireCallback(func(typed.Key) {})

	snapshot := it.expireCallbacks()
	it.AddAboutToExpireCallback(func(typed.Key) {})

	require.Len(t, snapshot, 1)
	require.Len(t, it.expireCallbacks(), 2)
}
