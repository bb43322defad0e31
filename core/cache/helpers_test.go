package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/typedcache/core/metrics"
	"github.com/codewandler/typedcache/core/typed"
)

type testKey struct {
	ID int
}

type testValue struct {
	N int
}

func k(id int) typed.Key { return typed.KeyOf(testKey{ID: id}) }

func v(n int) typed.Value { return typed.ValueOf(testValue{N: n}) }

func newTestTable(t *testing.T) (*Table, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	tbl := New(Options{Name: t.Name(), Clock: mock})
	t.Cleanup(tbl.Close)
	return tbl, mock
}

// waitArmed waits until the scheduler armed itself for d.
func waitArmed(t *testing.T, tbl *Table, d time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		return tbl.ScheduledWake() == d
	}, time.Second, time.Millisecond, "scheduled wake never became %s, is %s", d, tbl.ScheduledWake())
	// let the scheduler create its timer before the mock clock moves
	time.Sleep(5 * time.Millisecond)
}

// recordingMetrics counts CacheMetrics events per name.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	items  int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: map[string]int{}}
}

func (m *recordingMetrics) inc(name string) {
	m.mu.Lock()
	m.counts[name]++
	m.mu.Unlock()
}

func (m *recordingMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *recordingMetrics) Hit(string)  { m.inc("hit") }
func (m *recordingMetrics) Miss(string) { m.inc("miss") }
func (m *recordingMetrics) LoadDuration(string) metrics.Timer {
	return metrics.TimerFunc(func() { m.inc("load_duration") })
}
func (m *recordingMetrics) Loaded(_ string, success bool) {
	if success {
		m.inc("loaded")
	} else {
		m.inc("load_declined")
	}
}
func (m *recordingMetrics) ItemAdded(string) { m.inc("added") }
func (m *recordingMetrics) ItemRemoved(_ string, reason RemoveReason) {
	m.inc("removed_" + string(reason))
}
func (m *recordingMetrics) Items(_ string, count int) {
	m.mu.Lock()
	m.items = count
	m.mu.Unlock()
}
func (m *recordingMetrics) Flushed(string) { m.inc("flushed") }
func (m *recordingMetrics) SweepDuration(string) metrics.Timer {
	return metrics.TimerFunc(func() { m.inc("sweep") })
}
func (m *recordingMetrics) CallbackPanic(string) { m.inc("panic") }

var _ CacheMetrics = (*recordingMetrics)(nil)
