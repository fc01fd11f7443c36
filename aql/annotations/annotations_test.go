package annotations

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(nil)
	assert.False(t, c.Enabled())
	c.Add(Event{Name: QueryInvoked})
	c.AddTiming(QueryComplete, time.Now(), nil)
	assert.Empty(t, c.Events())

	var nilCollector *Collector
	assert.False(t, nilCollector.Enabled())
}

func TestCollectorStampsQueryID(t *testing.T) {
	var seen []Event
	c := NewCollector(func(e Event) { seen = append(seen, e) })
	c.SetQueryID("q-1")

	c.Add(Event{Name: QueryInvoked, Start: time.Now()})
	c.AddTiming(QueryComplete, time.Now().Add(-time.Millisecond), map[string]interface{}{"rows.count": 3})

	events := c.Events()
	require.Len(t, events, 2)
	assert.Equal(t, events, seen)
	for _, e := range events {
		assert.Equal(t, "q-1", e.QueryID)
	}
	assert.Equal(t, events[0].Start, events[0].End)
	assert.True(t, events[1].Latency >= time.Millisecond)

	assert.Len(t, c.Named(QueryComplete), 1)
	assert.Empty(t, c.Named(IndexProbe))

	c.Reset()
	assert.Empty(t, c.Events())
}

func TestFormat(t *testing.T) {
	f := NewOutputFormatter(&bytes.Buffer{})
	f.SetColor(false)

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name: "invoked",
			event: Event{Name: QueryInvoked, QueryID: "0123456789abcdef",
				Data: map[string]interface{}{"query": "FOR v IN hash\n   RETURN v"}},
			want: "[0µs] Query 01234567: FOR v IN hash RETURN v",
		},
		{
			name: "completed",
			event: Event{Name: QueryComplete, QueryID: "abc",
				Data: map[string]interface{}{"success": true, "rows.count": 12345}},
			want: "[0µs] === Query abc done with 12,345 rows",
		},
		{
			name: "failed",
			event: Event{Name: QueryComplete,
				Data: map[string]interface{}{"success": false, "error": errors.New("boom")}},
			want: "[0µs] ✗ Query - failed: boom",
		},
		{
			name: "probe",
			event: Event{Name: IndexProbe, Latency: 1500 * time.Microsecond,
				Data: map[string]interface{}{"collection": "hash", "index": "hash(a, b)",
					"probes": 25, "documents": 25, "matched": 25}},
			want: "[1.5ms] Probe(hash, hash(a, b)) 25 probes → 25 documents, 25 matched",
		},
		{
			name: "selected",
			event: Event{Name: IndexSelected,
				Data: map[string]interface{}{"variable": "v", "collection": "hash", "index": "hash(c)"}},
			want: "[0µs] FOR v IN hash uses hash(c)",
		},
		{
			name: "residual",
			event: Event{Name: FilterResidual,
				Data: map[string]interface{}{"filter": "v.b > 2", "evaluated": 5, "passed": 3}},
			want: "[0µs] Filter(v.b > 2) 3/5 passed",
		},
		{
			name:  "unknown",
			event: Event{Name: "something/else"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.event))
		})
	}
}

func TestPlanFormatIndented(t *testing.T) {
	f := NewOutputFormatter(&bytes.Buffer{})
	f.SetColor(false)
	out := f.Format(Event{Name: QueryPlanCreated, Data: map[string]interface{}{
		"plan":   "FOR v IN hash SCAN\nRETURN v",
		"cached": true,
	}})
	assert.Equal(t, "[0µs] Plan (cached):\n  FOR v IN hash SCAN\n  RETURN v", out)
}

func TestWriterHandler(t *testing.T) {
	var buf bytes.Buffer
	h := WriterHandler(&buf)
	h(Event{Name: CollectionScan, Data: map[string]interface{}{
		"collection": "hash", "scans": 1, "documents": 25, "matched": 5,
	}})
	h(Event{Name: "ignored"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "[0µs] Scan(hash) 1 scans → 25 documents, 5 matched", lines[0])
}

func TestTruncateQuery(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncateQuery(long)
	assert.Len(t, got, 80)
	assert.True(t, strings.HasSuffix(got, "..."))
}
