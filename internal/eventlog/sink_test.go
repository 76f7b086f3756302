package eventlog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Hara602/pageSentry/internal/model"
	"github.com/Hara602/pageSentry/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTagger string

func (f fixedTagger) GetOrCreate(context.Context) string { return string(f) }

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestSink(store storage.Store) *Sink {
	clock := &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	env := NewEnvironment("Mozilla/5.0 (X11; Linux x86_64)", "https://haven.community/")
	return NewSink(store, fixedTagger("session_1_abc"), env, Options{Clock: clock.Now})
}

func TestRecord_StampsEvent(t *testing.T) {
	ctx := context.Background()
	sink := newTestSink(storage.NewMemory(0))

	sink.Record(ctx, model.EventInvalidLink, model.SeverityWarning, model.Details{"href": "https://evil.example.com"})

	logs := sink.Events(ctx)
	require.Len(t, logs, 1)
	ev := logs[0]
	assert.Equal(t, model.EventInvalidLink, ev.EventType)
	assert.Equal(t, model.SeverityWarning, ev.Severity)
	assert.Equal(t, "https://evil.example.com", ev.Details["href"])
	assert.Equal(t, "session_1_abc", ev.SessionID)
	assert.Equal(t, "Mozilla/5.0 (X11; Linux x86_64)", ev.UserAgent)
	assert.Equal(t, "https://haven.community/", ev.URL)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestRecord_KeepsMostRecentFifty(t *testing.T) {
	ctx := context.Background()
	sink := newTestSink(storage.NewMemory(0))

	for i := 0; i < 75; i++ {
		sink.Record(ctx, model.EventDOMTampering, model.SeverityError, model.Details{"seq": i})
	}

	logs := sink.Events(ctx)
	require.Len(t, logs, DefaultMaxEvents)
	for i, ev := range logs {
		assert.Equal(t, float64(i+25), ev.Details["seq"])
		if i > 0 {
			assert.False(t, ev.Timestamp.Before(logs[i-1].Timestamp))
		}
	}
}

func TestRecord_ConcurrentWritersRespectCap(t *testing.T) {
	ctx := context.Background()
	sink := newTestSink(storage.NewMemory(0))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				sink.Record(ctx, model.EventCSPViolation, model.SeverityError, model.Details{"writer": w})
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, sink.Events(ctx), DefaultMaxEvents)
}

func TestRecord_QuotaExceededIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(600)
	sink := newTestSink(store)

	sink.Record(ctx, model.EventContentDrop, model.SeverityWarning, nil)
	before := sink.Events(ctx)
	require.Len(t, before, 1)

	assert.NotPanics(t, func() {
		sink.Record(ctx, model.EventMaliciousPaste, model.SeverityWarning, model.Details{"content": fmt.Sprintf("%0500d", 1)})
	})
	assert.Equal(t, before, sink.Events(ctx))
}

func TestRecord_MalformedLogTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(0)
	require.NoError(t, store.Set(ctx, Key, "{not json"))
	sink := newTestSink(store)

	assert.Empty(t, sink.Events(ctx))

	sink.Record(ctx, model.EventSuspiciousHash, model.SeverityWarning, model.Details{"hash": "#<script>"})
	assert.Len(t, sink.Events(ctx), 1)
}

func TestRecord_ClockSkewKeepsOrder(t *testing.T) {
	ctx := context.Background()
	times := []time.Time{
		time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC),
		time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC),
	}
	i := 0
	sink := NewSink(storage.NewMemory(0), fixedTagger("s"), nil, Options{Clock: func() time.Time {
		ts := times[i]
		i++
		return ts
	}})

	sink.Record(ctx, model.EventCSPViolation, model.SeverityError, nil)
	sink.Record(ctx, model.EventCSPViolation, model.SeverityError, nil)

	logs := sink.Events(ctx)
	require.Len(t, logs, 2)
	assert.Equal(t, logs[0].Timestamp, logs[1].Timestamp)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	sink := newTestSink(storage.NewMemory(0))
	sink.Record(ctx, model.EventCSPViolation, model.SeverityError, nil)

	require.NoError(t, sink.Clear(ctx))
	assert.Empty(t, sink.Events(ctx))
}

func TestEnvironment_SetURL(t *testing.T) {
	env := NewEnvironment("ua", "https://haven.community/")
	env.SetURL("https://haven.community/#about")

	ua, url := env.Snapshot()
	assert.Equal(t, "ua", ua)
	assert.Equal(t, "https://haven.community/#about", url)
}

func TestRecord_MaxEventsNeverAboveFifty(t *testing.T) {
	ctx := context.Background()
	sink := NewSink(storage.NewMemory(0), fixedTagger("s"), nil, Options{MaxEvents: 100})

	for i := 0; i < 80; i++ {
		sink.Record(ctx, model.EventCSPViolation, model.SeverityError, model.Details{"seq": i})
	}
	logs := sink.Events(ctx)
	require.Len(t, logs, DefaultMaxEvents)
	assert.Equal(t, float64(30), logs[0].Details["seq"])
}
