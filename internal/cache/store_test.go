package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStoreFreshness(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	backend := NewMemoryCache(0)
	defer backend.Close()

	s := NewStore[payload](backend, "test", "ra_profile_", 5*time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	if _, ok := s.Get(ctx, "Reiivan"); ok {
		t.Fatal("hit on empty store")
	}

	if err := s.Set(ctx, "Reiivan", payload{Name: "Reiivan", Count: 3}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	clock.Advance(5*time.Minute - time.Millisecond)
	got, ok := s.Get(ctx, "Reiivan")
	if !ok || got.Count != 3 {
		t.Fatalf("Get() just before TTL = %+v, %v", got, ok)
	}

	clock.Advance(time.Millisecond)
	if _, ok := s.Get(ctx, "Reiivan"); ok {
		t.Fatal("entry still served at exactly TTL")
	}
}

func TestStoreNamespacingAndEnvelope(t *testing.T) {
	backend := NewMemoryCache(0)
	defer backend.Close()
	ctx := context.Background()

	s := NewStore[payload](backend, "test", "ra_profile_", time.Minute)
	_ = s.Set(ctx, "Reiivan", payload{Name: "a"})

	raw, err := backend.Get(ctx, "ra_profile_Reiivan")
	if err != nil {
		t.Fatalf("backend key not namespaced: %v", err)
	}

	var entry struct {
		Timestamp int64           `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("stored value is not an envelope: %v", err)
	}
	if entry.Timestamp == 0 || len(entry.Data) == 0 {
		t.Fatalf("envelope = %s", raw)
	}

	if _, ok := s.Get(ctx, "reiivan"); ok {
		t.Fatal("lookup is not case sensitive")
	}
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	backend := NewMemoryCache(0)
	defer backend.Close()
	ctx := context.Background()

	_ = backend.Set(ctx, "p_x", []byte("not json"), time.Minute)
	s := NewStore[payload](backend, "test", "p_", time.Minute)
	if _, ok := s.Get(ctx, "x"); ok {
		t.Fatal("corrupt entry returned as hit")
	}
}

func TestStoreGetOrLoad(t *testing.T) {
	backend := NewMemoryCache(0)
	defer backend.Close()
	ctx := context.Background()
	s := NewStore[payload](backend, "test", "", time.Minute)

	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Count: calls}, nil
	}

	first, err := s.GetOrLoad(ctx, "k", load)
	if err != nil || first.Count != 1 {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, _ := s.GetOrLoad(ctx, "k", load)
	if second.Count != 1 || calls != 1 {
		t.Fatalf("second load ran: calls = %d", calls)
	}
}

func TestStoreGetOrLoadDoesNotCacheErrors(t *testing.T) {
	backend := NewMemoryCache(0)
	defer backend.Close()
	ctx := context.Background()
	s := NewStore[payload](backend, "test", "", time.Minute)

	boom := errBoom{}
	if _, err := s.GetOrLoad(ctx, "k", func(context.Context) (payload, error) { return payload{}, boom }); err != boom {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatal("failed load was cached")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
