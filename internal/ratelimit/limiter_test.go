package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"retroprofile-api/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newLimiter(max int) (*Limiter, *clock) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	l := New(Config{Name: "test", Window: time.Minute, Max: max}).WithClock(c.Now)
	return l, c
}

func TestAllowUpToMax(t *testing.T) {
	l, c := newLimiter(5)

	for i := 0; i < 5; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected", i+1)
		}
		c.Advance(time.Second)
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("6th request admitted")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatal("other client affected")
	}
}

func TestRejectionsAreNotRecorded(t *testing.T) {
	l, c := newLimiter(5)

	for i := 0; i < 5; i++ {
		l.Allow("ip")
	}
	// Hammering while limited must not extend the block.
	for i := 0; i < 20; i++ {
		c.Advance(time.Second)
		if l.Allow("ip") {
			t.Fatalf("admitted at +%ds", i+1)
		}
	}
	c.Advance(40 * time.Second)
	if !l.Allow("ip") {
		t.Fatal("still rejected once the first attempts left the window")
	}
}

func TestWindowSlides(t *testing.T) {
	l, c := newLimiter(5)

	for i := 0; i < 5; i++ {
		l.Allow("ip")
	}
	c.Advance(59 * time.Second)
	if l.Allow("ip") {
		t.Fatal("admitted before window elapsed")
	}
	c.Advance(time.Second)
	if !l.Allow("ip") {
		t.Fatal("rejected after window elapsed")
	}
}

func TestFollowLimitOfTen(t *testing.T) {
	l, _ := newLimiter(10)
	for i := 0; i < 10; i++ {
		if !l.Allow("ip") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if l.Allow("ip") {
		t.Fatal("11th request admitted")
	}
}

func TestSweep(t *testing.T) {
	l, c := newLimiter(5)
	l.Allow("old")
	c.Advance(30 * time.Second)
	l.Allow("new")
	c.Advance(31 * time.Second)

	removed, err := l.Sweep(context.Background())
	if err != nil || removed != 1 {
		t.Fatalf("Sweep() = %d, %v; want 1", removed, err)
	}
	if l.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", l.Clients())
	}
}

func TestMaxClientsEvictsLeastRecent(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	l := New(Config{Name: "test", Window: time.Minute, Max: 5, MaxClients: 2}).WithClock(c.Now)

	l.Allow("a")
	c.Advance(time.Second)
	l.Allow("b")
	c.Advance(time.Second)
	l.Allow("c")

	if l.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", l.Clients())
	}
	l.mu.Lock()
	_, hasA := l.clients["a"]
	l.mu.Unlock()
	if hasA {
		t.Fatal("least recently seen client not evicted")
	}
}

func TestConcurrentAllow(t *testing.T) {
	l := New(Config{Name: "test", Window: time.Minute, Max: 5})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("ip") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if admitted != 5 {
		t.Fatalf("admitted = %d, want 5", admitted)
	}
}

func TestRejectionsAreCounted(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	l := New(Config{Name: "counted", Window: time.Minute, Max: 1}).WithClock(c.Now)

	before := testutil.ToFloat64(metrics.RateLimitRejections.WithLabelValues("counted"))
	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")

	if got := testutil.ToFloat64(metrics.RateLimitRejections.WithLabelValues("counted")) - before; got != 2 {
		t.Errorf("rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.RateLimitClients.WithLabelValues("counted")); got != 1 {
		t.Errorf("clients gauge = %v, want 1", got)
	}
}
