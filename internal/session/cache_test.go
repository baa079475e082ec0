package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type counter struct{ hits, misses int }

func (c *counter) CacheHit()  { c.hits++ }
func (c *counter) CacheMiss() { c.misses++ }

func newCache(ttl time.Duration) (*Cache[string], *clock, *counter) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	obs := &counter{}
	c := New[string](ttl, obs)
	c.now = clk.now
	return c, clk, obs
}

func TestSetAssignsUUID(t *testing.T) {
	c, _, _ := newCache(time.Minute)
	id := c.Set("", "a")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id %q is not a uuid: %v", id, err)
	}
	if again := c.Set(id, "b"); again != id {
		t.Errorf("known id replaced: %q -> %q", id, again)
	}
	if other := c.Set("made-up", "c"); other == "made-up" {
		t.Error("unknown id was accepted")
	}
	if v, ok := c.Get(id); !ok || v != "b" {
		t.Errorf("Get = %q, %v", v, ok)
	}
}

func TestSlidingExpiry(t *testing.T) {
	c, clk, obs := newCache(30 * time.Minute)
	id := c.Set("", "route")

	clk.advance(20 * time.Minute)
	if _, ok := c.Get(id); !ok {
		t.Fatal("expired too early")
	}
	// The hit above pushed expiry to 50 minutes.
	clk.advance(20 * time.Minute)
	if _, ok := c.Get(id); !ok {
		t.Fatal("access did not extend the session")
	}
	clk.advance(31 * time.Minute)
	if _, ok := c.Get(id); ok {
		t.Fatal("idle session should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry kept: len %d", c.Len())
	}
	if obs.hits != 2 || obs.misses != 1 {
		t.Errorf("hits %d misses %d", obs.hits, obs.misses)
	}
}

func TestCleanup(t *testing.T) {
	c, clk, _ := newCache(time.Minute)
	c.Set("", "old")
	clk.advance(45 * time.Second)
	fresh := c.Set("", "new")
	clk.advance(30 * time.Second)
	if n := c.Cleanup(); n != 1 {
		t.Errorf("cleaned %d, want 1", n)
	}
	if _, ok := c.Get(fresh); !ok {
		t.Error("fresh session removed")
	}
}

func TestResolveAndPut(t *testing.T) {
	c, clk, _ := newCache(0)
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v", c.ttl)
	}

	id := c.Resolve("")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id %q is not a uuid: %v", id, err)
	}
	if c.Len() != 0 {
		t.Error("Resolve stored an entry")
	}
	if c.Resolve(id) == id {
		t.Error("unstored id resolved to itself")
	}

	c.Put(id, "route")
	if got := c.Resolve(id); got != id {
		t.Errorf("live id resolved to %q", got)
	}
	if v, ok := c.Get(id); !ok || v != "route" {
		t.Errorf("Get = %q, %v", v, ok)
	}

	clk.advance(DefaultTTL)
	if c.Resolve(id) == id {
		t.Error("expired id resolved to itself")
	}
}
