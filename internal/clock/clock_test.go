package clock

import (
	"sync"
	"testing"
	"time"
)

func TestClock_DefaultIsUTCWallClock(t *testing.T) {
	c := New()
	before := time.Now().UTC()
	got := c.Now()
	after := time.Now().UTC()

	if got.Location() != time.UTC {
		t.Fatalf("Now() location = %v; want UTC", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("Now() = %v not within [%v, %v]", got, before, after)
	}
	if c.Overridden() {
		t.Fatalf("new clock should not be overridden")
	}
}

func TestClock_SetAndReset(t *testing.T) {
	var c Clock // zero value is usable
	loc := time.FixedZone("UTC+2", 2*60*60)
	pinned := time.Date(2021, 3, 4, 12, 0, 0, 0, loc)

	c.Set(pinned)
	if !c.Overridden() {
		t.Fatalf("expected override after Set")
	}
	got := c.Now()
	if !got.Equal(pinned) || got.Location() != time.UTC {
		t.Fatalf("Now() = %v; want %v in UTC", got, pinned)
	}

	c.Reset()
	if c.Overridden() {
		t.Fatalf("expected no override after Reset")
	}
	if c.Now().Year() == 2021 {
		t.Fatalf("Reset should restore the wall clock")
	}
}

func TestClock_ConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set(time.Unix(int64(i), 0))
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Now()
		}()
	}
	wg.Wait()
	if !c.Overridden() {
		t.Fatalf("expected an override after concurrent Set calls")
	}
}
