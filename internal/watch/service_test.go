package watch

import (
	"math"
	"testing"
	"time"
)

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Subscriptions:    10,
		MonthlySpend:     120.50,
		Alerts:           3,
		UrgentAlerts:     1,
		UpcomingRenewals: 2,
	}
	curr := Snapshot{
		Subscriptions:    11,
		MonthlySpend:     135.50,
		Alerts:           5,
		UrgentAlerts:     2,
		UpcomingRenewals: 3,
	}

	delta := diffSnapshots(prev, curr)
	if delta.Subscriptions != 1 {
		t.Fatalf("Subscriptions delta = %d, want 1", delta.Subscriptions)
	}
	if math.Abs(delta.MonthlySpend-15) > 1e-9 {
		t.Fatalf("MonthlySpend delta = %.2f, want 15.00", delta.MonthlySpend)
	}
	if delta.Alerts != 2 {
		t.Fatalf("Alerts delta = %d, want 2", delta.Alerts)
	}
	if delta.UrgentAlerts != 1 {
		t.Fatalf("UrgentAlerts delta = %d, want 1", delta.UrgentAlerts)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestDiffSnapshotsZero(t *testing.T) {
	snap := Snapshot{Subscriptions: 4, MonthlySpend: 60, Alerts: 1}
	if !diffSnapshots(snap, snap).isZero() {
		t.Fatal("identical snapshots should produce a zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     time.Minute,
		EventsBuffer: 2,
	}, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}
