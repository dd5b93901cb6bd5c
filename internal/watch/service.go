// Package watch provides the long-running alert monitor service. It
// polls the SubFlow backend for the active workspace's alerts and
// serves the latest state over a local HTTP API, including an SSE
// stream for desktop notifiers and status bars.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/subflowhq/subflow/internal/model"
	"github.com/subflowhq/subflow/internal/state"
	"github.com/subflowhq/subflow/internal/stats"
)

// Config controls the watch runtime behavior.
type Config struct {
	Workspace    string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact spend-and-alert state for status/event payloads.
type Snapshot struct {
	At                 time.Time `json:"at"`
	Workspace          string    `json:"workspace"`
	Subscriptions      int       `json:"subscriptions"`
	MonthlySpend       float64   `json:"monthly_spend"`
	BudgetUsagePercent float64   `json:"budget_usage_percent"`
	Alerts             int       `json:"alerts"`
	UrgentAlerts       int       `json:"urgent_alerts"`
	UpcomingRenewals   int       `json:"upcoming_renewals"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Subscriptions    int     `json:"subscriptions"`
	MonthlySpend     float64 `json:"monthly_spend"`
	Alerts           int     `json:"alerts"`
	UrgentAlerts     int     `json:"urgent_alerts"`
	UpcomingRenewals int     `json:"upcoming_renewals"`
}

func (d Delta) isZero() bool {
	return d.Subscriptions == 0 &&
		d.MonthlySpend == 0 &&
		d.Alerts == 0 &&
		d.UrgentAlerts == 0 &&
		d.UpcomingRenewals == 0
}

// Event is emitted whenever the watched workspace changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Workspace       string    `json:"workspace"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the watch runtime and HTTP API.
type Service struct {
	cfg   Config
	store *state.Store

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	alerts      []model.Alert
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new watch service polling through the given store.
func New(cfg Config, st *state.Store) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8790"
	}

	return &Service{
		cfg:       cfg,
		store:     st,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/alerts", s.handleAlerts)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("watch http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	err := s.store.Reload(ctx)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		log.Printf("subflow watch poll error: %v", err)
		return
	}

	workspaceSnap := s.store.Snapshot()
	snap := snapshotFromSummary(workspaceSnap, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.alerts = stats.SortAlerts(workspaceSnap.Alerts, now)
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     Delta{},
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      "workspace_delta",
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromSummary(workspaceSnap state.Snapshot, at time.Time) Snapshot {
	summary := workspaceSnap.Summary(at)
	return Snapshot{
		At:                 at,
		Workspace:          workspaceSnap.ActiveID,
		Subscriptions:      summary.ActiveSubscriptions,
		MonthlySpend:       summary.TotalMonthlySpend,
		BudgetUsagePercent: summary.BudgetUsagePercent,
		Alerts:             len(workspaceSnap.Alerts),
		UrgentAlerts:       summary.UrgentAlerts,
		UpcomingRenewals:   summary.UpcomingRenewals,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Subscriptions:    curr.Subscriptions - prev.Subscriptions,
		MonthlySpend:     curr.MonthlySpend - prev.MonthlySpend,
		Alerts:           curr.Alerts - prev.Alerts,
		UrgentAlerts:     curr.UrgentAlerts - prev.UrgentAlerts,
		UpcomingRenewals: curr.UpcomingRenewals - prev.UpcomingRenewals,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Workspace:       s.cfg.Workspace,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	alerts := make([]model.Alert, len(s.alerts))
	copy(alerts, s.alerts)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alerts)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
