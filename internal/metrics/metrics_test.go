package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSnapshotAggregatesFeedAndSearch(t *testing.T) {
	m := New()

	m.RecordFetch(true, 100)
	m.RecordFetch(false, 300)
	m.RecordDiscardedLoad()
	m.SetLoadSize(12, 4)
	m.RecordSearch(false)
	m.RecordSearch(true)
	m.RecordExport(true)
	m.TrackEndpoint("/api/v1/deliveries", "GET", 200, 10)
	m.TrackEndpoint("/api/v1/deliveries", "GET", 500, 30)

	s := m.Snapshot()

	if s.Feed.Fetches != 2 || s.Feed.Errors != 1 || s.Feed.Discarded != 1 {
		t.Errorf("feed counters = %+v", s.Feed)
	}
	if s.Feed.AvgLatencyMs != 200 {
		t.Errorf("avg latency = %v, want 200", s.Feed.AvgLatencyMs)
	}
	if s.Feed.Records != 12 || s.Feed.Deliveries != 4 {
		t.Errorf("load size = %d/%d", s.Feed.Records, s.Feed.Deliveries)
	}
	if s.Search.Total != 2 || s.Search.CacheHits != 1 {
		t.Errorf("search = %+v", s.Search)
	}
	if s.Exports.Generated != 1 {
		t.Errorf("exports = %+v", s.Exports)
	}

	ep := s.Endpoints["GET /api/v1/deliveries"]
	if ep.Requests != 2 || ep.Errors != 1 || ep.ErrorRate != 50 || ep.AvgLatencyMs != 20 {
		t.Errorf("endpoint = %+v", ep)
	}
}

func TestCheckFeedHealth(t *testing.T) {
	m := New()
	if got := m.CheckFeedHealth().Status; got != "degraded" {
		t.Errorf("antes da primeira busca = %s, want degraded", got)
	}

	m.RecordFetch(false, 1)
	if got := m.CheckFeedHealth().Status; got != "degraded" {
		t.Errorf("apenas falhas = %s, want degraded", got)
	}

	m.RecordFetch(true, 1)
	if got := m.CheckFeedHealth().Status; got != "healthy" {
		t.Errorf("com sucesso = %s, want healthy", got)
	}
}

func TestDetermineOverallStatus(t *testing.T) {
	if got := DetermineOverallStatus(map[string]HealthStatus{"a": {Status: "healthy"}}); got != "healthy" {
		t.Errorf("got %s", got)
	}
	if got := DetermineOverallStatus(map[string]HealthStatus{"a": {Status: "healthy"}, "b": {Status: "degraded"}}); got != "degraded" {
		t.Errorf("got %s", got)
	}
	if got := DetermineOverallStatus(map[string]HealthStatus{"a": {Status: "unhealthy"}, "b": {Status: "degraded"}}); got != "unhealthy" {
		t.Errorf("got %s", got)
	}
}

func TestPrometheusHandlerExposesCollectors(t *testing.T) {
	ObserveFetch("ok", 120*time.Millisecond)
	DeliveriesLoaded.Set(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics/prometheus", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"delivery_feed_fetch_duration_seconds", "deliveries_loaded 3"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("saída não contém %q", name)
		}
	}
}
