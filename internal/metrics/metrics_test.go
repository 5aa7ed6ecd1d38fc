package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCalendar(t *testing.T) {
	m := New()
	m.ObserveCalendar("provider", "", 12, 200*time.Millisecond)
	m.ObserveCalendar("fallback", "no_source", 40, time.Second)
	m.ObserveCalendar("fallback", "no_source", 41, time.Second)

	if v := testutil.ToFloat64(m.calendarsTotal.WithLabelValues("fallback")); v != 2 {
		t.Errorf("fallback calendars = %v", v)
	}
	if v := testutil.ToFloat64(m.calendarsTotal.WithLabelValues("provider")); v != 1 {
		t.Errorf("provider calendars = %v", v)
	}
	if v := testutil.ToFloat64(m.fallbacksTotal.WithLabelValues("no_source")); v != 2 {
		t.Errorf("fallback reasons = %v", v)
	}
	if n := testutil.CollectAndCount(m.fallbacksTotal); n != 1 {
		t.Errorf("fallback series = %d, want 1", n)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveDownload("ok")
	m.ObserveBatch("error")
	m.SetSessions(3, time.Unix(1792224000, 0))

	if v := testutil.ToFloat64(m.lastSweep); v != 1792224000 {
		t.Errorf("last sweep gauge = %v", v)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`eventcal_downloads_total{outcome="ok"} 1`,
		`eventcal_batch_runs_total{outcome="error"} 1`,
		`eventcal_sessions_stored 3`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCalendar("fallback", "no_source", 1, time.Second)
	m.ObserveDownload("ok")
	m.ObserveBatch("ok")
	m.SetSessions(1, time.Now())
}
