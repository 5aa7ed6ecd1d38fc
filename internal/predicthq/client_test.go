package predicthq_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventcal/internal/model"
	"eventcal/internal/predicthq"
)

var berlin = model.LocationQuery{RadiusKm: 50, Lat: 52.52, Lon: 13.405}

func fixedNow() time.Time {
	return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
}

func newClient(url, token string) *predicthq.Client {
	return predicthq.NewClient(predicthq.Options{
		BaseURL: url,
		Token:   token,
		Timeout: 2 * time.Second,
		Limit:   50,
		Now:     fixedNow,
	})
}

func TestSearchRequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"results":[{"title":"Jazz","start":"2026-10-20T18:00:00Z","location":[13.4,52.5],"phq_labels":[{"label":"music","weight":1}]}]}`))
	}))
	defer srv.Close()

	events, err := newClient(srv.URL, "secret").Search(context.Background(), berlin, "concerts, festivals", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Jazz" {
		t.Fatalf("unexpected events %+v", events)
	}
	if lat, lon, ok := events[0].Coordinates(); !ok || lat != 52.5 || lon != 13.4 {
		t.Errorf("coordinates = %v,%v,%v", lat, lon, ok)
	}
	if len(events[0].PHQLabels) != 1 || events[0].PHQLabels[0].Label != "music" {
		t.Errorf("labels not decoded: %+v", events[0].PHQLabels)
	}

	if got.URL.Path != "/v1/events/" {
		t.Errorf("path = %q", got.URL.Path)
	}
	if h := got.Header.Get("Authorization"); h != "Bearer secret" {
		t.Errorf("authorization = %q", h)
	}

	q := got.URL.Query()
	checks := map[string]string{
		"limit":           "50",
		"category":        "concerts,festivals",
		"start.gte":       "2026-10-17",
		"start.lte":       "2026-10-31",
		"location.within": "50km@52.52,13.405",
	}
	for k, want := range checks {
		if v := q.Get(k); v != want {
			t.Errorf("query %s = %q, want %q", k, v, want)
		}
	}
}

func TestSearchClampsWeeks(t *testing.T) {
	var lte string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lte = r.URL.Query().Get("start.lte")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL, "token").Search(context.Background(), berlin, "concerts", math.MaxInt/2); err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := fixedNow().AddDate(0, 0, model.MaxWeeks*7).Format("2006-01-02")
	if lte != want {
		t.Errorf("start.lte = %q, want %q", lte, want)
	}
}

func TestSearchFailures(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantUnauthed bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid_token"}`, true},
		{"server error", http.StatusInternalServerError, `oops`, false},
		{"malformed body", http.StatusOK, `{"results": [`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(srv.URL, "token").Search(context.Background(), berlin, "concerts", 1)
			if !errors.Is(err, model.ErrProvider) {
				t.Fatalf("expected ErrProvider, got %v", err)
			}
			if errors.Is(err, predicthq.ErrUnauthorized) != tt.wantUnauthed {
				t.Errorf("ErrUnauthorized match = %v, want %v", !tt.wantUnauthed, tt.wantUnauthed)
			}
			if calls != 1 {
				t.Errorf("expected a single request without retries, got %d", calls)
			}
		})
	}
}

func TestSearchWithoutToken(t *testing.T) {
	c := newClient("http://127.0.0.1:1", "")
	if c.Configured() {
		t.Fatal("client without token should not be configured")
	}
	if _, err := c.Search(context.Background(), berlin, "concerts", 1); !errors.Is(err, model.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestSearchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := newClient(url, "token").Search(context.Background(), berlin, "concerts", 1); !errors.Is(err, model.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := predicthq.NewClient(predicthq.Options{BaseURL: srv.URL, Token: "t", RatePerMinute: 1, Now: fixedNow})
	if _, err := c.Search(context.Background(), berlin, "", 1); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := c.Search(context.Background(), berlin, "", 1); !errors.Is(err, model.ErrProvider) {
		t.Fatalf("expected second search to be rate limited, got %v", err)
	}
}
