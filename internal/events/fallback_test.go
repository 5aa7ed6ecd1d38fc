package events

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"eventcal/internal/model"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		loc = time.UTC
	}
	return time.Date(2026, 10, 17, 15, 42, 0, 0, loc)
}

func TestSynthesizeOneWeek(t *testing.T) {
	now := fixedNow(t)
	for seed := int64(0); seed < 50; seed++ {
		got := Synthesize(rand.New(rand.NewSource(seed)), now, "Berlin", []string{"festivals"}, 1)
		if len(got) < 14 || len(got) > 21 {
			t.Fatalf("seed %d: expected 14..21 events for one week, got %d", seed, len(got))
		}
	}
}

func TestSynthesizeBounds(t *testing.T) {
	now := fixedNow(t)
	tomorrow := startOfDay(now).AddDate(0, 0, 1)

	tests := []struct {
		name       string
		categories []string
		weeks      int
	}{
		{"single category", []string{"concerts"}, 2},
		{"many categories", []string{"concerts", "sports", "expos"}, 4},
		{"unknown category", []string{"quidditch"}, 3},
		{"no categories", nil, 1},
		{"long horizon", []string{"festivals"}, 52},
		{"zero weeks uses default", []string{"festivals"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(rand.New(rand.NewSource(7)), now, "Berlin", tt.categories, tt.weeks)
			if len(got) == 0 {
				t.Fatal("expected events")
			}
			if len(got) > MaxFallbackEvents {
				t.Fatalf("expected at most %d events, got %d", MaxFallbackEvents, len(got))
			}
			for i, ev := range got {
				if ev.Start.Before(tomorrow) {
					t.Errorf("event %d starts %v, before tomorrow %v", i, ev.Start, tomorrow)
				}
				if h := ev.Start.Hour(); h < 9 || h > 20 {
					t.Errorf("event %d starts at hour %d, want 9..20", i, h)
				}
				if m := ev.Start.Minute(); m != 0 && m != 30 {
					t.Errorf("event %d starts at minute %d, want 0 or 30", i, m)
				}
				d := ev.End.Sub(ev.Start)
				if d <= 0 || d > 4*time.Hour {
					t.Errorf("event %d duration %v out of (0, 4h]", i, d)
				}
				if d < time.Hour {
					t.Errorf("event %d duration %v shorter than 1h", i, d)
				}
				if !strings.Contains(ev.Title, "Berlin") {
					t.Errorf("event %d title %q does not mention the city", i, ev.Title)
				}
			}
		})
	}
}

func TestSynthesizeCapsLongHorizon(t *testing.T) {
	got := Synthesize(rand.New(rand.NewSource(1)), fixedNow(t), "Berlin", []string{"festivals"}, 52)
	if len(got) != MaxFallbackEvents {
		t.Fatalf("expected exactly %d events for a year, got %d", MaxFallbackEvents, len(got))
	}
}

func TestSynthesizeHugeWeeks(t *testing.T) {
	now := fixedNow(t)
	got := Synthesize(rand.New(rand.NewSource(1)), now, "Berlin", nil, math.MaxInt/2)
	if len(got) != MaxFallbackEvents {
		t.Fatalf("expected %d events, got %d", MaxFallbackEvents, len(got))
	}
	last := startOfDay(now).AddDate(0, 0, model.MaxWeeks*7+1)
	if got[len(got)-1].Start.After(last) {
		t.Errorf("last event %v beyond the %d-week window", got[len(got)-1].Start, model.MaxWeeks)
	}
}

func TestSynthesizeUnknownCategoryUsesFestivalTemplates(t *testing.T) {
	got := Synthesize(rand.New(rand.NewSource(3)), fixedNow(t), "Lyon", []string{"quidditch"}, 1)
	allowed := make(map[string]bool)
	for _, tpl := range titleTemplates["festivals"] {
		allowed[strings.Replace(tpl, "%s", "Lyon", 1)] = true
	}
	for _, ev := range got {
		if !allowed[ev.Title] {
			t.Errorf("title %q is not a festivals template", ev.Title)
		}
		if ev.Category != "quidditch" {
			t.Errorf("expected category to be kept as requested, got %q", ev.Category)
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	now := fixedNow(t)
	a := Synthesize(rand.New(rand.NewSource(42)), now, "Oslo", []string{"concerts", "sports"}, 2)
	b := Synthesize(rand.New(rand.NewSource(42)), now, "Oslo", []string{"concerts", "sports"}, 2)
	if len(a) != len(b) {
		t.Fatalf("same seed produced %d and %d events", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSynthesizeOrderedByDay(t *testing.T) {
	got := Synthesize(rand.New(rand.NewSource(9)), fixedNow(t), "Rome", []string{"festivals"}, 3)
	for i := 1; i < len(got); i++ {
		if startOfDay(got[i].Start).Before(startOfDay(got[i-1].Start)) {
			t.Fatalf("event %d is on an earlier day than event %d", i, i-1)
		}
	}
}
