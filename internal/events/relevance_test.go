package events

import (
	"testing"

	"eventcal/internal/model"
)

func rawAt(title string, lat, lon float64) model.RawEvent {
	return model.RawEvent{Title: title, Location: []float64{lon, lat}}
}

func TestFilterRelevant(t *testing.T) {
	berlin := model.LocationQuery{RadiusKm: 50, Lat: 52.52, Lon: 13.405}

	tests := []struct {
		name           string
		events         []model.RawEvent
		wantKept       int
		wantSufficient bool
	}{
		{
			name:           "empty",
			events:         nil,
			wantKept:       0,
			wantSufficient: false,
		},
		{
			name:           "nine nearby is not enough",
			events:         repeat(rawAt("near", 52.6, 13.5), 9),
			wantKept:       9,
			wantSufficient: false,
		},
		{
			name:           "ten nearby is enough",
			events:         repeat(rawAt("near", 52.6, 13.5), 10),
			wantKept:       10,
			wantSufficient: true,
		},
		{
			name: "far events are dropped",
			events: append(
				repeat(rawAt("near", 52.0, 13.0), 10),
				rawAt("munich", 48.137, 11.575),
				rawAt("hamburg", 53.55, 9.99),
			),
			wantKept:       10,
			wantSufficient: true,
		},
		{
			name: "far events do not count toward the minimum",
			events: append(
				repeat(rawAt("near", 52.5, 13.4), 5),
				repeat(rawAt("paris", 48.85, 2.35), 20)...,
			),
			wantKept:       5,
			wantSufficient: false,
		},
		{
			name: "missing coordinates are dropped",
			events: append(
				repeat(model.RawEvent{Title: "nowhere"}, 10),
				rawAt("near", 52.52, 13.405),
			),
			wantKept:       1,
			wantSufficient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, ok := FilterRelevant(tt.events, berlin)
			if len(kept) != tt.wantKept {
				t.Errorf("kept %d, want %d", len(kept), tt.wantKept)
			}
			if ok != tt.wantSufficient {
				t.Errorf("sufficient = %v, want %v", ok, tt.wantSufficient)
			}
			for _, ev := range kept {
				lat, lon, _ := ev.Coordinates()
				if degreeDistance(lat, lon, berlin.Lat, berlin.Lon) > ProximityThresholdDeg {
					t.Errorf("kept far event %q at %v,%v", ev.Title, lat, lon)
				}
			}
		})
	}
}

func TestFilterRelevantThresholdEdge(t *testing.T) {
	center := model.LocationQuery{Lat: 0, Lon: 0}
	inside := rawAt("inside", 0.7, 0.7)     // ~0.99 degrees
	outside := rawAt("outside", 0.71, 0.71) // ~1.004 degrees
	axis := rawAt("axis", 0, 1)

	kept, _ := FilterRelevant([]model.RawEvent{inside, outside, axis}, center)
	if len(kept) != 2 || kept[0].Title != "inside" || kept[1].Title != "axis" {
		t.Fatalf("expected inside and axis events to be kept, got %+v", kept)
	}
}

func TestFilterRelevantUsesGeoGeometry(t *testing.T) {
	ev := model.RawEvent{
		Title: "geo",
		Geo:   &model.Geo{Geometry: &model.Geometry{Type: "Point", Coordinates: []float64{13.4, 52.5}}},
	}
	kept, _ := FilterRelevant([]model.RawEvent{ev}, model.LocationQuery{Lat: 52.52, Lon: 13.405})
	if len(kept) != 1 {
		t.Fatalf("expected geo geometry coordinates to be used, kept %d", len(kept))
	}
}

func repeat(ev model.RawEvent, n int) []model.RawEvent {
	out := make([]model.RawEvent, n)
	for i := range out {
		out[i] = ev
	}
	return out
}
