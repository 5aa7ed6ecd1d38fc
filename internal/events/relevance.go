package events

import (
	"math"

	"eventcal/internal/model"
)

const (
	// ProximityThresholdDeg is the maximum planar distance, in degrees,
	// between an event and the query center. Roughly 100 km, less accurate
	// away from the equator.
	ProximityThresholdDeg = 1.0
	// MinRelevantEvents is the smallest batch of nearby events worth using.
	MinRelevantEvents = 10
)

// FilterRelevant keeps the events within ProximityThresholdDeg of the query
// center and reports whether enough of them survived. Events without
// coordinates are dropped.
func FilterRelevant(raw []model.RawEvent, query model.LocationQuery) ([]model.RawEvent, bool) {
	kept := make([]model.RawEvent, 0, len(raw))
	for _, ev := range raw {
		lat, lon, ok := ev.Coordinates()
		if !ok {
			continue
		}
		if degreeDistance(lat, lon, query.Lat, query.Lon) <= ProximityThresholdDeg {
			kept = append(kept, ev)
		}
	}
	return kept, len(kept) >= MinRelevantEvents
}

func degreeDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Hypot(lat1-lat2, lon1-lon2)
}
