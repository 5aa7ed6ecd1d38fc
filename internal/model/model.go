package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawEvent is a single record as returned by the events provider. Every
// field is optional; providers are inconsistent about which ones they fill.
type RawEvent struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Country     string `json:"country,omitempty"`
	Timezone    string `json:"timezone,omitempty"`

	Start      string `json:"start,omitempty"`
	StartLocal string `json:"start_local,omitempty"`
	End        string `json:"end,omitempty"`
	EndLocal   string `json:"end_local,omitempty"`
	Date       string `json:"date,omitempty"`

	// Location is [lon, lat] as sent by the provider.
	Location []float64 `json:"location,omitempty"`
	Geo      *Geo      `json:"geo,omitempty"`

	Entities  []Entity   `json:"entities,omitempty"`
	PHQLabels []PHQLabel `json:"phq_labels,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
}

// Geo carries the provider's structured geometry and address data.
type Geo struct {
	Geometry *Geometry `json:"geometry,omitempty"`
	Address  *Address  `json:"address,omitempty"`
}

type Geometry struct {
	Type string `json:"type,omitempty"`
	// Coordinates is [lon, lat] for Point geometries.
	Coordinates []float64 `json:"coordinates,omitempty"`
}

type Address struct {
	CountryCode      string `json:"country_code,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
	Locality         string `json:"locality,omitempty"`
	Region           string `json:"region,omitempty"`
}

type Entity struct {
	EntityID         string `json:"entity_id,omitempty"`
	Name             string `json:"name,omitempty"`
	Type             string `json:"type,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

type PHQLabel struct {
	Label  string `json:"label"`
	Weight int    `json:"weight,omitempty"`
}

// Coordinates returns the event position as (lat, lon). It prefers the
// top-level location pair and falls back to a point geometry.
func (e RawEvent) Coordinates() (lat, lon float64, ok bool) {
	if len(e.Location) >= 2 {
		return e.Location[1], e.Location[0], true
	}
	if e.Geo != nil && e.Geo.Geometry != nil && len(e.Geo.Geometry.Coordinates) >= 2 {
		c := e.Geo.Geometry.Coordinates
		return c[1], c[0], true
	}
	return 0, 0, false
}

// FallbackEvent is a locally synthesized stand-in for provider data.
type FallbackEvent struct {
	Title    string
	Category string
	City     string
	Start    time.Time
	End      time.Time
}

// NormalizedEvent is the uniform event shape consumed by the serializer.
// Start is always strictly before End.
type NormalizedEvent struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    string    `json:"category,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// LocationQuery is a search circle around a point.
type LocationQuery struct {
	RadiusKm float64
	Lat      float64
	Lon      float64
	CityName string
}

// ParseLocationQuery parses the compact "<radius>km@<lat>,<lon>" form.
func ParseLocationQuery(s string) (LocationQuery, error) {
	var q LocationQuery

	s = strings.TrimSpace(s)
	if s == "" {
		return q, fmt.Errorf("%w: location is empty", ErrValidation)
	}

	radiusPart, coordPart, found := strings.Cut(s, "@")
	if !found {
		return q, fmt.Errorf("%w: location %q must look like <radius>km@<lat>,<lon>", ErrValidation, s)
	}

	radiusPart = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(radiusPart)), "km")
	radius, err := strconv.ParseFloat(radiusPart, 64)
	if err != nil || radius <= 0 {
		return q, fmt.Errorf("%w: invalid radius in location %q", ErrValidation, s)
	}

	latPart, lonPart, found := strings.Cut(coordPart, ",")
	if !found {
		return q, fmt.Errorf("%w: location %q is missing a longitude", ErrValidation, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latPart), 64)
	if err != nil || lat < -90 || lat > 90 {
		return q, fmt.Errorf("%w: invalid latitude in location %q", ErrValidation, s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonPart), 64)
	if err != nil || lon < -180 || lon > 180 {
		return q, fmt.Errorf("%w: invalid longitude in location %q", ErrValidation, s)
	}

	q.RadiusKm = radius
	q.Lat = lat
	q.Lon = lon
	return q, nil
}

// String renders the query back into the provider's location.within form.
func (q LocationQuery) String() string {
	return strconv.FormatFloat(q.RadiusKm, 'f', -1, 64) + "km@" +
		strconv.FormatFloat(q.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(q.Lon, 'f', -1, 64)
}

// CalendarSession is one generated calendar waiting to be downloaded.
type CalendarSession struct {
	ID         string
	Content    string
	EventCount int
	CityName   string
	CreatedAt  time.Time
}
