package events

import (
	"strings"
	"time"

	"eventcal/internal/model"
)

const defaultEventDuration = time.Hour

// localLayouts are the wall-clock forms seen in start_local/end_local.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Normalizer maps raw and synthesized records into model.NormalizedEvent.
// It never fails; missing fields degrade to defaults.
type Normalizer struct {
	// Location is used for local timestamps without their own timezone.
	Location *time.Location
	// Now anchors events that carry no usable date at all.
	Now func() time.Time
}

// NewNormalizer returns a Normalizer for loc (nil means time.Local).
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{Location: loc, Now: time.Now}
}

// FromRaw normalizes one provider record.
func (n *Normalizer) FromRaw(ev model.RawEvent) model.NormalizedEvent {
	title := firstNonEmpty(ev.Title, ev.Name, "Event")

	loc := n.location()
	if ev.Timezone != "" {
		if tz, err := time.LoadLocation(ev.Timezone); err == nil {
			loc = tz
		}
	}

	start, ok := n.resolveTime(ev.StartLocal, ev.Start, ev.Date, loc)
	if !ok {
		start = n.now().In(n.location()).Truncate(time.Hour).Add(time.Hour)
	}
	end, ok := n.resolveTime(ev.EndLocal, ev.End, "", loc)
	if !ok || !end.After(start) {
		end = start.Add(defaultEventDuration)
	}

	return model.NormalizedEvent{
		Title:       strings.TrimSpace(title),
		Start:       start,
		End:         end,
		Category:    ev.Category,
		Location:    rawLocation(ev),
		Description: rawDescription(ev),
	}
}

// FromFallback normalizes one synthesized record.
func (n *Normalizer) FromFallback(ev model.FallbackEvent) model.NormalizedEvent {
	end := ev.End
	if !end.After(ev.Start) {
		end = ev.Start.Add(defaultEventDuration)
	}
	return model.NormalizedEvent{
		Title:       firstNonEmpty(ev.Title, "Event"),
		Start:       ev.Start,
		End:         end,
		Category:    ev.Category,
		Location:    ev.City,
		Description: model.CategoryLabel(firstNonEmpty(ev.Category, model.DefaultCategory)) + " event in " + ev.City,
	}
}

// NormalizeRaw maps a provider batch in order.
func (n *Normalizer) NormalizeRaw(raw []model.RawEvent) []model.NormalizedEvent {
	out := make([]model.NormalizedEvent, 0, len(raw))
	for _, ev := range raw {
		out = append(out, n.FromRaw(ev))
	}
	return out
}

// NormalizeFallback maps a synthesized batch in order.
func (n *Normalizer) NormalizeFallback(fb []model.FallbackEvent) []model.NormalizedEvent {
	out := make([]model.NormalizedEvent, 0, len(fb))
	for _, ev := range fb {
		out = append(out, n.FromFallback(ev))
	}
	return out
}

// resolveTime prefers the local wall-clock value, then the UTC value, then a
// bare date.
func (n *Normalizer) resolveTime(local, utc, date string, loc *time.Location) (time.Time, bool) {
	if t, ok := parseLocal(local, loc); ok {
		return t, true
	}
	if t, ok := parseInstant(utc); ok {
		return t.In(loc), true
	}
	if t, ok := parseInstant(date); ok {
		return t.In(loc), true
	}
	if t, ok := parseLocal(date, loc); ok {
		return t, true
	}
	if date != "" {
		if t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func parseLocal(v string, loc *time.Location) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseInstant(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func rawLocation(ev model.RawEvent) string {
	if ev.Geo != nil && ev.Geo.Address != nil && ev.Geo.Address.FormattedAddress != "" {
		return ev.Geo.Address.FormattedAddress
	}
	for _, ent := range ev.Entities {
		if ent.Type != "venue" || ent.Name == "" {
			continue
		}
		if ent.FormattedAddress != "" {
			return ent.Name + ", " + strings.ReplaceAll(strings.TrimSpace(ent.FormattedAddress), "\n", ", ")
		}
		return ent.Name
	}
	if ev.Geo != nil && ev.Geo.Address != nil && ev.Geo.Address.Locality != "" {
		return ev.Geo.Address.Locality
	}
	if ev.Country != "" {
		return "Location in " + ev.Country
	}
	return "Location TBA"
}

func rawDescription(ev model.RawEvent) string {
	if d := strings.TrimSpace(ev.Description); d != "" {
		return d
	}

	labels := make([]string, 0, len(ev.PHQLabels)+len(ev.Labels))
	for _, l := range ev.PHQLabels {
		if l.Label != "" {
			labels = append(labels, l.Label)
		}
	}
	if len(labels) == 0 {
		labels = append(labels, ev.Labels...)
	}

	summary := "Event"
	if ev.Category != "" {
		summary = model.CategoryLabel(ev.Category) + " event"
	}
	if len(labels) > 0 {
		return summary + " · Labels: " + strings.Join(labels, ", ")
	}
	return summary
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
