package events

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/teambition/rrule-go"

	"eventcal/internal/model"
)

const (
	// MaxFallbackEvents caps a synthesized list regardless of duration.
	MaxFallbackEvents = 140

	// DefaultWeeks is used when a caller asks for zero or negative weeks.
	DefaultWeeks = 4

	fallbackMinPerDay   = 2
	fallbackMaxPerDay   = 3
	fallbackFirstHour   = 9
	fallbackLastHour    = 20
	fallbackMinDuration = time.Hour
	fallbackMaxDuration = 4 * time.Hour
)

// Synthesize builds a plausible event list for city without any external
// call. Events start on the day after now (in now's location), 2–3 per day
// for weeks*7 days, capped at MaxFallbackEvents.
func Synthesize(rnd *rand.Rand, now time.Time, city string, categories []string, weeks int) []model.FallbackEvent {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	if weeks > model.MaxWeeks {
		weeks = model.MaxWeeks
	}
	if len(categories) == 0 {
		categories = []string{model.DefaultCategory}
	}
	if city == "" {
		city = "Your City"
	}

	loc := now.Location()
	tomorrow := startOfDay(now).AddDate(0, 0, 1)

	// Every day yields at least one event, so more days than the cap is wasted work.
	days := weeks * 7
	if days > MaxFallbackEvents {
		days = MaxFallbackEvents
	}

	out := make([]model.FallbackEvent, 0, days*fallbackMaxPerDay)
	for _, day := range dailySeries(tomorrow, days) {
		perDay := fallbackMinPerDay + rnd.Intn(fallbackMaxPerDay-fallbackMinPerDay+1)
		for i := 0; i < perDay; i++ {
			category := categories[rnd.Intn(len(categories))]
			templates := templatesFor(category)
			title := fmt.Sprintf(templates[rnd.Intn(len(templates))], city)

			hour := fallbackFirstHour + rnd.Intn(fallbackLastHour-fallbackFirstHour+1)
			minute := rnd.Intn(2) * 30
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)

			span := float64(fallbackMaxDuration - fallbackMinDuration)
			dur := (fallbackMinDuration + time.Duration(rnd.Float64()*span)).Truncate(time.Minute)

			out = append(out, model.FallbackEvent{
				Title:    title,
				Category: category,
				City:     city,
				Start:    start,
				End:      start.Add(dur),
			})
		}
		if len(out) >= MaxFallbackEvents {
			break
		}
	}

	if len(out) > MaxFallbackEvents {
		out = out[:MaxFallbackEvents]
	}
	return out
}

// dailySeries returns count consecutive local midnights starting at start.
func dailySeries(start time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Count:   count,
	})
	if err != nil {
		out := make([]time.Time, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, start.AddDate(0, 0, i))
		}
		return out
	}
	return r.All()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
