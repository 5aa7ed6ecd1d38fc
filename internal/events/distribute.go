package events

import (
	"math/rand"
	"time"

	"eventcal/internal/model"
)

const (
	// DistributionDays is the length of the batch calendar window.
	DistributionDays = 28
	// MaxEventsPerDay caps how many events the batch calendar puts on a day.
	MaxEventsPerDay = 5

	distributeFirstHour = 8
	distributeLastHour  = 21
)

// distributeDurations are the candidate event lengths in minutes.
var distributeDurations = []int{60, 90, 120, 180}

// Distribute re-times events over the DistributionDays days starting today
// (in now's location). Events are consumed in order, at most MaxEventsPerDay
// per day; whatever does not fit is dropped. Each placed event gets a random
// start in [08:00, 21:45] on a 15-minute grid and a random duration from
// distributeDurations. Overlaps within a day are left as they fall.
func Distribute(rnd *rand.Rand, now time.Time, events []model.NormalizedEvent) []model.NormalizedEvent {
	capacity := DistributionDays * MaxEventsPerDay
	if len(events) < capacity {
		capacity = len(events)
	}
	out := make([]model.NormalizedEvent, 0, capacity)

	next := 0
	for _, day := range dailySeries(startOfDay(now), DistributionDays) {
		for placed := 0; placed < MaxEventsPerDay && next < len(events); placed++ {
			ev := events[next]
			next++

			hour := distributeFirstHour + rnd.Intn(distributeLastHour-distributeFirstHour+1)
			minute := rnd.Intn(4) * 15
			start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
			dur := time.Duration(distributeDurations[rnd.Intn(len(distributeDurations))]) * time.Minute

			ev.Start = start
			ev.End = start.Add(dur)
			out = append(out, ev)
		}
		if next >= len(events) {
			break
		}
	}
	return out
}
