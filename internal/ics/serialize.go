package ics

import (
	"errors"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"eventcal/internal/model"
)

// ErrNoEvents is returned when asked to serialize an empty list.
var ErrNoEvents = errors.New("ics: no events to serialize")

const (
	defaultProductID = "-//eventcal//Event Calendar Generator//EN"
	defaultUIDDomain = "eventcal"
)

// Options controls the calendar header and UID generation.
type Options struct {
	// Name becomes NAME and X-WR-CALNAME.
	Name string
	// Timezone becomes X-WR-TIMEZONE. Event times are always written in UTC.
	Timezone string
	// ProductID overrides PRODID.
	ProductID string
	// UIDDomain is the right-hand side of every UID.
	UIDDomain string
	// Now stamps DTSTAMP and seeds the UID token. Zero means time.Now().
	Now time.Time
}

// Serialize renders events as an iCalendar document with one VEVENT per
// event. UIDs are "<unix-millis>-<index>@<domain>", unique within a
// document and across documents generated at different milliseconds.
func Serialize(events []model.NormalizedEvent, opts Options) (string, error) {
	if len(events) == 0 {
		return "", ErrNoEvents
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	productID := opts.ProductID
	if productID == "" {
		productID = defaultProductID
	}
	domain := opts.UIDDomain
	if domain == "" {
		domain = defaultUIDDomain
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetName(opts.Name)
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}

	token := strconv.FormatInt(now.UnixMilli(), 10)
	for i, ev := range events {
		ve := cal.AddEvent(token + "-" + strconv.Itoa(i) + "@" + domain)
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Category != "" {
			ve.AddCategory(model.CategoryLabel(ev.Category))
		}
	}

	return cal.Serialize(), nil
}
