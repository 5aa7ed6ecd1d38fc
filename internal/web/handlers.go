package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eventcal/internal/events"
	"eventcal/internal/ics"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/session"
)

// generateRequest is the body of POST /api/generate-calendar.
type generateRequest struct {
	Location   string `json:"location"`
	Categories string `json:"categories"`
	Weeks      int    `json:"weeks"`
	CityName   string `json:"cityName"`
}

// generateResponse is the success body of POST /api/generate-calendar.
type generateResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl"`
	EventCount  int    `json:"eventCount"`
	Message     string `json:"message"`
	Source      string `json:"source"`
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories)
}

// handleGenerate builds a calendar for a location and stores it for one
// download.
//
// POST /api/generate-calendar
//
//	{"location": "50km@52.52,13.405", "categories": "concerts,sports", "weeks": 4, "cityName": "Berlin"}
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var body generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeFailure(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(body.Location) == "" {
		writeFailure(w, http.StatusBadRequest, "Location is required", "")
		return
	}
	query, err := model.ParseLocationQuery(body.Location)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid location", err.Error())
		return
	}
	query.CityName = strings.TrimSpace(body.CityName)
	if body.Weeks <= 0 {
		body.Weeks = events.DefaultWeeks
	}
	if body.Weeks > model.MaxWeeks {
		body.Weeks = model.MaxWeeks
	}

	appLog.Info("generate calendar request",
		"location", query.String(),
		"city", query.CityName,
		"categories", body.Categories,
		"weeks", body.Weeks,
	)

	// A client hanging up does not abort an in-flight generation.
	ctx := context.WithoutCancel(r.Context())
	res := s.acquirer.Acquire(ctx, events.Request{
		Query:      query,
		Categories: body.Categories,
		Weeks:      body.Weeks,
	})

	sess, err := s.buildSession(res, query.CityName)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	s.metrics.ObserveCalendar(string(res.Origin), res.Reason, sess.EventCount, time.Since(started))
	s.metrics.SetSessions(s.store.Len(), s.store.LastSweep())

	writeJSON(w, http.StatusOK, generateResponse{
		Success:     true,
		DownloadURL: "/api/download/" + sess.ID,
		EventCount:  sess.EventCount,
		Message:     generatedMessage(sess.EventCount, query.CityName, res.Origin),
		Source:      string(res.Origin),
	})
}

func (s *Server) buildSession(res events.Result, city string) (model.CalendarSession, error) {
	if len(res.Events) == 0 {
		return model.CalendarSession{}, fmt.Errorf("%w: no events found for the selected location and categories", model.ErrNotFound)
	}

	content, err := ics.Serialize(res.Events, ics.Options{
		Name:     calendarTitle(s.cfg.CalendarName, city),
		Timezone: s.loc.String(),
		Now:      s.now(),
	})
	if err != nil {
		if errors.Is(err, ics.ErrNoEvents) {
			return model.CalendarSession{}, fmt.Errorf("%w: %v", model.ErrNotFound, err)
		}
		return model.CalendarSession{}, fmt.Errorf("%w: serialize calendar: %v", model.ErrInternal, err)
	}

	return s.store.Put(content, session.Meta{EventCount: len(res.Events), CityName: city}), nil
}

// handleDownload serves a stored calendar once; the session is deleted
// shortly after.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")

	sess, err := s.store.Get(id)
	if err != nil {
		s.metrics.ObserveDownload("not_found")
		appLog.Info("download miss", "session_id", id)
		s.writePipelineError(w, err)
		return
	}
	s.metrics.ObserveDownload("ok")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename(sess.CityName)+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(sess.Content)); err != nil {
		appLog.Error("download write failed", err, "session_id", id)
	}
}

// handleStaticCalendar serves the file written by the batch job.
func (s *Server) handleStaticCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	http.ServeFile(w, r, s.cfg.Batch.Output)
}

// writePipelineError maps error kinds to status codes.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeFailure(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeFailure(w, http.StatusNotFound, notFoundMessage(err), "")
	default:
		appLog.Error("calendar generation failed", err)
		writeFailure(w, http.StatusInternalServerError, "Failed to generate calendar", err.Error())
	}
}

func notFoundMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), model.ErrNotFound.Error()+": ")
	if msg == "" {
		return "Not found"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func generatedMessage(n int, city string, origin events.Origin) string {
	where := ""
	if city != "" {
		where = " in " + city
	}
	if origin == events.OriginFallback {
		return fmt.Sprintf("Generated %d suggested events%s", n, where)
	}
	return fmt.Sprintf("Found %d events%s", n, where)
}

func calendarTitle(name, city string) string {
	if city == "" {
		return name
	}
	return name + " - " + city
}

// downloadFilename turns a city name into a safe attachment filename.
func downloadFilename(city string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(city)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "local"
	}
	return slug + "-events.ics"
}
