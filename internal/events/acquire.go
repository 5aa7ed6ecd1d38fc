package events

import (
	"context"
	"errors"
	"math/rand"
	"time"

	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/predicthq"
)

// Source is the external events provider.
type Source interface {
	Search(ctx context.Context, query model.LocationQuery, categories string, weeks int) ([]model.RawEvent, error)
}

// Origin says where an acquired event list came from.
type Origin string

const (
	OriginProvider Origin = "provider"
	OriginFallback Origin = "fallback"
)

// Fallback reasons, also used as metric label values.
const (
	ReasonNoSource     = "no_source"
	ReasonProviderErr  = "provider_error"
	ReasonUnauthorized = "unauthorized"
	ReasonIrrelevant   = "insufficient_relevant"
)

// Request describes one acquisition.
type Request struct {
	Query      model.LocationQuery
	Categories string
	Weeks      int
}

// Result is the outcome of Acquire.
type Result struct {
	Events []model.NormalizedEvent
	Origin Origin
	// Reason is set when Origin is OriginFallback.
	Reason string
	// ProviderCount and RelevantCount describe the provider batch, if any.
	ProviderCount int
	RelevantCount int
}

// Acquirer runs provider lookup, relevance gating, synthesis and
// normalization.
type Acquirer struct {
	source     Source
	normalizer *Normalizer
	rnd        *rand.Rand
	now        func() time.Time
}

// NewAcquirer wires the pipeline. source may be nil, in which case every
// request is synthesized. rnd must be safe for concurrent use when the
// Acquirer is shared (see NewSharedRand).
func NewAcquirer(source Source, normalizer *Normalizer, rnd *rand.Rand, now func() time.Time) *Acquirer {
	if normalizer == nil {
		normalizer = NewNormalizer(time.Local)
	}
	if rnd == nil {
		rnd = NewSharedRand(NewSeed())
	}
	if now == nil {
		now = time.Now
	}
	return &Acquirer{source: source, normalizer: normalizer, rnd: rnd, now: now}
}

// Acquire returns normalized events for req. Provider failures never
// surface: they are logged and answered with synthesized events.
func (a *Acquirer) Acquire(ctx context.Context, req Request) Result {
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	if weeks > model.MaxWeeks {
		weeks = model.MaxWeeks
	}

	if a.source == nil {
		return a.fallback(req, weeks, ReasonNoSource, 0, 0)
	}

	raw, err := a.source.Search(ctx, req.Query, req.Categories, weeks)
	if err != nil {
		reason := ReasonProviderErr
		if errors.Is(err, predicthq.ErrUnauthorized) {
			reason = ReasonUnauthorized
			appLog.Error("provider authentication failed; falling back to synthesized events", err,
				"remediation", "check PREDICTHQ_TOKEN is a valid, unexpired access token",
			)
		} else {
			appLog.Error("provider request failed; falling back to synthesized events", err,
				"location_within", req.Query.String(),
			)
		}
		return a.fallback(req, weeks, reason, 0, 0)
	}

	kept, sufficient := FilterRelevant(raw, req.Query)
	appLog.Info("relevance filter",
		"provider_count", len(raw),
		"relevant_count", len(kept),
		"threshold_deg", ProximityThresholdDeg,
		"min_events", MinRelevantEvents,
		"sufficient", sufficient,
	)
	if !sufficient {
		return a.fallback(req, weeks, ReasonIrrelevant, len(raw), len(kept))
	}

	return Result{
		Events:        a.normalizer.NormalizeRaw(kept),
		Origin:        OriginProvider,
		ProviderCount: len(raw),
		RelevantCount: len(kept),
	}
}

func (a *Acquirer) fallback(req Request, weeks int, reason string, providerCount, relevantCount int) Result {
	city := req.Query.CityName
	cats := model.SplitCategories(req.Categories)
	synthetic := Synthesize(a.rnd, a.now().In(a.normalizer.location()), city, cats, weeks)

	appLog.Info("using synthesized events",
		"reason", reason,
		"city", city,
		"categories", cats,
		"weeks", weeks,
		"event_count", len(synthetic),
	)

	return Result{
		Events:        a.normalizer.NormalizeFallback(synthetic),
		Origin:        OriginFallback,
		Reason:        reason,
		ProviderCount: providerCount,
		RelevantCount: relevantCount,
	}
}
