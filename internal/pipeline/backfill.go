package pipeline

import (
	"context"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// Outcome is what Backfill did with one record.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved" // live lookup succeeded
	OutcomeCached   Outcome = "cached"   // served from the geocode cache
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped" // already had coordinates
)

// BackfillSummary counts Backfill outcomes.
type BackfillSummary struct {
	Total    int
	Resolved int
	Cached   int
	Failed   int
	Skipped  int
}

func (s *BackfillSummary) add(o Outcome) {
	s.Total++
	switch o {
	case OutcomeResolved:
		s.Resolved++
	case OutcomeCached:
		s.Cached++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// Backfill resolves coordinates for every record that lacks them, or for every
// record when force is set. Resolved coordinates reach the location source
// through the resolver's write-back. onRecord, if non-nil, is called after each
// record. A cancelled context stops the run and returns the partial summary.
func (p *Pipeline) Backfill(ctx context.Context, force bool, onRecord func(domain.LocationRecord, Outcome)) (BackfillSummary, error) {
	var summary BackfillSummary

	records, _, err := p.records.Load(ctx)
	if err != nil {
		return summary, err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		outcome := p.backfillOne(ctx, rec, force)
		summary.add(outcome)
		if onRecord != nil {
			onRecord(rec, outcome)
		}
	}

	p.logger.Info("backfill complete",
		"total", summary.Total,
		"resolved", summary.Resolved,
		"cached", summary.Cached,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func (p *Pipeline) backfillOne(ctx context.Context, rec domain.LocationRecord, force bool) Outcome {
	if rec.HasCoordinates() && !force {
		return OutcomeSkipped
	}
	res, err := p.resolver.GetOrResolve(ctx, rec, force)
	if err != nil {
		p.logger.Warn("geocode lookup failed", "record", rec.ID, "error", err)
		return OutcomeFailed
	}
	if res.Source == domain.SourceCache {
		return OutcomeCached
	}
	return OutcomeResolved
}
