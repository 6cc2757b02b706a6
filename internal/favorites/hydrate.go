package favorites

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rizwanabrish101/shayari/internal/domain"
	"github.com/rizwanabrish101/shayari/internal/errors"
)

// hydrateConcurrency bounds in-flight content lookups per hydration.
const hydrateConcurrency = 8

// HydrationFailure records a favorite that could not be resolved.
type HydrationFailure struct {
	VerseID string
	Err     error
}

// HydrationReport is the outcome of hydrating a favorite list. Verses keeps
// the input order.
type HydrationReport struct {
	Verses []*domain.VerseWithPoet
	Failed []HydrationFailure
}

type hydration struct {
	verseID string
	verse   *domain.VerseWithPoet
	err     error
}

// Hydrate resolves every favorite through the content source. Lookups run
// concurrently; a failed lookup is reported in Failed and logged, never
// returned as an error.
func (r *Reconciler) Hydrate(ctx context.Context, favs []domain.Favorite) HydrationReport {
	results := make([]hydration, len(favs))

	var g errgroup.Group
	g.SetLimit(hydrateConcurrency)
	for i, fav := range favs {
		results[i].verseID = fav.VerseID
		g.Go(func() error {
			v, err := r.content.GetVerse(ctx, fav.VerseID)
			if err == nil && v == nil {
				err = errors.NotFoundf("verse %s not found", fav.VerseID)
			}
			results[i].verse, results[i].err = v, err
			return nil
		})
	}
	_ = g.Wait()

	report := partition(results)
	for _, f := range report.Failed {
		r.logger.Warn("skipping favorite that failed to hydrate",
			slog.String("verse_id", f.VerseID),
			slog.String("error", f.Err.Error()))
	}
	return report
}

func partition(results []hydration) HydrationReport {
	report := HydrationReport{Verses: make([]*domain.VerseWithPoet, 0, len(results))}
	for _, res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, HydrationFailure{VerseID: res.verseID, Err: res.err})
			continue
		}
		report.Verses = append(report.Verses, res.verse)
	}
	return report
}
