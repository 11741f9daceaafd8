package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"animehub/internal/metrics"
	"animehub/pkg/models"
)

type HydrateOptions struct {
	BatchSize int
	Delay     time.Duration
}

func DefaultHydrateOptions() HydrateOptions {
	return HydrateOptions{BatchSize: 5, Delay: 500 * time.Millisecond}
}

// LookupFunc resolves one id; Pipeline.LookupByID satisfies it.
type LookupFunc func(ctx context.Context, id int) (models.CanonicalAnime, bool)

// Hydrate resolves ids in fixed-size batches with a pause between batches.
// Lookups inside a batch run concurrently. Ids that resolve to nothing are
// dropped; the rest keep their input order. Cancelling ctx stops before the
// next batch and returns what was resolved so far.
func Hydrate(ctx context.Context, lookup LookupFunc, ids []int, opts HydrateOptions) []models.CanonicalAnime {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	out := make([]models.CanonicalAnime, 0, len(ids))

	for start := 0; start < len(ids); start += opts.BatchSize {
		if start > 0 && opts.Delay > 0 {
			t := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return out
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			return out
		}

		end := min(start+opts.BatchSize, len(ids))
		batch := ids[start:end]
		found := make([]*models.CanonicalAnime, len(batch))

		var g errgroup.Group
		for i, id := range batch {
			g.Go(func() error {
				if a, ok := lookup(ctx, id); ok {
					found[i] = &a
				}
				return nil
			})
		}
		_ = g.Wait()

		for _, a := range found {
			if a == nil {
				metrics.HydrateDropped.Inc()
				continue
			}
			out = append(out, *a)
		}
	}
	return out
}
