package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"animehub/pkg/models"
)

type batchRecorder struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    []int
}

func (b *batchRecorder) lookup(missing map[int]bool) LookupFunc {
	return func(ctx context.Context, id int) (models.CanonicalAnime, bool) {
		b.mu.Lock()
		b.inFlight++
		b.peak = max(b.peak, b.inFlight)
		b.calls = append(b.calls, id)
		b.mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		b.mu.Lock()
		b.inFlight--
		b.mu.Unlock()

		if missing[id] {
			return models.CanonicalAnime{}, false
		}
		return models.CanonicalAnime{ID: id}, true
	}
}

func ids(animes []models.CanonicalAnime) []int {
	out := make([]int, 0, len(animes))
	for _, a := range animes {
		out = append(out, a.ID)
	}
	return out
}

func TestHydratePreservesOrderAndDropsMisses(t *testing.T) {
	rec := &batchRecorder{}
	in := []int{9, 3, 7, 1, 5, 2, 8}

	out := Hydrate(context.Background(), rec.lookup(map[int]bool{7: true, 8: true}), in, HydrateOptions{BatchSize: 5})

	assert.Equal(t, []int{9, 3, 1, 5, 2}, ids(out))
	assert.Len(t, rec.calls, len(in))
	assert.LessOrEqual(t, rec.peak, 5)
}

func TestHydrateDelaysBetweenBatches(t *testing.T) {
	rec := &batchRecorder{}
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	start := time.Now()
	out := Hydrate(context.Background(), rec.lookup(nil), in, HydrateOptions{BatchSize: 5, Delay: 40 * time.Millisecond})
	elapsed := time.Since(start)

	assert.Len(t, out, 11)
	// three batches, two pauses
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestHydrateStopsOnCancel(t *testing.T) {
	rec := &batchRecorder{}
	ctx, cancel := context.WithCancel(context.Background())

	lookup := rec.lookup(nil)
	out := Hydrate(ctx, func(ctx context.Context, id int) (models.CanonicalAnime, bool) {
		if id == 2 {
			cancel()
		}
		return lookup(ctx, id)
	}, []int{1, 2, 3, 4}, HydrateOptions{BatchSize: 2, Delay: time.Second})

	assert.Equal(t, []int{1, 2}, ids(out))
	assert.Len(t, rec.calls, 2)
}

func TestHydrateEmpty(t *testing.T) {
	out := Hydrate(context.Background(), nil, nil, DefaultHydrateOptions())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
