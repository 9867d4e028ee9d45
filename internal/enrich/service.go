package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-library-themes/internal/library"
)

// DefaultWorkers is the number of concurrent enrichment workers.
const DefaultWorkers = 1

// TrackEnricher enriches a single track.
type TrackEnricher interface {
	Enrich(ctx context.Context, t library.Track) Result
}

// ProgressFunc is called after each track with the number completed so far.
type ProgressFunc func(done, total int)

// Service enriches batches of tracks with a fixed-size worker pool.
type Service struct {
	enricher TrackEnricher
	workers  int
	log      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService creates a batch enrichment service.
func NewService(enricher TrackEnricher, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		enricher: enricher,
		workers:  DefaultWorkers,
		log:      log.Named("enrich"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnrichAll enriches tracks concurrently. Results are returned in input order.
// Per-track failures are captured in Result.Errors rather than failing the
// batch. If ctx ends first, the unprocessed tracks carry ctx.Err() and the
// same error is returned alongside the partial results.
func (s *Service) EnrichAll(ctx context.Context, tracks []library.Track, progress ProgressFunc) ([]Result, error) {
	if len(tracks) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, len(tracks))

	type workItem struct {
		index int
		track library.Track
	}
	workCh := make(chan workItem, len(tracks))
	for i, t := range tracks {
		workCh <- workItem{index: i, track: t}
	}
	close(workCh)

	var (
		mu   sync.Mutex
		done int
	)

	// Workers drain the queue even after ctx ends, so every slot is filled,
	// and then report the stop reason.
	g, gctx := errgroup.WithContext(ctx)
	for range min(s.workers, len(tracks)) {
		g.Go(func() error {
			for work := range workCh {
				if err := gctx.Err(); err != nil {
					results[work.index] = Result{
						TrackID:    work.track.ID,
						Attributes: Attributes{},
						Errors:     []error{err},
					}
					continue
				}

				results[work.index] = s.enricher.Enrich(gctx, work.track)

				mu.Lock()
				done++
				if progress != nil && gctx.Err() == nil {
					progress(done, len(tracks))
				}
				mu.Unlock()
			}
			return gctx.Err()
		})
	}
	err := g.Wait()

	degraded := 0
	for _, r := range results {
		if r.Degraded() {
			degraded++
		}
	}
	s.log.Info("enrichment finished",
		zap.Int("tracks", len(tracks)),
		zap.Int("degraded", degraded),
		zap.Int("workers", s.workers),
	)

	return results, err
}
