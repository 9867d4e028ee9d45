package themes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/clustering"
	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/features"
	"github.com/justestif/go-library-themes/internal/library"
	"github.com/justestif/go-library-themes/internal/naming"
	"github.com/justestif/go-library-themes/internal/sampling"
)

// Progress percentages reported by Discover.
const (
	ProgressConnecting = 0
	ProgressFetched    = 10
	ProgressAnalyzing  = 25
	ProgressClustering = 75
	ProgressNaming     = 85
	ProgressFinalizing = 90
	ProgressDone       = 100
	ProgressError      = -1
)

// Run outcomes passed to Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// ProgressFunc receives stage messages with a percentage, or -1 on error.
type ProgressFunc func(message string, percent int)

// BatchEnricher enriches many tracks at once.
type BatchEnricher interface {
	EnrichAll(ctx context.Context, tracks []library.Track, progress enrich.ProgressFunc) ([]enrich.Result, error)
}

// Recorder observes discovery runs and cache lookups.
type Recorder interface {
	DiscoveryFinished(outcome string, elapsed time.Duration)
	CacheLookup(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) DiscoveryFinished(string, time.Duration) {}
func (nopRecorder) CacheLookup(bool)                        {}

// Engine runs the discovery pipeline: fetch, enrich, extract, cluster, name,
// cache. It holds no per-run state; callers must not run Discover twice at
// the same time on one cache.
type Engine struct {
	source      library.Source
	cache       *Cache
	enricher    BatchEnricher
	sampler     *sampling.Strategist
	timeout     time.Duration
	clustering  clustering.Options
	reset       func() error
	partitioner *clustering.Partitioner
	namer       *naming.Namer
	recorder    Recorder
	now         func() time.Time
	log         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnrichment turns on metadata enrichment. timeout bounds the whole
// enrichment stage; zero means no bound.
func WithEnrichment(b BatchEnricher, s *sampling.Strategist, timeout time.Duration) Option {
	return func(e *Engine) {
		e.enricher = b
		e.sampler = s
		e.timeout = timeout
	}
}

// WithClustering sets the clustering options.
func WithClustering(opts clustering.Options) Option {
	return func(e *Engine) {
		e.clustering = opts
	}
}

// WithAnalysisReset runs reset once the library has loaded, before
// enrichment starts. The theme cache is left alone; a successful run
// replaces it.
func WithAnalysisReset(reset func() error) Option {
	return func(e *Engine) {
		e.reset = reset
	}
}

// WithRecorder reports runs and cache lookups to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// NewEngine creates an Engine reading tracks from source.
func NewEngine(source library.Source, cache *Cache, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		cache:  cache,
		clustering: clustering.Options{
			Algorithm: clustering.AlgorithmAuto,
			Requested: 15,
			Seed:      42,
		},
		recorder: nopRecorder{},
		now:      time.Now,
		log:      log.Named("themes"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.enricher != nil && e.sampler == nil {
		e.sampler = sampling.New(false, e.clustering.Seed, log)
	}
	e.partitioner = clustering.New(e.clustering, log)
	e.namer = naming.New(log)
	return e
}

// Cached returns the cached themes if a valid entry exists.
func (e *Engine) Cached() ([]Theme, bool) {
	entry, err := e.cache.Load()
	if err != nil {
		e.log.Warn("reading theme cache", zap.Error(err))
	}
	hit := err == nil && entry != nil
	e.recorder.CacheLookup(hit)
	if !hit {
		return nil, false
	}
	return entry.Themes, true
}

// ClearCache deletes the cached themes.
func (e *Engine) ClearCache() error {
	return e.cache.Clear()
}

// Discover runs the full pipeline. Only an unreachable library or a
// cancelled ctx is returned as an error; a cancelled run reports no further
// progress and returns no themes. Everything else degrades into Result.
func (e *Engine) Discover(ctx context.Context, progress ProgressFunc) (Result, error) {
	start := e.now()
	emit := func(message string, percent int) {
		if progress != nil && ctx.Err() == nil {
			progress(message, percent)
		}
	}

	res, err := e.discover(ctx, emit)
	elapsed := e.now().Sub(start)

	switch {
	case ctx.Err() != nil:
		e.recorder.DiscoveryFinished(OutcomeCanceled, elapsed)
		e.log.Info("discovery cancelled", zap.Duration("elapsed", elapsed))
		return Result{}, ctx.Err()
	case err != nil:
		e.recorder.DiscoveryFinished(OutcomeError, elapsed)
		e.log.Error("discovery failed", zap.Error(err))
		emit(err.Error(), ProgressError)
		return Result{}, err
	case len(res.Themes) == 0:
		e.recorder.DiscoveryFinished(OutcomeEmpty, elapsed)
	default:
		e.recorder.DiscoveryFinished(OutcomeOK, elapsed)
	}

	e.log.Info("discovery finished",
		zap.Int("themes", len(res.Themes)),
		zap.Strings("degraded", res.Degraded),
		zap.Duration("elapsed", elapsed))
	return res, nil
}

func (e *Engine) discover(ctx context.Context, emit ProgressFunc) (Result, error) {
	res := Result{Themes: []Theme{}}

	emit("Connecting to library", ProgressConnecting)
	tracks, err := e.source.Tracks(ctx)
	if err != nil {
		return res, fmt.Errorf("loading library: %w", err)
	}
	emit(fmt.Sprintf("Loaded %d tracks", len(tracks)), ProgressFetched)

	if len(tracks) < features.MinTracks {
		res.Notice = fmt.Sprintf("Need at least %d tracks to discover themes, found %d", features.MinTracks, len(tracks))
		emit(res.Notice, ProgressDone)
		return res, nil
	}

	if e.reset != nil && e.enricher != nil {
		if err := e.reset(); err != nil {
			e.log.Warn("clearing old analysis data", zap.Error(err))
			res.Degraded = append(res.Degraded, "old analysis data was not cleared")
		}
	}

	attrs, notes := e.enrichTracks(ctx, tracks, emit)
	res.Degraded = append(res.Degraded, notes...)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	emit("Grouping similar tracks", ProgressClustering)
	extracted, err := features.Extract(tracks, attrs)
	if err != nil {
		res.Notice = err.Error()
		return res, nil
	}
	if n := len(extracted.Degraded); n > 0 {
		res.Degraded = append(res.Degraded, fmt.Sprintf("%d tracks used default features", n))
	}

	groups, err := e.partitioner.Partition(extracted.Vectors)
	if err != nil {
		e.log.Warn("clustering failed", zap.Error(err))
		res.Degraded = append(res.Degraded, "clustering failed")
		res.Notice = "No themes could be formed from this library"
		emit(res.Notice, ProgressDone)
		return res, nil
	}
	groups = clustering.Select(groups, clustering.MinClusterSize, clustering.MaxGroups)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	emit("Naming themes", ProgressNaming)
	created := e.now().Unix()
	taken := make(map[string]bool, len(groups))
	for _, g := range groups {
		members := make([]naming.Member, len(g.Members))
		enriched := make([]EnrichedTrack, len(g.Members))
		for i, idx := range g.Members {
			members[i] = naming.Member{Track: tracks[idx], Attributes: attrs[idx]}
			enriched[i] = EnrichedTrack{Track: tracks[idx], Enrichment: attrs[idx]}
		}
		n := e.namer.NameDistinct(g.Label, members, taken)
		taken[n.Name] = true
		res.Themes = append(res.Themes, Theme{
			ID:              fmt.Sprintf("theme_%d", g.Label),
			Name:            n.Name,
			Description:     n.Description,
			Tracks:          enriched,
			TrackCount:      len(enriched),
			Characteristics: n.Characteristics,
			CreatedAt:       created,
		})
	}
	if len(res.Themes) == 0 {
		res.Notice = "No group of similar tracks was large enough to form a theme"
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	emit("Saving themes", ProgressFinalizing)
	if err := e.cache.Save(res.Themes); err != nil {
		e.log.Warn("saving theme cache", zap.Error(err))
		res.Degraded = append(res.Degraded, "themes were not cached")
	}

	emit(fmt.Sprintf("Discovered %d themes", len(res.Themes)), ProgressDone)
	return res, nil
}

// enrichTracks returns one attribute set per track. Running out of analysis
// time keeps whatever finished.
func (e *Engine) enrichTracks(ctx context.Context, tracks []library.Track, emit ProgressFunc) ([]enrich.Attributes, []string) {
	if e.enricher == nil {
		return make([]enrich.Attributes, len(tracks)), nil
	}

	indices, sampled := e.sampler.Plan(tracks)
	subset := make([]library.Track, len(indices))
	for i, idx := range indices {
		subset[i] = tracks[idx]
	}
	if sampled {
		emit(fmt.Sprintf("Analyzing a sample of %d of %d tracks", len(subset), len(tracks)), ProgressAnalyzing)
	} else {
		emit(fmt.Sprintf("Analyzing %d tracks", len(subset)), ProgressAnalyzing)
	}

	ectx, cancel := ctx, context.CancelFunc(func() {})
	if e.timeout > 0 {
		ectx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	span := ProgressClustering - ProgressAnalyzing - 5
	results, err := e.enricher.EnrichAll(ectx, subset, func(done, total int) {
		emit(fmt.Sprintf("Analyzed %d of %d tracks", done, total), ProgressAnalyzing+span*done/total)
	})

	var notes []string
	if err != nil && ctx.Err() == nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e.log.Warn("enrichment timed out, continuing with partial results", zap.Duration("timeout", e.timeout))
			notes = append(notes, "enrichment timed out")
		} else {
			e.log.Warn("enrichment stopped early", zap.Error(err))
			notes = append(notes, "enrichment stopped early")
		}
	}

	sampleAttrs := make([]enrich.Attributes, len(indices))
	failed := 0
	for i := range indices {
		if i >= len(results) {
			continue
		}
		if results[i].Degraded() {
			failed++
		}
		if len(results[i].Attributes) > 0 {
			sampleAttrs[i] = results[i].Attributes
		}
	}
	if failed > 0 {
		notes = append(notes, fmt.Sprintf("%d tracks had enrichment errors", failed))
	}

	return sampling.Propagate(tracks, indices, sampleAttrs), notes
}
