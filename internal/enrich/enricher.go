package enrich

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/go-library-themes/internal/lastfm"
	"github.com/justestif/go-library-themes/internal/library"
	"github.com/justestif/go-library-themes/internal/musicbrainz"
	"github.com/justestif/go-library-themes/internal/spotify"
)

// Service names used for rate limiting and metrics.
const (
	ServiceMusicBrainz = "musicbrainz"
	ServiceLastFM      = "lastfm"
	ServiceSpotify     = "spotify"
)

// Request outcomes reported to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// RecordingSearcher abstracts the MusicBrainz client for testing.
type RecordingSearcher interface {
	SearchRecording(ctx context.Context, artist, title string) (*musicbrainz.Recording, error)
}

// TrackInfoFetcher abstracts the Last.fm client for testing.
type TrackInfoFetcher interface {
	GetTrackInfo(ctx context.Context, artist, track string) (lastfm.TrackInfo, error)
	GetArtistTags(ctx context.Context, artist string) ([]lastfm.Tag, error)
}

// PopularityFetcher abstracts the Spotify client for testing.
type PopularityFetcher interface {
	Popularity(ctx context.Context, artist, title string) (float64, error)
}

// Observer receives one call per external request.
type Observer interface {
	EnrichmentRequest(service, outcome string)
}

// Result is the outcome of enriching one track. Errors lists the services
// that failed; the attributes from the others are still present.
type Result struct {
	TrackID    string
	Attributes Attributes
	Errors     []error
}

// Degraded reports whether any service failed for this track.
func (r Result) Degraded() bool { return len(r.Errors) > 0 }

// Enricher queries the configured services for one track at a time. It is
// safe for concurrent use: the cache is guarded by a mutex and every service
// has one limiter shared by all callers.
type Enricher struct {
	musicbrainz    RecordingSearcher
	lastfm         TrackInfoFetcher
	lastfmFallback bool
	spotify        PopularityFetcher

	store    *Store
	observer Observer
	delay    time.Duration
	limiters map[string]*rate.Limiter
	log      *zap.Logger

	mu    sync.Mutex
	cache map[string]Attributes
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithMusicBrainz enables recording tag lookups.
func WithMusicBrainz(c RecordingSearcher) EnricherOption {
	return func(e *Enricher) { e.musicbrainz = c }
}

// WithLastFM enables track.getInfo lookups. With artistFallback, tracks
// without tags of their own get the artist's top tags.
func WithLastFM(c TrackInfoFetcher, artistFallback bool) EnricherOption {
	return func(e *Enricher) {
		e.lastfm = c
		e.lastfmFallback = artistFallback
	}
}

// WithSpotify enables popularity lookups.
func WithSpotify(c PopularityFetcher) EnricherOption {
	return func(e *Enricher) { e.spotify = c }
}

// WithStore adds a persistent cache consulted before the network.
func WithStore(s *Store) EnricherOption {
	return func(e *Enricher) { e.store = s }
}

// WithObserver reports each external request.
func WithObserver(o Observer) EnricherOption {
	return func(e *Enricher) { e.observer = o }
}

// WithRateLimit sets the minimum spacing between requests to one service.
func WithRateLimit(delay time.Duration) EnricherOption {
	return func(e *Enricher) {
		if delay > 0 {
			e.delay = delay
		}
	}
}

// NewEnricher creates an Enricher. With no services configured it only
// derives features from tags it never fetches, so every track gets the
// neutral discovery score.
func NewEnricher(log *zap.Logger, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		delay: 500 * time.Millisecond,
		log:   log.Named("enrich"),
		cache: make(map[string]Attributes),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.limiters = map[string]*rate.Limiter{
		ServiceMusicBrainz: rate.NewLimiter(rate.Every(e.delay), 1),
		ServiceLastFM:      rate.NewLimiter(rate.Every(e.delay), 1),
		ServiceSpotify:     rate.NewLimiter(rate.Every(e.delay), 1),
	}
	return e
}

// Enabled reports whether at least one external service is configured.
func (e *Enricher) Enabled() bool {
	return e.musicbrainz != nil || e.lastfm != nil || e.spotify != nil
}

// Enrich returns enrichment attributes for t. It never fails: service errors
// are collected in Result.Errors and the track keeps whatever was fetched.
func (e *Enricher) Enrich(ctx context.Context, t library.Track) Result {
	res := Result{TrackID: t.ID, Attributes: Attributes{}}

	artist, title := strings.TrimSpace(t.Artist), strings.TrimSpace(t.Title)
	if artist == "" || title == "" {
		return res
	}

	if attrs, ok := e.cached(t.ID); ok {
		res.Attributes = attrs.Clone()
		return res
	}

	raw := Attributes{}
	if e.musicbrainz != nil {
		if err := e.fromMusicBrainz(ctx, raw, artist, title); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
	if e.lastfm != nil {
		if err := e.fromLastFM(ctx, raw, artist, title); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}
	if e.spotify != nil {
		if err := e.fromSpotify(ctx, raw, artist, title); err != nil {
			res.Errors = append(res.Errors, err)
		}
	}

	if ctx.Err() != nil {
		return Result{TrackID: t.ID, Attributes: Attributes{}, Errors: []error{ctx.Err()}}
	}

	for k, v := range DeriveFeatures(raw, t) {
		raw[k] = v
	}
	res.Attributes = raw.Clone()

	e.mu.Lock()
	e.cache[t.ID] = raw
	e.mu.Unlock()

	if e.store != nil && !res.Degraded() {
		if err := e.store.Put(t.ID, raw); err != nil {
			e.log.Debug("persisting enrichment", zap.String("track_id", t.ID), zap.Error(err))
		}
	}

	e.log.Debug("track enriched",
		zap.String("track_id", t.ID),
		zap.Int("fields", len(raw)),
		zap.Int("failed_services", len(res.Errors)),
	)
	return res
}

// ClearCache drops the in-process cache.
func (e *Enricher) ClearCache() {
	e.mu.Lock()
	clear(e.cache)
	e.mu.Unlock()
}

func (e *Enricher) cached(id string) (Attributes, bool) {
	e.mu.Lock()
	attrs, ok := e.cache[id]
	e.mu.Unlock()
	if ok {
		return attrs, true
	}

	if e.store == nil {
		return nil, false
	}
	attrs, ok = e.store.Get(id)
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	e.cache[id] = attrs
	e.mu.Unlock()
	return attrs, true
}

// wait blocks until the service's limiter admits a request.
func (e *Enricher) wait(ctx context.Context, service string) error {
	return e.limiters[service].Wait(ctx)
}

func (e *Enricher) observe(service string, err error, notFound ...error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		for _, nf := range notFound {
			if errors.Is(err, nf) {
				outcome = OutcomeNotFound
			}
		}
	}
	if e.observer != nil {
		e.observer.EnrichmentRequest(service, outcome)
	}
}

func (e *Enricher) fromMusicBrainz(ctx context.Context, attrs Attributes, artist, title string) error {
	if err := e.wait(ctx, ServiceMusicBrainz); err != nil {
		return err
	}

	rec, err := e.musicbrainz.SearchRecording(ctx, artist, title)
	e.observe(ServiceMusicBrainz, err, musicbrainz.ErrNotFound)
	if errors.Is(err, musicbrainz.ErrNotFound) {
		return nil
	}
	if err != nil {
		e.log.Debug("musicbrainz lookup failed", zap.String("artist", artist), zap.String("title", title), zap.Error(err))
		return err
	}

	var tags []string
	for _, tag := range rec.Tags {
		if tag.Count > 0 && tag.Name != "" {
			tags = append(tags, strings.ToLower(tag.Name))
		}
	}
	if len(tags) > 0 {
		categorize(attrs, "mb_", tags)
		attrs["mb_primary_genre"] = tags[0]
	}
	if rec.ReleaseType != "" {
		attrs["mb_release_type"] = rec.ReleaseType
	}
	if rec.ArtistCountry != "" {
		attrs["mb_artist_country"] = rec.ArtistCountry
	}
	return nil
}

func (e *Enricher) fromLastFM(ctx context.Context, attrs Attributes, artist, title string) error {
	if err := e.wait(ctx, ServiceLastFM); err != nil {
		return err
	}

	info, err := e.lastfm.GetTrackInfo(ctx, artist, title)
	e.observe(ServiceLastFM, err, lastfm.ErrNotFound)
	if err != nil && !errors.Is(err, lastfm.ErrNotFound) {
		e.log.Debug("lastfm lookup failed", zap.String("artist", artist), zap.String("title", title), zap.Error(err))
		return err
	}

	tagList := info.Tags
	if len(tagList) == 0 && e.lastfmFallback {
		if err := e.wait(ctx, ServiceLastFM); err != nil {
			return err
		}
		tagList, err = e.lastfm.GetArtistTags(ctx, artist)
		e.observe(ServiceLastFM, err)
		if err != nil {
			return err
		}
	}

	var tags []string
	for _, tag := range tagList {
		name := strings.ToLower(tag.Name)
		if len(name) > 1 {
			tags = append(tags, name)
		}
	}
	if len(tags) > 0 {
		categorize(attrs, "lastfm_", tags)
		attrs["lastfm_primary_tag"] = tags[0]
	}

	if info.Name != "" {
		attrs["lastfm_playcount"] = info.Playcount
		attrs["lastfm_popularity"] = math.Min(1, math.Log10(math.Max(1, float64(info.Playcount)))/7)
		attrs["lastfm_listeners"] = info.Listeners
		attrs["lastfm_reach"] = math.Min(1, math.Log10(math.Max(1, float64(info.Listeners)))/6)
	}
	return nil
}

func (e *Enricher) fromSpotify(ctx context.Context, attrs Attributes, artist, title string) error {
	if err := e.wait(ctx, ServiceSpotify); err != nil {
		return err
	}

	p, err := e.spotify.Popularity(ctx, artist, title)
	e.observe(ServiceSpotify, err, spotify.ErrNoMatch)
	if errors.Is(err, spotify.ErrNoMatch) {
		return nil
	}
	if err != nil {
		e.log.Debug("spotify lookup failed", zap.String("artist", artist), zap.String("title", title), zap.Error(err))
		return err
	}
	attrs["spotify_popularity"] = p
	return nil
}
