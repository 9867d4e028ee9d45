package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/clustering"
	"github.com/justestif/go-library-themes/internal/config"
	"github.com/justestif/go-library-themes/internal/db"
	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/lastfm"
	"github.com/justestif/go-library-themes/internal/library"
	"github.com/justestif/go-library-themes/internal/logging"
	"github.com/justestif/go-library-themes/internal/metrics"
	"github.com/justestif/go-library-themes/internal/musicbrainz"
	"github.com/justestif/go-library-themes/internal/sampling"
	"github.com/justestif/go-library-themes/internal/spotify"
	"github.com/justestif/go-library-themes/internal/subsonic"
	"github.com/justestif/go-library-themes/internal/tagscan"
	"github.com/justestif/go-library-themes/internal/themes"
)

// app holds everything a command needs.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	engine   *themes.Engine
	store    *enrich.Store
	registry *prometheus.Registry
	closers  []func() error
}

func newApp(ctx context.Context, c *cli.Context) (*app, error) {
	boot, err := logging.New("warn", false)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	cfg := config.Load(c.String("config"), boot)

	level := cfg.Logging.Level
	if l := c.String("log-level"); l != "" {
		level = l
	}
	log, err := logging.New(level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	cfg.Validate(log)

	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.registry)

	source, err := a.source(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cacheDir, err := cfg.CacheDir()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}

	opts := []themes.Option{
		themes.WithClustering(clustering.Options{
			Algorithm: cfg.Clustering.Algorithm,
			Requested: cfg.Clustering.RequestedThemes,
			Seed:      cfg.Clustering.Seed,
		}),
		themes.WithRecorder(m),
	}
	if service, reset := a.enrichment(ctx, cacheDir, m); service != nil {
		strategist := sampling.New(cfg.AdvancedAnalysis.SmartSampling, cfg.Clustering.Seed, log)
		opts = append(opts, themes.WithEnrichment(service, strategist, cfg.AnalysisTimeout()))
		if cfg.Cache.ClearOnAnalysis {
			opts = append(opts, themes.WithAnalysisReset(reset))
		}
	}

	a.engine = themes.NewEngine(source, themes.NewCache(cacheDir, log), log, opts...)
	return a, nil
}

// Close releases open handles and flushes the logger.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("closing resource", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.log.Sync()
}

func (a *app) source(ctx context.Context) (library.Source, error) {
	lib := a.cfg.Library
	switch lib.Source {
	case config.SourceSubsonic:
		client := subsonic.NewClient(subsonic.Config{
			URL:      lib.Subsonic.URL,
			Username: lib.Subsonic.Username,
			Password: lib.Subsonic.Password,
			Timeout:  a.cfg.RequestTimeout(),
		})
		return subsonic.NewSource(client, a.log), nil

	case config.SourceDatabase:
		database, err := db.New(ctx, lib.Database.Driver, lib.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to library database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		return db.NewSource(database), nil

	case config.SourceFiles:
		return tagscan.NewScanner(lib.Files.Dir, a.log), nil
	}
	return nil, fmt.Errorf("unknown library source %q", lib.Source)
}

// enrichment returns a nil service when advanced analysis is off or no
// service is usable. reset drops every cached enrichment result.
func (a *app) enrichment(ctx context.Context, cacheDir string, observer enrich.Observer) (service *enrich.Service, reset func() error) {
	cfg := a.cfg
	if !cfg.AdvancedAnalysis.Enabled {
		return nil, nil
	}
	services := cfg.ExternalServices
	timeout := cfg.RequestTimeout()

	opts := []enrich.EnricherOption{
		enrich.WithObserver(observer),
		enrich.WithRateLimit(cfg.RateLimitDelay()),
	}
	if services.MusicBrainzEnabled {
		opts = append(opts, enrich.WithMusicBrainz(musicbrainz.NewClient(services.ContactEmail, timeout)))
	}

	lfm, err := lastfm.LoadConfig(services.LastFMAPIKey, timeout)
	switch {
	case err == nil:
		opts = append(opts, enrich.WithLastFM(lastfm.NewClient(lfm), services.LastFMFallback))
	case errors.Is(err, lastfm.ErrMissingAPIKey):
		a.log.Info("last.fm disabled: no API key")
	default:
		a.log.Warn("last.fm disabled", zap.Error(err))
	}

	if services.SpotifyEnabled {
		sp, err := spotify.NewWithCredentials(ctx, services.SpotifyClientID, services.SpotifyClientSecret)
		if err != nil {
			a.log.Warn("spotify disabled", zap.Error(err))
		} else {
			opts = append(opts, enrich.WithSpotify(sp))
		}
	}

	store, err := enrich.OpenStore(filepath.Join(cacheDir, "enrichment"), cfg.FeatureCacheTTL(), cfg.Cache.MaxSizeMB, a.log)
	if err != nil {
		a.log.Warn("enrichment store unavailable, using memory only", zap.Error(err))
	} else {
		a.store = store
		a.closers = append(a.closers, store.Close)
		opts = append(opts, enrich.WithStore(store))
	}

	enricher := enrich.NewEnricher(a.log, opts...)
	if !enricher.Enabled() {
		a.log.Info("advanced analysis enabled but no metadata service is configured")
		return nil, nil
	}
	reset = func() error {
		enricher.ClearCache()
		if a.store == nil {
			return nil
		}
		return a.store.Clear()
	}
	return enrich.NewService(enricher, a.log, enrich.WithWorkers(cfg.AdvancedAnalysis.ParallelWorkers)), reset
}

// clearEnrichmentStore wipes persisted enrichment even when advanced
// analysis is switched off and the store was never opened.
func (a *app) clearEnrichmentStore() error {
	store := a.store
	if store == nil {
		cacheDir, err := a.cfg.CacheDir()
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		store, err = enrich.OpenStore(filepath.Join(cacheDir, "enrichment"), a.cfg.FeatureCacheTTL(), a.cfg.Cache.MaxSizeMB, a.log)
		if err != nil {
			return fmt.Errorf("opening enrichment store: %w", err)
		}
		defer store.Close()
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing enrichment store: %w", err)
	}
	return nil
}
