package config

import (
	"slices"

	"go.uber.org/zap"
)

var cacheSizeOptions = []int{50, 100, 500}

// Validate clamps out-of-range values to their nearest bound, or resets
// invalid enumerations to the default, logging every correction.
func (c *Config) Validate(log *zap.Logger) {
	a := &c.AdvancedAnalysis
	a.SampleDuration = clampInt(log, "advanced_analysis.sample_duration", a.SampleDuration, 10, 120)
	a.AnalysisTimeout = clampInt(log, "advanced_analysis.analysis_timeout", a.AnalysisTimeout, 60, 600)
	a.ParallelWorkers = clampInt(log, "advanced_analysis.parallel_workers", a.ParallelWorkers, 1, 8)
	if a.AudioAnalysis {
		log.Warn("audio analysis is not available in this build, ignoring",
			zap.String("key", "advanced_analysis.audio_analysis"))
		a.AudioAnalysis = false
	}

	cl := &c.Clustering
	switch cl.Algorithm {
	case AlgorithmAuto, AlgorithmKMeans:
	case AlgorithmHierarchical, AlgorithmDBSCAN:
		log.Warn("clustering algorithm not supported, using auto", zap.String("algorithm", cl.Algorithm))
		cl.Algorithm = AlgorithmAuto
	default:
		log.Warn("unknown clustering algorithm, using auto", zap.String("algorithm", cl.Algorithm))
		cl.Algorithm = AlgorithmAuto
	}
	cl.MinClusters = clampInt(log, "clustering.min_clusters", cl.MinClusters, 2, 50)
	cl.MaxClusters = clampInt(log, "clustering.max_clusters", cl.MaxClusters, cl.MinClusters, 50)
	cl.RequestedThemes = clampInt(log, "clustering.requested_themes", cl.RequestedThemes, cl.MinClusters, cl.MaxClusters)

	ca := &c.Cache
	if !slices.Contains(cacheSizeOptions, ca.MaxSizeMB) {
		log.Warn("invalid cache size, using 100MB", zap.Int("max_size_mb", ca.MaxSizeMB))
		ca.MaxSizeMB = 100
	}
	ca.FeatureCacheDays = clampInt(log, "cache.feature_cache_days", ca.FeatureCacheDays, 1, 365)

	es := &c.ExternalServices
	es.RateLimitDelay = clampFloat(log, "external_services.rate_limit_delay", es.RateLimitDelay, 0.1, 5)
	es.RequestTimeout = clampInt(log, "external_services.request_timeout", es.RequestTimeout, 1, 60)

	lib := &c.Library
	switch lib.Source {
	case SourceSubsonic, SourceDatabase, SourceFiles:
	default:
		log.Warn("unknown library source, using subsonic", zap.String("source", lib.Source))
		lib.Source = SourceSubsonic
	}
	switch lib.Database.Driver {
	case "sqlite3", "pgx":
	default:
		log.Warn("unknown database driver, using sqlite3", zap.String("driver", lib.Database.Driver))
		lib.Database.Driver = "sqlite3"
	}
}

func clampInt(log *zap.Logger, key string, v, lo, hi int) int {
	switch {
	case v < lo:
		log.Warn("config value below range, clamped", zap.String("key", key), zap.Int("value", v), zap.Int("min", lo))
		return lo
	case v > hi:
		log.Warn("config value above range, clamped", zap.String("key", key), zap.Int("value", v), zap.Int("max", hi))
		return hi
	}
	return v
}

func clampFloat(log *zap.Logger, key string, v, lo, hi float64) float64 {
	switch {
	case v < lo:
		log.Warn("config value below range, clamped", zap.String("key", key), zap.Float64("value", v), zap.Float64("min", lo))
		return lo
	case v > hi:
		log.Warn("config value above range, clamped", zap.String("key", key), zap.Float64("value", v), zap.Float64("max", hi))
		return hi
	}
	return v
}
