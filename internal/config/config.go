// Package config loads the theme discovery settings: a typed schema merged
// over documented defaults, with out-of-range values clamped on validation.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const appDirName = "library-themes"

// Clustering algorithms accepted in clustering.algorithm.
const (
	AlgorithmAuto         = "auto"
	AlgorithmKMeans       = "kmeans"
	AlgorithmHierarchical = "hierarchical"
	AlgorithmDBSCAN       = "dbscan"
)

// Library sources accepted in library.source.
const (
	SourceSubsonic = "subsonic"
	SourceDatabase = "database"
	SourceFiles    = "files"
)

// Config is the full settings tree.
type Config struct {
	AdvancedAnalysis AdvancedAnalysis `mapstructure:"advanced_analysis"`
	Clustering       Clustering       `mapstructure:"clustering"`
	Cache            Cache            `mapstructure:"cache"`
	ExternalServices ExternalServices `mapstructure:"external_services"`
	AudioFeatures    AudioFeatures    `mapstructure:"audio_features"`
	Library          Library          `mapstructure:"library"`
	Logging          Logging          `mapstructure:"logging"`
	Server           Server           `mapstructure:"server"`

	// Extra keeps top-level keys this schema does not know about.
	Extra map[string]any `mapstructure:",remain"`
}

type AdvancedAnalysis struct {
	Enabled         bool `mapstructure:"enabled"`
	AudioAnalysis   bool `mapstructure:"audio_analysis"`
	SampleDuration  int  `mapstructure:"sample_duration"`  // seconds
	AnalysisTimeout int  `mapstructure:"analysis_timeout"` // seconds
	ParallelWorkers int  `mapstructure:"parallel_workers"`
	SmartSampling   bool `mapstructure:"smart_sampling"`
}

type Clustering struct {
	Algorithm       string `mapstructure:"algorithm"`
	UserChoice      bool   `mapstructure:"user_choice"`
	MinClusters     int    `mapstructure:"min_clusters"`
	MaxClusters     int    `mapstructure:"max_clusters"`
	RequestedThemes int    `mapstructure:"requested_themes"`
	Seed            int64  `mapstructure:"seed"`
}

type Cache struct {
	MaxSizeMB          int    `mapstructure:"max_size_mb"`
	ClearOnAnalysis    bool   `mapstructure:"clear_on_analysis"`
	FeatureCacheDays   int    `mapstructure:"feature_cache_days"`
	AudioFeaturesCache bool   `mapstructure:"audio_features_cache"`
	Dir                string `mapstructure:"dir"`
}

type ExternalServices struct {
	MusicBrainzEnabled  bool    `mapstructure:"musicbrainz_enabled"`
	LastFMFallback      bool    `mapstructure:"lastfm_fallback"`
	LastFMAPIKey        string  `mapstructure:"lastfm_api_key"`
	SpotifyEnabled      bool    `mapstructure:"spotify_enabled"`
	SpotifyClientID     string  `mapstructure:"spotify_client_id"`
	SpotifyClientSecret string  `mapstructure:"spotify_client_secret"`
	RateLimitDelay      float64 `mapstructure:"rate_limit_delay"` // seconds
	RequestTimeout      int     `mapstructure:"request_timeout"`  // seconds
	ContactEmail        string  `mapstructure:"contact_email"`
}

// AudioFeatures is carried for forward compatibility; no analyzer reads it yet.
type AudioFeatures struct {
	BPMAnalysis           bool `mapstructure:"bpm_analysis"`
	EnergyAnalysis        bool `mapstructure:"energy_analysis"`
	QuantizationDetection bool `mapstructure:"quantization_detection"`
	MoodDetection         bool `mapstructure:"mood_detection"`
	SpectralAnalysis      bool `mapstructure:"spectral_analysis"`
}

type Library struct {
	Source   string   `mapstructure:"source"`
	Subsonic Subsonic `mapstructure:"subsonic"`
	Database Database `mapstructure:"database"`
	Files    Files    `mapstructure:"files"`
}

type Subsonic struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Database struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Files struct {
	Dir string `mapstructure:"dir"`
}

type Logging struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the documented defaults without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("advanced_analysis.enabled", false)
	v.SetDefault("advanced_analysis.audio_analysis", false)
	v.SetDefault("advanced_analysis.sample_duration", 30)
	v.SetDefault("advanced_analysis.analysis_timeout", 180)
	v.SetDefault("advanced_analysis.parallel_workers", 1)
	v.SetDefault("advanced_analysis.smart_sampling", true)

	v.SetDefault("clustering.algorithm", AlgorithmAuto)
	v.SetDefault("clustering.user_choice", true)
	v.SetDefault("clustering.min_clusters", 5)
	v.SetDefault("clustering.max_clusters", 25)
	v.SetDefault("clustering.requested_themes", 15)
	v.SetDefault("clustering.seed", 42)

	v.SetDefault("cache.max_size_mb", 100)
	v.SetDefault("cache.clear_on_analysis", true)
	v.SetDefault("cache.feature_cache_days", 30)
	v.SetDefault("cache.audio_features_cache", true)
	v.SetDefault("cache.dir", "")

	v.SetDefault("external_services.musicbrainz_enabled", true)
	v.SetDefault("external_services.lastfm_fallback", true)
	v.SetDefault("external_services.lastfm_api_key", "")
	v.SetDefault("external_services.spotify_enabled", false)
	v.SetDefault("external_services.spotify_client_id", "")
	v.SetDefault("external_services.spotify_client_secret", "")
	v.SetDefault("external_services.rate_limit_delay", 0.5)
	v.SetDefault("external_services.request_timeout", 8)
	v.SetDefault("external_services.contact_email", "")

	v.SetDefault("audio_features.bpm_analysis", true)
	v.SetDefault("audio_features.energy_analysis", true)
	v.SetDefault("audio_features.quantization_detection", true)
	v.SetDefault("audio_features.mood_detection", true)
	v.SetDefault("audio_features.spectral_analysis", true)

	v.SetDefault("library.source", SourceSubsonic)
	v.SetDefault("library.subsonic.url", "")
	v.SetDefault("library.subsonic.username", "")
	v.SetDefault("library.subsonic.password", "")
	v.SetDefault("library.database.driver", "sqlite3")
	v.SetDefault("library.database.dsn", "")
	v.SetDefault("library.files.dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("server.addr", "127.0.0.1:8080")
}

// Load reads the configuration file at path (or searches the default
// locations when path is empty) plus THEMES_* environment variables, merged
// over the defaults. A missing or unreadable file is logged and the defaults
// are used; Load never fails.
func Load(path string, log *zap.Logger) *Config {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("THEMES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("external_services.lastfm_api_key", "THEMES_EXTERNAL_SERVICES_LASTFM_API_KEY", "LASTFM_API_KEY")
	_ = v.BindEnv("external_services.spotify_client_id", "THEMES_EXTERNAL_SERVICES_SPOTIFY_CLIENT_ID", "SPOTIFY_ID")
	_ = v.BindEnv("external_services.spotify_client_secret", "THEMES_EXTERNAL_SERVICES_SPOTIFY_CLIENT_SECRET", "SPOTIFY_SECRET")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Info("config file not found, using defaults and environment")
		} else {
			log.Warn("config file unreadable, using defaults and environment", zap.Error(err))
		}
	} else {
		log.Info("config loaded", zap.String("file", v.ConfigFileUsed()))
	}

	return decode(v, log)
}

// decodeKey matches the quoted "section.key" names in a decode error.
var decodeKey = regexp.MustCompile(`'([a-z0-9_]+(?:\.[a-z0-9_]+)+)'`)

// decode unmarshals v. Each key that fails to decode is logged and reset to
// its default, then decoding is retried, so one bad value keeps the rest of
// the file. Defaults are returned only when the failing key cannot be named.
func decode(v *viper.Viper, log *zap.Logger) *Config {
	defaults := viper.New()
	setDefaults(defaults)
	reset := make(map[string]bool)

	for {
		var cfg Config
		err := v.Unmarshal(&cfg)
		if err == nil {
			return &cfg
		}

		var keys []string
		for _, m := range decodeKey.FindAllStringSubmatch(err.Error(), -1) {
			key := m[1]
			if defaults.IsSet(key) && !reset[key] && !slices.Contains(keys, key) {
				keys = append(keys, key)
			}
		}
		if len(keys) == 0 {
			log.Warn("config does not match schema, using defaults", zap.Error(err))
			return Default()
		}

		for _, key := range keys {
			log.Warn("invalid config value, using default",
				zap.String("key", key),
				zap.Any("value", v.Get(key)),
				zap.Any("default", defaults.Get(key)))
			v.Set(key, defaults.Get(key))
			reset[key] = true
		}
	}
}

// RateLimitDelay is the minimum spacing between requests to one external service.
func (c *Config) RateLimitDelay() time.Duration {
	return time.Duration(c.ExternalServices.RateLimitDelay * float64(time.Second))
}

// RequestTimeout bounds a single external HTTP request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.ExternalServices.RequestTimeout) * time.Second
}

// AnalysisTimeout bounds the whole enrichment stage of one discovery run.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AdvancedAnalysis.AnalysisTimeout) * time.Second
}

// FeatureCacheTTL is how long persisted enrichment results stay valid.
func (c *Config) FeatureCacheTTL() time.Duration {
	return time.Duration(c.Cache.FeatureCacheDays) * 24 * time.Hour
}

// CacheDir returns cache.dir, or the per-user cache directory when unset.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}
