package lastfm

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		envValue string
		wantKey  string
		wantErr  error
	}{
		{name: "explicit key wins", explicit: "from-config", envValue: "from-env", wantKey: "from-config"},
		{name: "env fallback", envValue: "abc123def456", wantKey: "abc123def456"},
		{name: "missing API key", wantErr: ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LASTFM_API_KEY", tt.envValue)

			cfg, err := LoadConfig(tt.explicit, 5*time.Second)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if cfg != nil {
					t.Error("LoadConfig() returned non-nil config with error")
				}
				return
			}
			if cfg.APIKey != tt.wantKey {
				t.Errorf("LoadConfig() APIKey = %v, want %v", cfg.APIKey, tt.wantKey)
			}
			if cfg.Timeout != 5*time.Second {
				t.Errorf("LoadConfig() Timeout = %v, want 5s", cfg.Timeout)
			}
		})
	}
}
