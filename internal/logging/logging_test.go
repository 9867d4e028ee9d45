package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		dev     bool
		wantErr bool
	}{
		{"info", false, false},
		{"debug", true, false},
		{"shouting", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(tt.level, tt.dev)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			want, _ := zapcore.ParseLevel(tt.level)
			if !log.Core().Enabled(want) {
				t.Errorf("level %s not enabled", tt.level)
			}
		})
	}
}
