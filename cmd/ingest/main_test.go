package main

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"conversionloader/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// TestRun_ArgumentValidation checks that run rejects incomplete invocations
// before touching any external service.
func TestRun_ArgumentValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.Config
		key     string
		wantErr string
	}{
		{
			name:    "missing bucket",
			cfg:     &config.Config{DBDriver: "mssql"},
			key:     "InitialUpload/FIN_AP_MOCK1_SAP_20240115_0930.csv",
			wantErr: "-bucket is required",
		},
		{
			name:    "missing key",
			cfg:     &config.Config{Bucket: "conversion-staging", DBDriver: "mssql"},
			wantErr: "-key is required",
		},
		{
			name:    "unsupported driver",
			cfg:     &config.Config{Bucket: "conversion-staging", DBDriver: "bolt", AWSRegion: "us-east-1"},
			key:     "InitialUpload/FIN_AP_MOCK1_SAP_20240115_0930.csv",
			wantErr: `unsupported -db_driver="bolt"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.cfg, tt.key, discardLogger())
			if err == nil {
				t.Fatal("run() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("run() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
