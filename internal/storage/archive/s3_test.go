// internal/storage/archive/s3_test.go
package archive

import (
	"strings"
	"testing"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_FullKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "runs/2024/06/01/a.json", "runs/2024/06/01/a.json"},
		{"vega", "runs/2024/06/01/a.json", "vega/runs/2024/06/01/a.json"},
		{"vega/", "runs/2024/06/01/a.json", "vega/runs/2024/06/01/a.json"},
	}

	for _, tt := range tests {
		s := &S3Storage{prefix: strings.TrimSuffix(tt.prefix, "/")}
		got := s.fullKey(tt.key)
		if got != tt.want {
			t.Errorf("fullKey(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
	}
}
