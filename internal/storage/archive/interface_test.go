// internal/storage/archive/interface_test.go
package archive

import (
	"testing"
	"time"
)

func TestResultKey(t *testing.T) {
	created := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	got := ResultKey(created, "3f2a9c1e")
	want := "runs/2024/06/01/3f2a9c1e.json"
	if got != want {
		t.Errorf("ResultKey = %q, want %q", got, want)
	}
}

func TestResultKey_NormalizesToUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	created := time.Date(2024, 6, 1, 23, 30, 0, 0, loc)
	got := ResultKey(created, "abc")
	want := "runs/2024/06/02/abc.json"
	if got != want {
		t.Errorf("ResultKey = %q, want %q", got, want)
	}
}
