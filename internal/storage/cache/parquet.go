// internal/storage/cache/parquet.go
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/newthinker/vega/internal/core"
)

// ParquetCache stores fetched daily bars as one Parquet file per
// (symbol, start, end) request:
//
//	<dir>/<SYMBOL>_<start>_<end>.parquet
type ParquetCache struct {
	dir string
}

// NewParquetCache creates a cache rooted at the given directory.
func NewParquetCache(dir string) *ParquetCache {
	return &ParquetCache{dir: dir}
}

// barRecord is the Parquet schema for cached daily bars.
type barRecord struct {
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms
	Open   float64 `parquet:"open"`
	High   float64 `parquet:"high"`
	Low    float64 `parquet:"low"`
	Close  float64 `parquet:"close"`
	Volume int64   `parquet:"volume"`
}

// Entry identifies one cached series parsed from its filename.
type Entry struct {
	Symbol string
	Start  time.Time
	End    time.Time
	Path   string
}

// Path returns the cache file path for a request.
func (c *ParquetCache) Path(symbol string, start, end time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.parquet",
		strings.ToUpper(symbol),
		start.Format(core.DateLayout),
		end.Format(core.DateLayout))
	return filepath.Join(c.dir, name)
}

// Has reports whether a cached series exists for the request.
func (c *ParquetCache) Has(symbol string, start, end time.Time) bool {
	_, err := os.Stat(c.Path(symbol, start, end))
	return err == nil
}

// Save writes bars for the request, replacing any existing file.
func (c *ParquetCache) Save(_ context.Context, symbol string, start, end time.Time, bars []core.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{
			Date:   b.Date.UnixMilli(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	path := c.Path(symbol, start, end)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

// Load reads the cached bars for the request. A missing file returns
// CACHE_MISS; a present but unreadable file returns the read error.
func (c *ParquetCache) Load(_ context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	path := c.Path(symbol, start, end)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, core.WrapErrorf(core.ErrCacheMiss, "%s %s to %s",
			symbol, start.Format(core.DateLayout), end.Format(core.DateLayout))
	}

	records, err := parquet.ReadFile[barRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	bars := make([]core.Bar, len(records))
	for i, r := range records {
		bars[i] = core.Bar{
			Date:   time.UnixMilli(r.Date).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, nil
}

// List returns the cached series found in the cache directory, sorted by
// symbol. Files that do not match the cache naming pattern are skipped.
func (c *ParquetCache) List() ([]Entry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".parquet") {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(f.Name(), ".parquet"), "_")
		if len(parts) != 3 {
			continue
		}
		start, err := time.Parse(core.DateLayout, parts[1])
		if err != nil {
			continue
		}
		end, err := time.Parse(core.DateLayout, parts[2])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Symbol: parts[0],
			Start:  start,
			End:    end,
			Path:   filepath.Join(c.dir, f.Name()),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Symbol != entries[j].Symbol {
			return entries[i].Symbol < entries[j].Symbol
		}
		return entries[i].Start.Before(entries[j].Start)
	})
	return entries, nil
}
