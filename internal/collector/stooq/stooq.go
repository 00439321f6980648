package stooq

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/vega/internal/collector"
	"github.com/newthinker/vega/internal/core"
)

const defaultBaseURL = "https://stooq.com/q/d/l/"

// Options configures the Stooq source. Zero values get production
// defaults.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Observer collector.FetchObserver
}

// Stooq fetches daily bars from the Stooq CSV download endpoint. It
// needs no API key and serves as the fallback source behind Yahoo.
type Stooq struct {
	client   *http.Client
	baseURL  string
	observer collector.FetchObserver
}

// New creates a new Stooq source.
func New(opts Options) *Stooq {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Stooq{
		client:   &http.Client{Timeout: opts.Timeout},
		baseURL:  opts.BaseURL,
		observer: opts.Observer,
	}
}

func (s *Stooq) Name() string {
	return "stooq"
}

// toStooqSymbol converts a plain US ticker to stooq form: AAPL -> aapl.us.
// Symbols that already carry a market suffix are only lowercased.
func toStooqSymbol(symbol string) string {
	lower := strings.ToLower(symbol)
	if strings.Contains(lower, ".") {
		return lower
	}
	return lower + ".us"
}

// FetchDaily fetches daily bars for the symbol between start and end
// inclusive.
func (s *Stooq) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	bars, err := s.fetch(ctx, symbol, start, end)
	if err != nil {
		s.observe("error")
		return nil, err
	}
	s.observe("ok")
	return bars, nil
}

func (s *Stooq) fetch(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	q := url.Values{}
	q.Set("s", toStooqSymbol(symbol))
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, core.WrapError(core.ErrFetchFailed, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapErrorf(core.ErrFetchFailed, "stooq status %d", resp.StatusCode)
	}

	return parseCSV(resp.Body, symbol)
}

// parseCSV decodes the stooq daily CSV payload. Stooq answers unknown
// symbols with a short plain-text body instead of an HTTP error, which
// shows up here as a headerless single row.
func parseCSV(r io.Reader, symbol string) ([]core.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.WrapErrorf(core.ErrFetchFailed, "decoding stooq response: %v", err)
	}
	if len(rows) < 2 || len(rows[0]) < 6 {
		return nil, core.WrapErrorf(core.ErrNoData, "%s", symbol)
	}

	bars := make([]core.Bar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 6 {
			continue
		}
		date, err := time.Parse(core.DateLayout, row[0])
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(row[1], 64)
		high, err2 := strconv.ParseFloat(row[2], 64)
		low, err3 := strconv.ParseFloat(row[3], 64)
		closing, err4 := strconv.ParseFloat(row[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseFloat(row[5], 64) // Volume column may be empty.

		bars = append(bars, core.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closing,
			Volume: int64(volume),
		})
	}

	if len(bars) == 0 {
		return nil, core.WrapErrorf(core.ErrNoData, "%s returned no usable rows", symbol)
	}
	return bars, nil
}

func (s *Stooq) observe(status string) {
	if s.observer != nil {
		s.observer.ObserveFetch("stooq", status)
	}
}
