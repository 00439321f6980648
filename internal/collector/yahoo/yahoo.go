package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/newthinker/vega/internal/collector"
	"github.com/newthinker/vega/internal/core"
)

const defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Options configures the Yahoo source. Zero values get production
// defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Observer   collector.FetchObserver
}

// Yahoo fetches daily bars from the Yahoo Finance chart API.
type Yahoo struct {
	client     *http.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	observer   collector.FetchObserver
}

// New creates a new Yahoo source.
func New(opts Options) *Yahoo {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &Yahoo{
		client:     &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		observer:   opts.Observer,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// FetchDaily fetches daily bars. Transport failures are retried with
// backoff; HTTP status and payload errors are final.
func (y *Yahoo) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	var bars []core.Bar
	var err error
	for attempt := 0; attempt < y.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * y.retryDelay):
			}
		}

		bars, err = y.fetchOnce(ctx, symbol, start, end)
		if err == nil {
			y.observe("ok")
			return bars, nil
		}
		if !retryable(err) {
			break
		}
	}
	y.observe("error")
	return nil, err
}

// retryable reports whether the error was a transport failure rather
// than an upstream verdict.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (y *Yahoo) fetchOnce(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	// period2 is exclusive, push it one day past the inclusive end.
	reqURL := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d",
		y.baseURL, url.PathEscape(symbol), start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrFetchFailed, err)
	}
	// Yahoo rejects requests without a browser-looking user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; vega/1.0)")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, core.WrapErrorf(core.ErrNoData, "%s unknown upstream", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapErrorf(core.ErrFetchFailed, "yahoo status %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapErrorf(core.ErrFetchFailed, "decoding yahoo response: %v", err)
	}

	if result.Chart.Error != nil {
		return nil, core.WrapErrorf(core.ErrFetchFailed, "yahoo: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapErrorf(core.ErrNoData, "%s", symbol)
	}

	r := result.Chart.Result[0]
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return nil, core.WrapErrorf(core.ErrNoData, "%s returned no bars", symbol)
	}
	quotes := r.Indicators.Quote[0]

	bars := make([]core.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(quotes.Open) || i >= len(quotes.Close) ||
			quotes.Open[i] == nil || quotes.Close[i] == nil {
			continue // Skip bars with missing quotes
		}
		t := time.Unix(ts, 0).UTC()
		bars = append(bars, core.Bar{
			Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:   *quotes.Open[i],
			High:   deref(quotes.High, i),
			Low:    deref(quotes.Low, i),
			Close:  *quotes.Close[i],
			Volume: volumeAt(quotes.Volume, i),
		})
	}

	if len(bars) == 0 {
		return nil, core.WrapErrorf(core.ErrNoData, "%s returned no usable bars", symbol)
	}
	return bars, nil
}

func (y *Yahoo) observe(status string) {
	if y.observer != nil {
		y.observer.ObserveFetch("yahoo", status)
	}
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func volumeAt(vols []*int64, i int) int64 {
	if i >= len(vols) || vols[i] == nil {
		return 0
	}
	return *vols[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
