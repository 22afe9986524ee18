// Package coingecko implements the upstream market-data client.
// API Doc: https://docs.coingecko.com/reference/coins-id-market-chart
//
// Response format:
//
//	{
//	  "prices": [[1711843200000, 69702.31], [1711846800000, 69958.02]],
//	  "market_caps": [[1711843200000, 1370247487960.09]],
//	  "total_volumes": [[1711843200000, 16408802301.84]]
//	}
//
// Arrays are parallel lists of [unix-ms, value] points; with days <= 90 the
// endpoint returns hourly granularity.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"klinehub/internal/assets"
	"klinehub/internal/storage/models"
)

const (
	// DefaultBaseURL is the public CoinGecko API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// DefaultLookbackDays keeps the response small enough for the free
	// tier while still yielding hourly points.
	DefaultLookbackDays = 2

	// DefaultRequestTimeout bounds every upstream call.
	DefaultRequestTimeout = 10 * time.Second

	// trailingPoints is how many recent samples feed the high/low of one
	// candidate kline.
	trailingPoints = 6
)

// Sentinel errors classifying upstream failures. Callers decide retry
// behavior with errors.Is against these.
var (
	// ErrNoData marks an empty or unparseable payload. Not retryable.
	ErrNoData = errors.New("coingecko: no price data")

	// ErrRateLimited marks an HTTP 429. Retryable after backoff.
	ErrRateLimited = errors.New("coingecko: rate limited")

	// ErrTimeout marks a request that exceeded its deadline. Retryable.
	ErrTimeout = errors.New("coingecko: request timed out")

	// ErrUpstream marks any other non-success response. Not retryable.
	ErrUpstream = errors.New("coingecko: upstream error")
)

// marketChartResponse mirrors the market_chart payload. Points arrive as
// two-element [unix-ms, value] arrays.
type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// Config holds client tuning. Zero values fall back to the defaults above.
type Config struct {
	BaseURL        string
	LookbackDays   int
	Interval       time.Duration
	RequestTimeout time.Duration
	RequestsPerSec float64
}

// DefaultConfig returns production settings: hourly candles from a 2-day
// window, paced well under the free-tier budget.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		LookbackDays:   DefaultLookbackDays,
		Interval:       time.Hour,
		RequestTimeout: DefaultRequestTimeout,
		RequestsPerSec: 0.5,
	}
}

// Client fetches price history from CoinGecko and normalizes the most
// recent point into a candidate kline.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient builds a client. The rate limiter is shared across all assets
// so sequential fetches respect one provider budget.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 0.5
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		logger:     logger,
	}
}

// FetchLatest performs one GET against the asset's market chart and returns
// the newest sample as a candidate kline. The only side effect is the
// outbound call.
func (c *Client) FetchLatest(ctx context.Context, asset assets.Asset) (*models.Kline, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		c.cfg.BaseURL, asset.ID, c.cfg.LookbackDays)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, errors.Wrapf(ErrTimeout, "%s: %v", asset.ID, err)
		}
		return nil, errors.Wrapf(ErrUpstream, "%s: %v", asset.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "%s: read body: %v", asset.ID, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrapf(ErrRateLimited, "%s", asset.ID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUpstream, "%s: status %d", asset.ID, resp.StatusCode)
	}

	var chart marketChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, errors.Wrapf(ErrNoData, "%s: unmarshal: %v", asset.ID, err)
	}

	kline, err := c.normalize(&chart, asset)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"asset":     asset.ID,
		"timestamp": kline.Timestamp,
		"close":     kline.Close,
	}).Debug("Fetched candidate kline")

	return kline, nil
}

// normalize turns the parallel point arrays into one kline for the newest
// sample: close from the last point, open from the point before it, and
// high/low over the trailing window.
func (c *Client) normalize(chart *marketChartResponse, asset assets.Asset) (*models.Kline, error) {
	prices := validPoints(chart.Prices)
	if len(prices) == 0 {
		return nil, errors.Wrapf(ErrNoData, "%s", asset.ID)
	}

	last := prices[len(prices)-1]
	closePrice := last[1]

	openPrice := closePrice
	if len(prices) >= 2 {
		openPrice = prices[len(prices)-2][1]
	}

	high, low := closePrice, closePrice
	start := len(prices) - trailingPoints
	if start < 0 {
		start = 0
	}
	for _, p := range prices[start:] {
		if p[1] > high {
			high = p[1]
		}
		if p[1] < low {
			low = p[1]
		}
	}

	// Volume is best effort: some assets/endpoints expose none.
	volume := 0.0
	if volumes := validPoints(chart.TotalVolumes); len(volumes) > 0 {
		volume = volumes[len(volumes)-1][1]
	}

	ts := time.UnixMilli(int64(last[0])).UTC().Truncate(c.cfg.Interval)

	return &models.Kline{
		Timestamp: ts,
		Open:      openPrice,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		Pair:      asset.Pair,
	}, nil
}

// validPoints drops malformed entries that are not [ms, value] pairs.
func validPoints(points [][]float64) [][]float64 {
	out := points[:0:0]
	for _, p := range points {
		if len(p) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
