// Package service implements the read-side queries over stored klines.
package service

import (
	"context"
	"sort"
	"time"

	"klinehub/internal/assets"
	"klinehub/internal/storage"
	"klinehub/internal/storage/models"
)

const (
	// FallbackLimit is how many recent rows an unbounded history request
	// returns.
	FallbackLimit = 200

	// HourlyLimit is how many rows the hourly endpoints return.
	HourlyLimit = 100
)

// KlineService serves persisted OHLCV history. It only reads from the
// store and shares nothing mutable with the collector.
type KlineService struct {
	store storage.Storage
}

// NewKlineService builds the read service.
func NewKlineService(store storage.Storage) *KlineService {
	return &KlineService{store: store}
}

// Latest returns up to limit most recent rows for the asset, newest first.
func (s *KlineService) Latest(ctx context.Context, asset assets.Asset, limit int) ([]models.Kline, error) {
	return s.store.Latest(ctx, asset.Table, limit)
}

// Range returns rows with start <= timestamp <= end for the pair, oldest
// first. An empty window yields an empty slice.
func (s *KlineService) Range(ctx context.Context, asset assets.Asset, pair string, start, end time.Time) ([]models.Kline, error) {
	rows, err := s.store.Range(ctx, asset.Table, pair, start, end)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.Kline{}
	}
	return rows, nil
}

// Fallback serves history requests without a range: the most recent
// FallbackLimit rows, re-sorted ascending so callers always receive
// chronological order.
func (s *KlineService) Fallback(ctx context.Context, asset assets.Asset, pair string, limit int) ([]models.Kline, error) {
	rows, err := s.store.LatestForPair(ctx, asset.Table, pair, limit)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	if rows == nil {
		rows = []models.Kline{}
	}
	return rows, nil
}

// LatestAcrossAssets returns each configured asset's newest row, keyed by
// symbol. Assets with no data yet map to nil.
func (s *KlineService) LatestAcrossAssets(ctx context.Context) (map[string]*models.Kline, error) {
	out := make(map[string]*models.Kline, len(assets.Supported))
	for _, a := range assets.Supported {
		row, err := s.store.LatestOne(ctx, a.Table, a.Pair)
		if err != nil {
			return nil, err
		}
		out[a.Symbol] = row
	}
	return out, nil
}
