package storage

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"klinehub/internal/storage/models"
)

func openTestStorage(t *testing.T) Storage {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	db, err := Open("sqlite", ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	store := New(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleKline(ts time.Time, close float64) *models.Kline {
	return &models.Kline{
		Timestamp: ts,
		Open:      close - 1,
		High:      close + 2,
		Low:       close - 3,
		Close:     close,
		Volume:    10,
		Pair:      "BTC/USDT",
	}
}

func TestInsertAndExists(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	exists, err := store.Exists(ctx, "btc_kline", "BTC/USDT", ts)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("Expected no row before insert")
	}

	inserted, err := store.Insert(ctx, "btc_kline", sampleKline(ts, 100))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if !inserted {
		t.Error("Expected first insert to write a row")
	}

	exists, err = store.Exists(ctx, "btc_kline", "BTC/USDT", ts)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Expected row after insert")
	}
}

func TestInsertIgnoresDuplicates(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Insert(ctx, "btc_kline", sampleKline(ts, 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	inserted, err := store.Insert(ctx, "btc_kline", sampleKline(ts, 999))
	if err != nil {
		t.Fatalf("Duplicate insert returned error: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate insert to be a no-op")
	}

	// The first write must survive untouched.
	row, err := store.LatestOne(ctx, "btc_kline", "BTC/USDT")
	if err != nil {
		t.Fatalf("LatestOne failed: %v", err)
	}
	if row == nil || row.Close != 100 {
		t.Errorf("Expected original row with close 100, got %+v", row)
	}
}

func TestTablesAreIsolated(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Insert(ctx, "btc_kline", sampleKline(ts, 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rows, err := store.Latest(ctx, "eth_kline", 10)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected eth table empty, got %d rows", len(rows))
	}
}

func TestLatestOrdersNewestFirst(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		k := sampleKline(base.Add(time.Duration(i)*time.Hour), float64(100+i))
		if _, err := store.Insert(ctx, "btc_kline", k); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	rows, err := store.Latest(ctx, "btc_kline", 3)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i].Timestamp.Before(rows[i-1].Timestamp) {
			t.Errorf("Rows not ordered newest first: %v then %v", rows[i-1].Timestamp, rows[i].Timestamp)
		}
	}
	if rows[0].Close != 104 {
		t.Errorf("Expected newest close 104, got %v", rows[0].Close)
	}
}

func TestRangeIsInclusiveAndAscending(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		k := sampleKline(base.Add(time.Duration(i)*time.Hour), float64(100+i))
		if _, err := store.Insert(ctx, "btc_kline", k); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	rows, err := store.Range(ctx, "btc_kline", "BTC/USDT", base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows in inclusive window, got %d", len(rows))
	}
	if rows[0].Close != 101 || rows[2].Close != 103 {
		t.Errorf("Expected ascending closes 101..103, got %v and %v", rows[0].Close, rows[2].Close)
	}

	empty, err := store.Range(ctx, "btc_kline", "BTC/USDT", base.Add(240*time.Hour), base.Add(241*time.Hour))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected empty window, got %d rows", len(empty))
	}
}

func TestLatestForPairFiltersAndLimits(t *testing.T) {
	store := openTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		k := sampleKline(base.Add(time.Duration(i)*time.Hour), float64(100+i))
		if _, err := store.Insert(ctx, "btc_kline", k); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	other := sampleKline(base, 500)
	other.Pair = "BTC/EUR"
	if _, err := store.Insert(ctx, "btc_kline", other); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rows, err := store.LatestForPair(ctx, "btc_kline", "BTC/USDT", 2)
	if err != nil {
		t.Fatalf("LatestForPair failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Pair != "BTC/USDT" {
			t.Errorf("Expected only BTC/USDT rows, got %s", r.Pair)
		}
	}
	if rows[0].Close != 103 {
		t.Errorf("Expected newest close 103, got %v", rows[0].Close)
	}
}

func TestLatestOneNilWhenEmpty(t *testing.T) {
	store := openTestStorage(t)

	row, err := store.LatestOne(context.Background(), "btc_kline", "BTC/USDT")
	if err != nil {
		t.Fatalf("LatestOne failed: %v", err)
	}
	if row != nil {
		t.Errorf("Expected nil for empty table, got %+v", row)
	}
}
