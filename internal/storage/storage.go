// Package storage provides the relational store for collected klines.
// Each asset owns one table; all tables share the Kline row layout.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"klinehub/internal/assets"
	"klinehub/internal/storage/models"
)

// Storage defines the operations the collector and the read API need.
// Implementations must be safe for concurrent use: the collector writes
// while HTTP handlers read.
type Storage interface {
	// Exists reports whether a kline for (pair, ts) is already stored.
	Exists(ctx context.Context, table, pair string, ts time.Time) (bool, error)

	// Insert stores one kline, ignoring rows that conflict on
	// (pair, timestamp). It reports whether a row was actually written.
	Insert(ctx context.Context, table string, k *models.Kline) (bool, error)

	// Latest returns up to limit rows, newest first.
	Latest(ctx context.Context, table string, limit int) ([]models.Kline, error)

	// Range returns rows with start <= timestamp <= end for the pair,
	// oldest first.
	Range(ctx context.Context, table, pair string, start, end time.Time) ([]models.Kline, error)

	// LatestForPair returns up to limit rows for the pair, newest first.
	LatestForPair(ctx context.Context, table, pair string, limit int) ([]models.Kline, error)

	// LatestOne returns the single newest row for the pair, or nil when
	// the table holds no data for it yet.
	LatestOne(ctx context.Context, table, pair string) (*models.Kline, error)

	// Close releases database connection resources.
	Close() error
}

// Open connects to the configured database provider. Production runs on
// postgres; sqlite keeps local development and tests self-contained.
func Open(provider, dsn string, log *logrus.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var db *gorm.DB
	var err error
	switch provider {
	case "postgres":
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, errors.Errorf("unknown database provider: %s", provider)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", provider)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "database ping failed")
	}

	log.WithField("provider", provider).Info("Database connected")
	return db, nil
}

// AutoMigrate creates every configured asset table and its dedup index.
// Safe to run repeatedly; existing tables and data are left alone.
func AutoMigrate(db *gorm.DB) error {
	for _, a := range assets.Supported {
		if err := db.Table(a.Table).AutoMigrate(&models.Kline{}); err != nil {
			return errors.Wrapf(err, "migrate %s", a.Table)
		}
		idx := fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_pair_ts ON %s (pair, timestamp)`,
			a.Table, a.Table,
		)
		if err := db.Exec(idx).Error; err != nil {
			return errors.Wrapf(err, "index %s", a.Table)
		}
	}
	return nil
}

type gormStorage struct {
	db *gorm.DB
}

// New wraps a gorm connection in the Storage interface.
func New(db *gorm.DB) Storage {
	return &gormStorage{db: db}
}

func (s *gormStorage) table(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Table(name)
}

func (s *gormStorage) Exists(ctx context.Context, table, pair string, ts time.Time) (bool, error) {
	var count int64
	err := s.table(ctx, table).
		Where("pair = ? AND timestamp = ?", pair, ts).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "existence check on %s", table)
	}
	return count > 0, nil
}

func (s *gormStorage) Insert(ctx context.Context, table string, k *models.Kline) (bool, error) {
	// The conflict clause closes the window between the caller's existence
	// check and this write when two cycles overlap on the same timestamp.
	res := s.table(ctx, table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair"}, {Name: "timestamp"}},
			DoNothing: true,
		}).
		Create(k)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "insert into %s", table)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStorage) Latest(ctx context.Context, table string, limit int) ([]models.Kline, error) {
	var rows []models.Kline
	err := s.table(ctx, table).
		Order("timestamp desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "latest query on %s", table)
	}
	return rows, nil
}

func (s *gormStorage) Range(ctx context.Context, table, pair string, start, end time.Time) ([]models.Kline, error) {
	var rows []models.Kline
	err := s.table(ctx, table).
		Where("pair = ? AND timestamp >= ? AND timestamp <= ?", pair, start, end).
		Order("timestamp asc").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "range query on %s", table)
	}
	return rows, nil
}

func (s *gormStorage) LatestForPair(ctx context.Context, table, pair string, limit int) ([]models.Kline, error) {
	var rows []models.Kline
	err := s.table(ctx, table).
		Where("pair = ?", pair).
		Order("timestamp desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "latest-for-pair query on %s", table)
	}
	return rows, nil
}

func (s *gormStorage) LatestOne(ctx context.Context, table, pair string) (*models.Kline, error) {
	var row models.Kline
	err := s.table(ctx, table).
		Where("pair = ?", pair).
		Order("timestamp desc").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "latest-one query on %s", table)
	}
	return &row, nil
}

func (s *gormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
