// Package sqlite は GORM と SQLite を利用した localstate.KeyValue の実装です。
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ogurasousui/hrnet/internal/adapters/repository/localstate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

// StateEntry は app_state テーブルの行です。
type StateEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName は PostgreSQL 側と同じテーブル名を返します。
func (StateEntry) TableName() string {
	return "app_state"
}

// Store は SQLite に状態文書を保存します。
type Store struct {
	db *gorm.DB
}

// Open は SQLite ファイルを開き、app_state テーブルを自動作成します。
func Open(path string, log *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: database path is empty")
	}
	if log == nil {
		log = slog.Default()
	}

	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelDebug),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: get sql.DB: %w", err)
	}
	// SQLite の書き込みは単一接続で直列化する
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&StateEntry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	log.Debug("sqlite state store ready", "path", path)
	return &Store{db: db}, nil
}

// Get はキーの値を返します。
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var entry StateEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, localstate.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return entry.Value, nil
}

// Set はキーへ値を upsert します。
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return upsert(s.db.WithContext(ctx), key, value)
}

// Update はトランザクション内で読み込みと書き込みを行います。
func (s *Store) Update(ctx context.Context, key string, fn localstate.UpdateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry StateEntry
		err := tx.Where("key = ?", key).Take(&entry).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("sqlite: get %s: %w", key, err)
		}

		next, err := fn(entry.Value, found)
		if err != nil {
			return err
		}
		return upsert(tx, key, next)
	})
}

// Close は接続を閉じます。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsert(db *gorm.DB, key string, value []byte) error {
	entry := StateEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}
