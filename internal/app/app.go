// Package app は設定から各コンポーネントを組み立てるコンポジションルートです。
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ogurasousui/hrnet/internal/adapters/repository/file"
	"github.com/ogurasousui/hrnet/internal/adapters/repository/localstate"
	pgrepo "github.com/ogurasousui/hrnet/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hrnet/internal/adapters/repository/sqlite"
	"github.com/ogurasousui/hrnet/internal/adapters/repository/valkey"
	"github.com/ogurasousui/hrnet/internal/core/employee"
	"github.com/ogurasousui/hrnet/internal/core/employeelist"
	"github.com/ogurasousui/hrnet/internal/platform/config"
	pgdb "github.com/ogurasousui/hrnet/internal/platform/db/postgres"
)

// App はストア、ユースケース、一覧ビューを保持します。
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *employee.Store
	Service *employee.Service
	View    *employeelist.View

	closers []func() error
	unbind  func()
}

// New は設定されたストレージを開き App を組み立てます。
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	kv, err := a.openKeyValue(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	repo := localstate.NewRepository(kv, cfg.Storage.Key)
	a.Store = employee.NewStore(ctx, repo, logger.With("component", "store"))
	a.Service = employee.NewService(a.Store, employee.NewIDGenerator(cfg.Employee.IDStrategy, nil))
	a.View = employeelist.NewView(a.Store, cfg.View.DefaultPageSize)
	a.unbind = a.View.Bind(a.Store)

	logger.Info("application ready",
		"driver", cfg.Storage.Driver,
		"key", cfg.Storage.Key,
		"employees", a.Store.Len(),
	)
	return a, nil
}

func (a *App) openKeyValue(ctx context.Context) (localstate.KeyValue, error) {
	storage := a.Config.Storage

	switch storage.Driver {
	case config.DriverMemory:
		return localstate.NewMemoryKeyValue(), nil
	case config.DriverFile:
		return file.NewStore(storage.File.Path), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(storage.SQLite.Path, a.Logger.With("component", "sqlite"))
		if err != nil {
			return nil, fmt.Errorf("app: open sqlite: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.DriverPostgres:
		pool, err := pgdb.NewPool(ctx, a.Config.Database, a.Logger.With("component", "postgres"))
		if err != nil {
			return nil, fmt.Errorf("app: open postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		return pgrepo.NewStateStore(pool, pgdb.NewTransactionManager(pool)), nil
	case config.DriverValkey:
		s, err := valkey.Open(valkey.Options{
			Addr:     storage.Valkey.Addr,
			Password: storage.Valkey.Password,
			DB:       storage.Valkey.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("app: open valkey: %w", err)
		}
		a.closers = append(a.closers, func() error { s.Close(); return nil })
		return s, nil
	default:
		return nil, fmt.Errorf("app: unsupported storage driver %q", storage.Driver)
	}
}

// Close はビューの購読を解除し、保存の完了を待ってから開いたバックエンドを逆順に閉じます。
func (a *App) Close() error {
	if a.unbind != nil {
		a.unbind()
		a.unbind = nil
	}
	if a.Store != nil {
		a.Store.Flush()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
