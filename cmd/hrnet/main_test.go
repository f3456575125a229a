package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/hrnet/internal/app"
	"github.com/ogurasousui/hrnet/internal/platform/config"
)

func TestEffectiveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, defaultConfigPath, effectiveConfigPath(""))

	t.Setenv("CONFIG_PATH", "/etc/hrnet.yaml")
	assert.Equal(t, "/etc/hrnet.yaml", effectiveConfigPath(""))
	assert.Equal(t, "custom.yaml", effectiveConfigPath("custom.yaml"))
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func newMemoryApp(t *testing.T) *app.App {
	t.Helper()

	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestRun_SeedListExport(t *testing.T) {
	t.Parallel()

	a := newMemoryApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, run(ctx, a, "seed", []string{"-n", "30", "-seed", "7", "-prefix", "s"}, nil, &out))
	assert.Contains(t, out.String(), "seeded 30 employees")
	assert.Equal(t, 30, a.Store.Len())

	out.Reset()
	require.NoError(t, run(ctx, a, "list", []string{"-sort", "lastName", "-size", "25", "-page", "2"}, nil, &out))
	assert.Contains(t, out.String(), "Showing 26 to 30 of 30 entries  (page 2 of 2)")
	assert.Contains(t, out.String(), "Last Name ▲")

	out.Reset()
	path := filepath.Join(t.TempDir(), "list.xlsx")
	require.NoError(t, run(ctx, a, "export", []string{"-format", "xlsx", "-o", path}, nil, &out))
	assert.Contains(t, out.String(), "exported 30 entries")
	_, err := os.Stat(path)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, run(ctx, a, "import", []string{"-i", path}, nil, &out))
	assert.Contains(t, out.String(), "imported 30 of 30 rows")
	assert.Equal(t, 60, a.Store.Len())
}

func TestRun_SeedAndImportWithTimestampIDs(t *testing.T) {
	t.Parallel()

	a := newMemoryApp(t)
	require.Equal(t, config.IDStrategyTimestamp, a.Config.Employee.IDStrategy)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, run(ctx, a, "seed", []string{"-n", "40", "-seed", "3"}, nil, &out))
	assert.Equal(t, 40, a.Store.Len())

	path := filepath.Join(t.TempDir(), "all.xlsx")
	require.NoError(t, run(ctx, a, "export", []string{"-o", path}, nil, &out))

	out.Reset()
	require.NoError(t, run(ctx, a, "import", []string{"-i", path}, nil, &out))
	assert.Contains(t, out.String(), "imported 40 of 40 rows")
	assert.Equal(t, 80, a.Store.Len())
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	a := newMemoryApp(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, run(ctx, a, "frobnicate", nil, nil, &out))
	assert.Error(t, run(ctx, a, "list", []string{"-size", "15"}, nil, &out))
	assert.Error(t, run(ctx, a, "list", []string{"-sort", "salary"}, nil, &out))
	assert.Error(t, run(ctx, a, "seed", []string{"-n", "0"}, nil, &out))
	assert.Error(t, run(ctx, a, "import", nil, nil, &out))
}

func TestRun_Repl(t *testing.T) {
	t.Parallel()

	a := newMemoryApp(t)
	var out bytes.Buffer

	in := strings.NewReader("SEARCH(nobody)\nEXIT\n")
	require.NoError(t, run(context.Background(), a, "repl", nil, in, &out))
	assert.Contains(t, out.String(), "No data available in table")
}
