package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ogurasousui/hrnet/internal/adapters/cli"
	"github.com/ogurasousui/hrnet/internal/adapters/seed"
	"github.com/ogurasousui/hrnet/internal/app"
	"github.com/ogurasousui/hrnet/internal/core/employeelist"
	"github.com/ogurasousui/hrnet/internal/platform/config"
	"github.com/ogurasousui/hrnet/internal/platform/logging"
)

const defaultConfigPath = "assets/local.yaml"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("error loading .env file", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Usage = usage
	flag.Parse()

	command := "repl"
	args := flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := loadConfig(effectiveConfigPath(*configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error("close application", "err", err)
		}
	}()

	if err := run(ctx, application, command, args, os.Stdin, os.Stdout); err != nil {
		logger.Error("command failed", "command", command, "err", err)
		stop()
		_ = application.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: hrnet [-config path] <command> [flags]

Commands:
  repl                                      interactive shell (default)
  list   [-search q] [-sort col] [-desc] [-size n] [-page n]
  seed   [-n count] [-seed value] [-prefix id]
  export -format pdf|xlsx -o path [-search q] [-sort col] [-desc]
  import -i path.xlsx

`)
	flag.PrintDefaults()
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return defaultConfigPath
}

// loadConfig は既定パスのファイルが無い場合に限り組み込みの既定値を返します。
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func run(ctx context.Context, a *app.App, command string, args []string, in io.Reader, out io.Writer) error {
	switch command {
	case "repl":
		return cli.NewSession(a.Service, a.View, out, a.Logger.With("component", "cli")).Run(ctx, in)
	case "list":
		return runList(a, args, out)
	case "seed":
		return runSeed(ctx, a, args, out)
	case "export":
		return runExport(a, args, out)
	case "import":
		return runImport(ctx, a, args, out)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

type viewFlags struct {
	search string
	sort   string
	desc   bool
}

func (f *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.search, "search", "", "filter text")
	fs.StringVar(&f.sort, "sort", "", "sort column (e.g. lastName, startDate)")
	fs.BoolVar(&f.desc, "desc", false, "sort descending")
}

func (f *viewFlags) apply(v *employeelist.View) error {
	v.SetSearch(f.search)
	if f.sort == "" {
		return nil
	}
	key, err := employeelist.ParseSortKey(f.sort)
	if err != nil {
		return err
	}
	direction := employeelist.Ascending
	if f.desc {
		direction = employeelist.Descending
	}
	_, err = v.SetSort(key, direction)
	return err
}

func runList(a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var vf viewFlags
	vf.register(fs)
	size := fs.Int("size", a.Config.View.DefaultPageSize, "entries per page (10, 25, 50, 100)")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !slices.Contains(employeelist.PageSizeOptions(), *size) {
		return fmt.Errorf("-size must be one of %v", employeelist.PageSizeOptions())
	}
	if err := vf.apply(a.View); err != nil {
		return err
	}
	if _, err := a.View.SetPageSize(*size); err != nil {
		return err
	}
	return cli.RenderPage(out, a.View.SetPage(*page), a.View.State())
}

func runSeed(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	n := fs.Int("n", 25, "number of employees to create")
	seedValue := fs.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	prefix := fs.String("prefix", "", "id prefix; empty uses the configured id strategy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("-n must be positive, got %d", *n)
	}

	rnd := rand.New(rand.NewPCG(*seedValue, *seedValue))
	created, err := seed.Run(ctx, a.Service, *n, rnd, *prefix)
	fmt.Fprintf(out, "seeded %d employees\n", created)
	return err
}

func runExport(a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var vf viewFlags
	vf.register(fs)
	format := fs.String("format", "xlsx", "pdf or xlsx")
	path := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		*path = "employees." + strings.ToLower(*format)
	}

	if err := vf.apply(a.View); err != nil {
		return err
	}
	rows := a.View.Matching()
	if err := cli.WriteExport(*format, *path, rows); err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d entries to %s\n", len(rows), *path)
	return nil
}

func runImport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	path := fs.String("i", "", "xlsx file to import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-i is required")
	}
	_, err := cli.NewSession(a.Service, a.View, out, a.Logger).Execute(ctx, fmt.Sprintf("IMPORT(%q)", *path))
	return err
}
