package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ストレージドライバーの種別です。
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverValkey   = "valkey"
)

// 社員 ID の採番方式です。
const (
	IDStrategyTimestamp = "timestamp"
	IDStrategyUUID      = "uuid"
)

const (
	defaultStateKey    = "reduxState"
	defaultFilePath    = "data/state.json"
	defaultSQLitePath  = "data/hrnet.db"
	defaultValkeyAddr  = "127.0.0.1:6379"
	defaultPageSize    = 10
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultPostgresSSL = "disable"
)

var allowedPageSizes = []int{10, 25, 50, 100}

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Employee EmployeeConfig `yaml:"employee"`
	View     ViewConfig     `yaml:"view"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig は状態文書の保存先に関する設定です。
type StorageConfig struct {
	Driver string       `yaml:"driver"`
	Key    string       `yaml:"key"`
	File   FileConfig   `yaml:"file"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Valkey ValkeyConfig `yaml:"valkey"`
}

// FileConfig は JSON ファイル保存の設定です。
type FileConfig struct {
	Path string `yaml:"path"`
}

// SQLiteConfig は SQLite 保存の設定です。
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ValkeyConfig は Valkey 保存の設定です。
type ValkeyConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// EmployeeConfig は社員レコードに関する設定です。
type EmployeeConfig struct {
	IDStrategy string `yaml:"id_strategy"`
}

// ViewConfig は一覧表示に関する設定です。
type ViewConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
}

// LogConfig はログ出力に関する設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default はファイルを使わない場合の設定を返します。
func Default() *Config {
	cfg := &Config{}
	// 既定値のみで検証に失敗することはない
	_ = cfg.validateAndNormalize()
	return cfg
}

func (c *Config) validateAndNormalize() error {
	if err := c.Storage.validateAndNormalize(); err != nil {
		return err
	}

	if c.Storage.Driver == DriverPostgres {
		if err := c.Database.validateAndNormalize(); err != nil {
			return err
		}
	}

	switch c.Employee.IDStrategy {
	case "":
		c.Employee.IDStrategy = IDStrategyTimestamp
	case IDStrategyTimestamp, IDStrategyUUID:
	default:
		return fmt.Errorf("config: employee.id_strategy %q is not supported", c.Employee.IDStrategy)
	}

	if c.View.DefaultPageSize == 0 {
		c.View.DefaultPageSize = defaultPageSize
	}
	if !slices.Contains(allowedPageSizes, c.View.DefaultPageSize) {
		return fmt.Errorf("config: view.default_page_size must be one of %v", allowedPageSizes)
	}

	return c.Log.validateAndNormalize()
}

func (s *StorageConfig) validateAndNormalize() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = DriverFile
	}
	if s.Key == "" {
		s.Key = defaultStateKey
	}

	switch s.Driver {
	case DriverMemory, DriverPostgres:
	case DriverFile:
		if s.File.Path == "" {
			s.File.Path = defaultFilePath
		}
	case DriverSQLite:
		if s.SQLite.Path == "" {
			s.SQLite.Path = defaultSQLitePath
		}
	case DriverValkey:
		if s.Valkey.Addr == "" {
			s.Valkey.Addr = defaultValkeyAddr
		}
		if s.Valkey.DB < 0 {
			return fmt.Errorf("config: storage.valkey.db must not be negative")
		}
	default:
		return fmt.Errorf("config: storage.driver %q is not supported", s.Driver)
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultPostgresSSL
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(l.Level)
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is not supported", l.Level)
	}

	l.Format = strings.ToLower(l.Format)
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format %q is not supported", l.Format)
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
