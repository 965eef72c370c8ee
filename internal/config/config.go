package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // school timezone must resolve in slim images

	"gopkg.in/yaml.v3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

type Config struct {
	App            AppConfig            `yaml:"app"`
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Storage        StorageConfig        `yaml:"storage"`
	Workers        WorkersConfig        `yaml:"workers"`
	Schedule       ScheduleConfig       `yaml:"schedule"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Export         ExportConfig         `yaml:"export"`
	Logging        LoggingConfig        `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver             string        `yaml:"driver"`
	Path               string        `yaml:"path"` // sqlite3 only
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	Charset            string        `yaml:"charset"`
	ParseTime          bool          `yaml:"parse_time"`
	Loc                string        `yaml:"loc"`
	MaxConnections     int           `yaml:"max_connections"`
	MaxIdleConnections int           `yaml:"max_idle_connections"`
	ConnectionLifetime time.Duration `yaml:"connection_lifetime"`
}

type RedisConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	PoolSize       int    `yaml:"pool_size"`
	ClaimQueue     string `yaml:"claim_queue"`
	IngestionQueue string `yaml:"ingestion_queue"`
	DLQSuffix      string `yaml:"dlq_suffix"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type WorkersConfig struct {
	Claims PoolConfig `yaml:"claims"`
	Roster PoolConfig `yaml:"roster"`
}

type PoolConfig struct {
	Count int `yaml:"count"`
}

// ScheduleConfig drives the daily reconciliation firings. Times are local
// wall-clock HH:MM in Timezone.
type ScheduleConfig struct {
	Timezone       string   `yaml:"timezone"`
	SnackTime      string   `yaml:"snack_time"`
	LunchTime      string   `yaml:"lunch_time"`
	ExcludedGrades []string `yaml:"excluded_grades"`
}

type ReconciliationConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxConflictAttempts int           `yaml:"max_conflict_attempts"`
	AllowBackfill       bool          `yaml:"allow_backfill"`
}

type ExportConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	RecentLimit     int `yaml:"recent_limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	return LoadFile(configPath)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "cafeteria-meals"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMySQL
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.Loc == "" {
		c.Database.Loc = "Local"
	}
	if c.Redis.ClaimQueue == "" {
		c.Redis.ClaimQueue = "meal_claims"
	}
	if c.Redis.IngestionQueue == "" {
		c.Redis.IngestionQueue = "roster_ingestion"
	}
	if c.Redis.DLQSuffix == "" {
		c.Redis.DLQSuffix = ":dlq"
	}
	if c.Workers.Claims.Count == 0 {
		c.Workers.Claims.Count = 4
	}
	if c.Workers.Roster.Count == 0 {
		c.Workers.Roster.Count = 1
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Bogota"
	}
	if c.Schedule.SnackTime == "" {
		c.Schedule.SnackTime = "11:30"
	}
	if c.Schedule.LunchTime == "" {
		c.Schedule.LunchTime = "14:15"
	}
	if c.Schedule.ExcludedGrades == nil {
		c.Schedule.ExcludedGrades = []string{"K2", "K3", "K4", "K5", "1", "2"}
	}
	// Roster imports store grades upper-cased and trimmed.
	for i, g := range c.Schedule.ExcludedGrades {
		c.Schedule.ExcludedGrades[i] = strings.ToUpper(strings.TrimSpace(g))
	}
	if c.Reconciliation.Timeout == 0 {
		c.Reconciliation.Timeout = 30 * time.Second
	}
	if c.Reconciliation.MaxConflictAttempts == 0 {
		c.Reconciliation.MaxConflictAttempts = 3
	}
	if c.Export.DefaultPageSize == 0 {
		c.Export.DefaultPageSize = 50
	}
	if c.Export.MaxPageSize == 0 {
		c.Export.MaxPageSize = 500
	}
	if c.Export.RecentLimit == 0 {
		c.Export.RecentLimit = 15
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the sqlite3 driver")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := ParseClock(c.Schedule.SnackTime); err != nil {
		return fmt.Errorf("schedule.snack_time: %w", err)
	}
	if _, _, err := ParseClock(c.Schedule.LunchTime); err != nil {
		return fmt.Errorf("schedule.lunch_time: %w", err)
	}
	if c.Reconciliation.MaxConflictAttempts < 1 {
		return fmt.Errorf("reconciliation.max_conflict_attempts must be at least 1")
	}
	if c.Export.DefaultPageSize > c.Export.MaxPageSize {
		return fmt.Errorf("export.default_page_size %d exceeds export.max_page_size %d",
			c.Export.DefaultPageSize, c.Export.MaxPageSize)
	}
	return nil
}

// Location is the school's timezone. "Today" everywhere is computed in it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// ParseClock parses a HH:MM wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time format %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// MySQL DSN format: [username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == DriverSQLite {
		return SQLiteDSN(c.Database.Path)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset, c.Database.ParseTime, c.Database.Loc)
}

// SQLiteDSN opens write transactions immediately so concurrent writers queue
// on the busy timeout instead of deadlocking on lock upgrade.
func SQLiteDSN(path string) string {
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
