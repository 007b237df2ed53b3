package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"CEQAScanner/internal/classifier"
	"CEQAScanner/internal/location"
)

const (
	defaultTimezone   = "America/Los_Angeles"
	configPathEnv     = "CEQA_SCANNER_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	maxProjectsEnv    = "MAX_PROJECTS"
	geocoderUAEnv     = "GEOCODER_USER_AGENT"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

var (
	ErrMissingDSN       = errors.New("database dsn is required")
	ErrUnknownDriver    = errors.New("unknown database driver")
	ErrMissingUserAgent = errors.New("geocoder user agent is required")
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Source        SourceConfig       `yaml:"source"`
	Geocoder      GeocoderConfig     `yaml:"geocoder"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Classifier    classifier.Lexicon `yaml:"classifier"`
	Gazetteer     location.Gazetteer `yaml:"gazetteer"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes where records are upserted.
type DatabaseConfig struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	Table         string `yaml:"table"`
	MongoDatabase string `yaml:"mongoDatabase"`
}

// SourceConfig drives the CEQAnet page source.
type SourceConfig struct {
	BaseURL        string        `yaml:"baseUrl"`
	SearchURL      string        `yaml:"searchUrl"`
	UserAgent      string        `yaml:"userAgent"`
	PageDelay      time.Duration `yaml:"pageDelay"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxProjects    int           `yaml:"maxProjects"`
	// SearchQuery holds advanced-search filters (counties, project and
	// document types, date range) added to SearchURL's query string.
	SearchQuery map[string][]string `yaml:"searchQuery"`
}

// GeocoderConfig describes the Nominatim provider and its pacing.
type GeocoderConfig struct {
	Disabled    bool          `yaml:"disabled"`
	Endpoint    string        `yaml:"endpoint"`
	UserAgent   string        `yaml:"userAgent"`
	State       string        `yaml:"state"`
	MinInterval time.Duration `yaml:"minInterval"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SchedulerConfig defines when the scanner should run.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads .env, the YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: %v (falling back to defaults)", err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate reports configuration that must stop the process before any work starts.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("%s: %w", c.Database.Driver, ErrMissingDSN)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%q: %w", c.Database.Driver, ErrUnknownDriver)
	}

	if !c.Geocoder.Disabled && strings.TrimSpace(c.Geocoder.UserAgent) == "" {
		return ErrMissingUserAgent
	}

	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.CronExpression); err != nil {
			return fmt.Errorf("scheduler cron %q: %w", c.Scheduler.CronExpression, err)
		}
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(maxProjectsEnv); v != "" {
		if n, err := strconv.Atoi(v); err != nil {
			log.Printf("config: invalid %s=%q: %v", maxProjectsEnv, v, err)
		} else {
			c.Source.MaxProjects = n
		}
	}

	if v := os.Getenv(geocoderUAEnv); v != "" {
		c.Geocoder.UserAgent = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Table != "" {
		base.Database.Table = override.Database.Table
	}
	if override.Database.MongoDatabase != "" {
		base.Database.MongoDatabase = override.Database.MongoDatabase
	}

	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.SearchURL != "" {
		base.Source.SearchURL = override.Source.SearchURL
	}
	if override.Source.UserAgent != "" {
		base.Source.UserAgent = override.Source.UserAgent
	}
	if override.Source.PageDelay > 0 {
		base.Source.PageDelay = override.Source.PageDelay
	}
	if override.Source.RequestTimeout > 0 {
		base.Source.RequestTimeout = override.Source.RequestTimeout
	}
	if override.Source.MaxProjects > 0 {
		base.Source.MaxProjects = override.Source.MaxProjects
	}
	if len(override.Source.SearchQuery) > 0 {
		base.Source.SearchQuery = override.Source.SearchQuery
	}

	base.Geocoder = mergeGeocoder(base.Geocoder, override.Geocoder)

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	base.Scheduler.Enabled = base.Scheduler.Enabled || override.Scheduler.Enabled

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Classifier.High)+len(override.Classifier.Medium)+len(override.Classifier.Low) > 0 {
		base.Classifier = override.Classifier
	}

	if len(override.Gazetteer.Counties) > 0 {
		base.Gazetteer = override.Gazetteer
	}

	return base
}

func mergeGeocoder(base, override GeocoderConfig) GeocoderConfig {
	base.Disabled = base.Disabled || override.Disabled
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	if override.State != "" {
		base.State = override.State
	}
	if override.MinInterval > 0 {
		base.MinInterval = override.MinInterval
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: DriverPostgres, Table: "warehouse_projects", MongoDatabase: "ceqa"},
		Source: SourceConfig{
			BaseURL:        "https://ceqanet.lci.ca.gov",
			SearchURL:      "https://ceqanet.lci.ca.gov/Search/Advanced",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			PageDelay:      2 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxProjects:    50,
		},
		Geocoder: GeocoderConfig{
			Endpoint:    "https://nominatim.openstreetmap.org",
			UserAgent:   "byc_warehouse_scraper",
			State:       "CA",
			MinInterval: time.Second,
			Timeout:     10 * time.Second,
		},
		Scheduler:  SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone},
		Classifier: classifier.DefaultLexicon(),
		Gazetteer:  location.DefaultGazetteer(),
	}
}
