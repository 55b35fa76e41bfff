// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Sync          SyncConfig         `mapstructure:"sync"`
	Match         MatchConfig        `mapstructure:"match"`
	Download      DownloadConfig     `mapstructure:"download"`
	Search        SearchConfig       `mapstructure:"search"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SyncConfig holds the ingestion pipeline settings.
type SyncConfig struct {
	SourceDir      string `mapstructure:"source_dir"`
	BatchSize      int    `mapstructure:"batch_size"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
	ClaimTTL       int    `mapstructure:"claim_ttl"`   // milliseconds
	RunTimeout     int    `mapstructure:"run_timeout"` // milliseconds
}

// MatchConfig holds the fuzzy-matching settings. Threshold names must match
// entries of the strictness catalog.
type MatchConfig struct {
	NameAddressThreshold string `mapstructure:"name_address_threshold"`
	PostcodeThreshold    string `mapstructure:"postcode_threshold"`
	QueryTimeout         int    `mapstructure:"query_timeout"` // milliseconds
	CacheEnabled         bool   `mapstructure:"cache_enabled"`
	CacheTTL             int    `mapstructure:"cache_ttl"` // milliseconds
}

// DownloadConfig holds settings for fetching authority export files.
type DownloadConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	BaseURL     string   `mapstructure:"base_url"`
	Authorities []string `mapstructure:"authorities"`
	Timeout     int      `mapstructure:"timeout"` // milliseconds
	MaxRetries  int      `mapstructure:"max_retries"`
}

// SearchConfig holds settings for the optional Elasticsearch index.
type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// NotificationConfig holds settings for the run-summary notifier.
type NotificationConfig struct {
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool     `mapstructure:"enabled"`
		SenderID string   `mapstructure:"sender_id"`
		To       []string `mapstructure:"to"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
