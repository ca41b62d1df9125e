package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration. Publishing is disabled when URL is empty.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// RedisConfig holds the scan lock configuration. Locking is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// ChainConfig holds the EVM chain configuration
type ChainConfig struct {
	RPCURL      string        `mapstructure:"rpc_url"`
	ChainID     int64         `mapstructure:"chain_id"`
	Name        string        `mapstructure:"name"` // Subject segment of published events
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// ScanConfig holds the scan cadence
type ScanConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	WindowSize uint64        `mapstructure:"window_size"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// EnrichConfig holds the shared settings of the risk and market lookups
type EnrichConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`      // Per lookup, including rate limit wait and retries
	HTTPTimeout time.Duration `mapstructure:"http_timeout"` // Per HTTP attempt
	MaxWorkers  int           `mapstructure:"max_workers"`  // Concurrent outbound requests across providers
}

// TokenSnifferConfig holds the risk service configuration
type TokenSnifferConfig struct {
	URL               string  `mapstructure:"url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CoinGeckoConfig holds the market service configuration
type CoinGeckoConfig struct {
	URL               string  `mapstructure:"url"`
	APIKey            string  `mapstructure:"api_key"`
	Platform          string  `mapstructure:"platform"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// MetricsConfig holds the metrics listener configuration
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// PipelineConfig holds everything a process needs to run scan passes
type PipelineConfig struct {
	Chain          ChainConfig        `mapstructure:"chain"`
	Scanner        ScanConfig         `mapstructure:"scanner"`
	Worker         WorkerConfig       `mapstructure:"worker"`
	Enrich         EnrichConfig       `mapstructure:"enrich"`
	TokenSniffer   TokenSnifferConfig `mapstructure:"tokensniffer"`
	CoinGecko      CoinGeckoConfig    `mapstructure:"coingecko"`
	NATS           NATSConfig         `mapstructure:"nats"`
	Redis          RedisConfig        `mapstructure:"redis"`
	IgnoreListPath string             `mapstructure:"ignore_list_path"`
}

// ScannerConfig holds configuration for the scanner program
type ScannerConfig struct {
	BaseConfig     `mapstructure:",squash"`
	PipelineConfig `mapstructure:",squash"`
	Database       DatabaseConfig `mapstructure:"database"`
	Metrics        MetricsConfig  `mapstructure:"metrics"`
}

// APIConfig holds configuration for API server. When scanner.enabled is set the
// server embeds a scanner that list requests trigger.
type APIConfig struct {
	BaseConfig     `mapstructure:",squash"`
	PipelineConfig `mapstructure:",squash"`
	Server         ServerConfig   `mapstructure:"server"`
	Database       DatabaseConfig `mapstructure:"database"`
}

// setPipelineDefaults sets defaults shared by every process that scans
func setPipelineDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.name", "base")
	v.SetDefault("chain.call_timeout", "10s")
	v.SetDefault("scanner.enabled", true)
	v.SetDefault("scanner.interval", "60s")
	v.SetDefault("scanner.window_size", 5)
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.queue_size", 256)
	v.SetDefault("enrich.timeout", "10s")
	v.SetDefault("enrich.http_timeout", "8s")
	v.SetDefault("enrich.max_workers", 16)
	v.SetDefault("tokensniffer.url", "https://tokensniffer.com/api")
	v.SetDefault("tokensniffer.requests_per_second", 1)
	v.SetDefault("tokensniffer.burst", 2)
	v.SetDefault("coingecko.url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.platform", "base")
	v.SetDefault("coingecko.requests_per_second", 0.5)
	v.SetDefault("coingecko.burst", 1)
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "TOKEN_EVENTS")
	v.SetDefault("nats.connection_name", "token-scanner")
	v.SetDefault("redis.lock_ttl", "5m")
	v.SetDefault("ignore_list_path", "config/ignore_list.json")
}

// LoadScannerConfig loads configuration for the scanner program
func LoadScannerConfig(configFile string, envPath string) (*ScannerConfig, error) {
	v := configureViper("scanner", configFile, envPath)

	// Set defaults
	setPipelineDefaults(v)
	v.SetDefault("metrics.addr", ":9090")

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg ScannerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Chain.RPCURL == "" {
		return nil, errors.New("chain.rpc_url is required")
	}

	return &cfg, nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	setPipelineDefaults(v)
	v.SetDefault("debug", false)
	v.SetDefault("scanner.enabled", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Scanner.Enabled && cfg.Chain.RPCURL == "" {
		return nil, errors.New("chain.rpc_url is required when scanner.enabled is set")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/scanner/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("TOKEN_SCANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Chain
		"chain.rpc_url",
		"chain.chain_id",
		"chain.name",
		"chain.call_timeout",
		// Scanner
		"scanner.enabled",
		"scanner.interval",
		"scanner.window_size",
		"worker.pool_size",
		"worker.queue_size",
		// Enrichment
		"enrich.timeout",
		"enrich.http_timeout",
		"enrich.max_workers",
		"tokensniffer.url",
		"tokensniffer.api_key",
		"tokensniffer.requests_per_second",
		"tokensniffer.burst",
		"coingecko.url",
		"coingecko.api_key",
		"coingecko.platform",
		"coingecko.requests_per_second",
		"coingecko.burst",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.lock_ttl",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"metrics.addr",
		"ignore_list_path",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
