package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverValkey   = "valkey"
)

// Supported ranking backends.
const (
	ScorerTFIDF     = "tfidf"
	ScorerEmbedding = "embedding"
)

// Config holds the linkrank configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Keywords  KeywordsConfig  `yaml:"keywords"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Lists     ListsConfig     `yaml:"lists"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds page store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // sqlite, postgres, redis, valkey (default: sqlite)
	Path             string   `yaml:"path"`   // sqlite file
	DSN              string   `yaml:"dsn"`    // postgres
	Addrs            []string `yaml:"addrs"`  // redis/valkey
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CrawlerConfig holds sitemap and page fetch settings.
type CrawlerConfig struct {
	TimeoutSec         int    `yaml:"timeout_sec"`
	WordLimit          int    `yaml:"word_limit"`
	Workers            int    `yaml:"workers"`
	UserAgent          string `yaml:"user_agent"`
	MaxRetries         int    `yaml:"max_retries"` // -1 disables retries
	RetryBaseDelayMs   int    `yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs    int    `yaml:"retry_max_delay_ms"`
	FollowSitemapIndex bool   `yaml:"follow_sitemap_index"`
	MaxBodyBytes       int64  `yaml:"max_body_bytes"`
}

// Timeout returns the per-request HTTP timeout.
func (c CrawlerConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// KeywordsConfig holds keyword extraction settings.
type KeywordsConfig struct {
	Count           int  `yaml:"count"`
	IncludeURLTerms bool `yaml:"include_url_terms"`
}

// RankingConfig holds relevance ranking settings.
type RankingConfig struct {
	TitleWeight int     `yaml:"title_weight"`
	Threshold   *float64 `yaml:"threshold"` // nil means 0.15; 0 is honored
	TopK        int     `yaml:"top_k"`
	MaxFeatures int     `yaml:"max_features"`
	NgramMax    int     `yaml:"ngram_max"`
	MinDF       int     `yaml:"min_df"`
	MaxDF       float64 `yaml:"max_df"`
	Scorer      string  `yaml:"scorer"` // tfidf, embedding (default: tfidf)
}

// EmbeddingConfig holds the OpenAI-compatible embedding backend settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// ListsConfig holds inclusion/exclusion list file paths.
type ListsConfig struct {
	ExclusionFile string `yaml:"exclusion_file"`
	InclusionFile string `yaml:"inclusion_file"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// crawls are synchronous and can take a while
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "linkrank.db"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "linkrank:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.Crawler.applyDefaults()

	if c.Keywords.Count <= 0 {
		c.Keywords.Count = 10
	}

	if c.Ranking.TitleWeight == 0 {
		c.Ranking.TitleWeight = 2
	}
	if c.Ranking.Threshold == nil {
		t := 0.15
		c.Ranking.Threshold = &t
	}
	if c.Ranking.TopK <= 0 {
		c.Ranking.TopK = 10
	}
	if c.Ranking.MaxFeatures <= 0 {
		c.Ranking.MaxFeatures = 5000
	}
	if c.Ranking.NgramMax <= 0 {
		c.Ranking.NgramMax = 2
	}
	if c.Ranking.MinDF <= 0 {
		c.Ranking.MinDF = 2
	}
	if c.Ranking.MaxDF == 0 {
		c.Ranking.MaxDF = 0.8
	}
	if c.Ranking.Scorer == "" {
		c.Ranking.Scorer = ScorerTFIDF
	}

	if c.Lists.ExclusionFile == "" {
		c.Lists.ExclusionFile = "exclusion_list.txt"
	}
	if c.Lists.InclusionFile == "" {
		c.Lists.InclusionFile = "inclusion_list.txt"
	}
}

func (c *CrawlerConfig) applyDefaults() {
	if c.TimeoutSec <= 0 {
		c.TimeoutSec = 10
	}
	if c.WordLimit <= 0 {
		c.WordLimit = 1000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.UserAgent == "" {
		c.UserAgent = "linkrank/1.0 (+internal link suggestions)"
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	} else if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryBaseDelayMs <= 0 {
		c.RetryBaseDelayMs = 250
	}
	if c.RetryMaxDelayMs <= 0 {
		c.RetryMaxDelayMs = 2000
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 << 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of sqlite, postgres, redis, valkey, got %q", c.Database.Driver)
	}

	if t := c.Ranking.Threshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("ranking.threshold must be between 0 and 1, got %v", *t)
	}
	if c.Ranking.TitleWeight < 1 {
		return fmt.Errorf("ranking.title_weight must be >= 1, got %d", c.Ranking.TitleWeight)
	}
	if c.Ranking.MaxDF <= 0 || c.Ranking.MaxDF > 1 {
		return fmt.Errorf("ranking.max_df must be in (0, 1], got %v", c.Ranking.MaxDF)
	}

	switch c.Ranking.Scorer {
	case ScorerTFIDF:
	case ScorerEmbedding:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for scorer %q", c.Ranking.Scorer)
		}
	default:
		return fmt.Errorf("ranking.scorer must be \"tfidf\" or \"embedding\", got %q", c.Ranking.Scorer)
	}

	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
