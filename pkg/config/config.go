package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"ContraTrack/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps"`
		RateLimitBurst  int           `yaml:"rate_limit_burst"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		// Collect ships aggregated warn/error logs to the logs topic.
		Collect       bool          `yaml:"collect"`
		FlushInterval time.Duration `yaml:"flush_interval"`
	} `yaml:"logger"`
	Analysis struct {
		Lookup     string        `yaml:"lookup"` // exact | nearest
		MaxGapDays int           `yaml:"max_gap_days"`
		Rule       string        `yaml:"rule"` // literal | strict
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"analysis"`
	Data struct {
		Backend    string `yaml:"backend"` // file | clickhouse
		JSONDir    string `yaml:"json_dir"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"data"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Topics       struct {
			Analysis        string `yaml:"analysis"`
			Recommendations string `yaml:"recommendations"`
			Logs            string `yaml:"logs"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Yahoo struct {
		BaseURL  string        `yaml:"base_url"`
		Range    string        `yaml:"range"`
		Interval string        `yaml:"interval"`
		RPS      float64       `yaml:"rps"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"yahoo"`
	Scraper struct {
		UserAgent string          `yaml:"user_agent"`
		Timeout   time.Duration   `yaml:"timeout"`
		Sources   []ScraperSource `yaml:"sources"`
	} `yaml:"scraper"`
	Scheduler struct {
		Enabled    bool     `yaml:"enabled"`
		IngestCron string   `yaml:"ingest_cron"`
		RunOnStart bool     `yaml:"run_on_start"`
		Symbols    []string `yaml:"symbols"`
	} `yaml:"scheduler"`
	Tracing struct {
		Enabled     bool   `yaml:"enabled"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
}

// ScraperSource describes one HTML page and the selectors that locate calls on it.
type ScraperSource struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	ItemSelector string `yaml:"item_selector"`
	TextSelector string `yaml:"text_selector"`
	DateSelector string `yaml:"date_selector"`
	DateAttr     string `yaml:"date_attr"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.overrideFromEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DATA_BACKEND"); v != "" {
		c.Data.Backend = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.JSONDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Data.SQLitePath = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Scheduler.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("ANALYSIS_LOOKUP"); v != "" {
		c.Analysis.Lookup = v
	}
	if v := os.Getenv("ANALYSIS_MAX_GAP_DAYS"); v != "" {
		c.Analysis.MaxGapDays = util.ParseIntDefault(v, c.Analysis.MaxGapDays)
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Analysis.Lookup == "" {
		c.Analysis.Lookup = "exact"
	}
	if c.Analysis.Rule == "" {
		c.Analysis.Rule = "literal"
	}
	if c.Analysis.CacheTTL == 0 {
		c.Analysis.CacheTTL = 10 * time.Minute
	}
	if c.Data.Backend == "" {
		c.Data.Backend = "file"
	}
	if c.Data.JSONDir == "" {
		c.Data.JSONDir = "data"
	}
	if c.Kafka.Topics.Analysis == "" {
		c.Kafka.Topics.Analysis = "contratrack.analysis"
	}
	if c.Kafka.Topics.Recommendations == "" {
		c.Kafka.Topics.Recommendations = "contratrack.recommendations"
	}
	if c.Kafka.Topics.Logs == "" {
		c.Kafka.Topics.Logs = "contratrack.logs"
	}
	if c.Yahoo.BaseURL == "" {
		c.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.Yahoo.Range == "" {
		c.Yahoo.Range = "5y"
	}
	if c.Yahoo.Interval == "" {
		c.Yahoo.Interval = "1d"
	}
	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 15 * time.Second
	}
	if c.Scheduler.IngestCron == "" {
		c.Scheduler.IngestCron = "0 30 22 * * 1-5"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "contratrack"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Data.Backend {
	case "file", "clickhouse":
	default:
		return fmt.Errorf("data.backend must be 'file' or 'clickhouse', got '%s'", c.Data.Backend)
	}
	if c.Analysis.Lookup != "exact" && c.Analysis.Lookup != "nearest" {
		return fmt.Errorf("analysis.lookup must be 'exact' or 'nearest', got '%s'", c.Analysis.Lookup)
	}
	if c.Analysis.Rule != "literal" && c.Analysis.Rule != "strict" {
		return fmt.Errorf("analysis.rule must be 'literal' or 'strict', got '%s'", c.Analysis.Rule)
	}
	if c.Analysis.MaxGapDays < 0 || c.Analysis.MaxGapDays > 10 {
		return fmt.Errorf("analysis.max_gap_days must be within [0,10], got %d", c.Analysis.MaxGapDays)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Scheduler.Enabled && len(c.Scheduler.Symbols) == 0 {
		return fmt.Errorf("scheduler.symbols cannot be empty when the scheduler is enabled")
	}
	for i, s := range c.Scraper.Sources {
		if s.URL == "" || s.ItemSelector == "" {
			return fmt.Errorf("scraper.sources[%d]: url and item_selector are required", i)
		}
	}
	return nil
}
