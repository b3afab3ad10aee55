package cfg

import (
	"path/filepath"
	"time"
)

// Strategy selects which upstream API shape the collector talks to.
type Strategy string

const (
	StrategyAuto      Strategy = "auto"
	StrategyBulk      Strategy = "bulk"
	StrategyPaginated Strategy = "paginated"
)

type Endpoints struct {
	List   string `yaml:"list"`
	Random string `yaml:"random"`
}

// Profile describes the upstream API shape. It can be loaded from YAML with LoadProfile.
type Profile struct {
	Strategy   Strategy  `yaml:"strategy"`
	Endpoints  Endpoints `yaml:"endpoints"`
	PageSize   int       `yaml:"page_size"`
	MaxPages   int       `yaml:"max_pages"`
	BulkAmount int       `yaml:"bulk_amount"`
}

type Cfg struct {
	// Upstream API
	APIBaseURL    string
	APITimeout    time.Duration
	APIMaxRetries int
	APIRetryDelay time.Duration
	APIVerifySSL  bool
	APIRateLimit  float64
	UserAgent     string

	// Extraction
	Profile    Profile
	AnimalType string
	MaxRecords int

	// Output
	OutputDir      string
	OutputFilename string
	LogsDir        string
	LogLevel       string
	SQLitePath     string
	MetricsFile    string

	Interval time.Duration
	Version  string
}

func (c *Cfg) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFilename)
}

func (c *Cfg) LogFilePath() string {
	return filepath.Join(c.LogsDir, "cat_facts_extraction.log")
}

// Display returns the configuration as slog key/value pairs.
func (c *Cfg) Display() []any {
	return []any{
		"api_base_url", c.APIBaseURL,
		"api_timeout", c.APITimeout.String(),
		"api_max_retries", c.APIMaxRetries,
		"api_retry_delay", c.APIRetryDelay.String(),
		"api_verify_ssl", c.APIVerifySSL,
		"strategy", string(c.Profile.Strategy),
		"page_size", c.Profile.PageSize,
		"max_pages", c.Profile.MaxPages,
		"output_path", c.OutputPath(),
		"log_level", c.LogLevel,
		"max_records", c.MaxRecords,
		"sqlite_path", c.SQLitePath,
		"interval", c.Interval.String(),
		"version", c.Version,
	}
}
