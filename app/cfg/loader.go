package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

// ninjaMarker identifies the paginated catfact.ninja API when the strategy is auto.
const ninjaMarker = "catfact.ninja"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Upstream API
	APIBaseURL    string  `long:"api-base-url" env:"API_BASE_URL" default:"https://catfact.ninja" description:"Base URL of the cat facts API" validate:"required,url"`
	APITimeout    int     `long:"api-timeout" env:"API_TIMEOUT" default:"30" description:"Request timeout in seconds" validate:"min=1"`
	APIMaxRetries int     `long:"api-max-retries" env:"API_MAX_RETRIES" default:"3" description:"Maximum attempts per request" validate:"min=1"`
	APIRetryDelay int     `long:"api-retry-delay" env:"API_RETRY_DELAY" default:"2" description:"Base delay between attempts in seconds" validate:"min=0"`
	APIVerifySSL  string  `long:"api-verify-ssl" env:"API_VERIFY_SSL" default:"false" description:"Verify TLS certificates (true/1/yes)"`
	APIRateLimit  float64 `long:"api-rate-limit" env:"API_RATE_LIMIT" default:"0" description:"Maximum requests per second, 0 disables pacing" validate:"min=0"`
	UserAgent     string  `long:"user-agent" env:"USER_AGENT" default:"CatFactsCollector/1.0" description:"User agent string for HTTP requests"`

	// Extraction
	Strategy    string `long:"strategy" env:"FETCH_STRATEGY" default:"auto" description:"Fetch strategy: auto, bulk or paginated" validate:"oneof=auto bulk paginated"`
	ProfilePath string `long:"profile" env:"API_PROFILE" description:"Optional YAML file describing the API shape"`
	AnimalType  string `long:"animal-type" env:"ANIMAL_TYPE" default:"cat" description:"Animal type requested in bulk mode" validate:"required"`
	MaxPages    int    `long:"max-pages" env:"MAX_PAGES" default:"10" description:"Upper bound of pages fetched in paginated mode" validate:"min=1"`
	BatchSize   int    `long:"batch-size" env:"BATCH_SIZE" default:"100" description:"Page size in paginated mode" validate:"min=1"`
	MaxRecords  int    `long:"max-records" env:"MAX_RECORDS" default:"1000" description:"Maximum raw records kept per run, 0 for no limit" validate:"min=0"`

	// Output
	OutputDir      string `long:"output-dir" env:"OUTPUT_DIR" default:"data" description:"Directory for the CSV output" validate:"required"`
	OutputFilename string `long:"output-filename" env:"OUTPUT_FILENAME" default:"cat_facts.csv" description:"CSV output file name" validate:"required"`
	LogsDir        string `long:"logs-dir" env:"LOGS_DIR" default:"logs" description:"Directory for the log file" validate:"required"`
	LogLevel       string `long:"log-level" env:"LOG_LEVEL" default:"INFO" description:"Log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)" validate:"oneof=DEBUG INFO WARN WARNING ERROR CRITICAL"`
	SQLitePath     string `long:"sqlite-path" env:"SQLITE_PATH" description:"Optional SQLite archive of facts and runs"`
	MetricsFile    string `long:"metrics-file" env:"METRICS_FILE" description:"Optional Prometheus textfile written after each run"`

	Interval int `long:"interval" env:"RUN_INTERVAL" default:"0" description:"Seconds between runs, 0 runs once" validate:"min=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads .env, the environment and command-line flags. It returns nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	raw.LogLevel = strings.ToUpper(strings.TrimSpace(raw.LogLevel))
	raw.Strategy = strings.ToLower(strings.TrimSpace(raw.Strategy))
	if err := validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	profile := Profile{
		Strategy:   Strategy(raw.Strategy),
		PageSize:   raw.BatchSize,
		MaxPages:   raw.MaxPages,
		BulkAmount: DefaultBulkAmount,
	}
	if raw.ProfilePath != "" {
		fileProfile, err := LoadProfile(raw.ProfilePath)
		if err != nil {
			return nil, err
		}
		profile = mergeProfile(profile, fileProfile)
	}
	applyProfileDefaults(&profile)
	profile.Strategy = ResolveStrategy(profile.Strategy, raw.APIBaseURL)

	return &Cfg{
		APIBaseURL:     strings.TrimRight(raw.APIBaseURL, "/"),
		APITimeout:     time.Duration(raw.APITimeout) * time.Second,
		APIMaxRetries:  raw.APIMaxRetries,
		APIRetryDelay:  time.Duration(raw.APIRetryDelay) * time.Second,
		APIVerifySSL:   parseBool(raw.APIVerifySSL),
		APIRateLimit:   raw.APIRateLimit,
		UserAgent:      raw.UserAgent,
		Profile:        profile,
		AnimalType:     raw.AnimalType,
		MaxRecords:     raw.MaxRecords,
		OutputDir:      raw.OutputDir,
		OutputFilename: raw.OutputFilename,
		LogsDir:        raw.LogsDir,
		LogLevel:       raw.LogLevel,
		SQLitePath:     raw.SQLitePath,
		MetricsFile:    raw.MetricsFile,
		Interval:       time.Duration(raw.Interval) * time.Second,
		Version:        GetVersion(),
	}, nil
}

// ResolveStrategy turns auto into a concrete strategy based on the base URL.
func ResolveStrategy(s Strategy, baseURL string) Strategy {
	if s != StrategyAuto && s != "" {
		return s
	}
	if strings.Contains(baseURL, ninjaMarker) {
		return StrategyPaginated
	}
	return StrategyBulk
}

// EnsureDirectories creates the output and logs directories.
func (c *Cfg) EnsureDirectories() error {
	for _, dir := range []string{c.OutputDir, c.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
