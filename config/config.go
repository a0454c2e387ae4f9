package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Site       *SiteConfig
	Fetch      FetchConfig
	Staging    StagingConfig
	Scheduler  SchedulerConfig
	Postgres   PostgresConfig
	S3         S3Config
	LedgerPath string
	LogFile    string
	LogLevel   string
}

type FetchConfig struct {
	// Timeout bounds a single attempt. Zero leaves attempts unbounded.
	Timeout time.Duration
}

type StagingConfig struct {
	ProcessedDir string
	LoadedDir    string
}

type SchedulerConfig struct {
	Cron string
}

type PostgresConfig struct {
	DSN    string
	Schema string
	Table  string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, MinIO
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type SiteConfig struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	Handler           string            `yaml:"handler"`
	BaseURL           string            `yaml:"base_url"`
	SearchPath        string            `yaml:"search_path"`
	ListingKind       string            `yaml:"listing_kind"`
	LocationsURL      string            `yaml:"locations_url"`
	UserAgent         string            `yaml:"user_agent"`
	RateLimitMS       int               `yaml:"rate_limit_ms"`
	MaxPages          int               `yaml:"max_pages"`
	MaxRetries        int               `yaml:"max_retries"`
	SearchQuery       map[string]string `yaml:"search_query"`
	Regions           []TargetRegion    `yaml:"regions"`
	DistrictOverrides map[string]string `yaml:"district_overrides"`
}

// TargetRegion selects directory rows to search. An empty City matches every
// city of the region.
type TargetRegion struct {
	Region string `yaml:"region"`
	City   string `yaml:"city"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Staging: StagingConfig{
			ProcessedDir: getEnv("STAGING_DIR", filepath.Join("data", "processed")),
			LoadedDir:    getEnv("LOADED_DIR", filepath.Join("data", "loaded")),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Postgres: PostgresConfig{
			DSN:    os.Getenv("PG_DSN"),
			Schema: getEnv("PG_SCHEMA", "landing"),
			Table:  getEnv("PG_TABLE", "properties_listing"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("S3_PREFIX", "loaded"),
		},
		LedgerPath: getEnv("LEDGER_PATH", "loader.db"),
		LogFile:    getEnv("LOG_FILE", "scraper.log"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	if timeout := os.Getenv("FETCH_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("FETCH_TIMEOUT: %w", err)
		}
		cfg.Fetch.Timeout = d
	}

	site, err := LoadSite(getEnv("SITE_CONFIG_DIR", filepath.Join("config", "sites")), getEnv("SITE_ID", "urbania"))
	if err != nil {
		return nil, err
	}
	site.MaxRetries = getEnvInt("FETCH_MAX_RETRIES", site.MaxRetries)
	site.MaxPages = getEnvInt("MAX_PAGES", site.MaxPages)
	cfg.Site = site

	return cfg, nil
}

// LoadSite reads every yaml file in dir and returns the one whose id matches.
func LoadSite(dir, id string) (*SiteConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read site configs: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		site, err := ParseSite(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if site.ID == id {
			return site, nil
		}
	}

	return nil, fmt.Errorf("no site config with id %q in %s", id, dir)
}

func ParseSite(data []byte) (*SiteConfig, error) {
	var site SiteConfig
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, err
	}
	site.applyDefaults()
	if site.BaseURL == "" {
		return nil, fmt.Errorf("site %q: base_url is required", site.ID)
	}
	return &site, nil
}

func (s *SiteConfig) applyDefaults() {
	if s.Handler == "" {
		s.Handler = "http"
	}
	if s.SearchPath == "" {
		s.SearchPath = "buscar"
	}
	if s.MaxPages <= 0 {
		s.MaxPages = 1000
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.UserAgent == "" {
		s.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	}
	if s.SearchQuery == nil {
		s.SearchQuery = map[string]string{}
	}
	if s.DistrictOverrides == nil {
		s.DistrictOverrides = map[string]string{}
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
