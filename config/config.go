// Package config loads settings from defaults, an optional YAML file, .env
// files and the environment, in that order of increasing priority.
//
// Environment variables are bound with the env struct tag:
//
//	BIST_OUTPUT_DIR=public
//	BIST_REDIS_ADDR=localhost:6379
//	BIST_SCHEDULE="0 */2 * * *"
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"bistscrapper/ipo"
	"bistscrapper/scraper"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	OutputDir     string       `yaml:"output_dir" env:"BIST_OUTPUT_DIR"`
	LogLevel      string       `yaml:"log_level" env:"LOG_LEVEL"`
	Port          string       `yaml:"port" env:"PORT"`
	Schedule      string       `yaml:"schedule" env:"BIST_SCHEDULE"`
	OverridesFile string       `yaml:"overrides_file" env:"BIST_OVERRIDES_FILE"`
	Sources       scraper.URLs `yaml:"sources"`
	// Referers are sent by the named sources' fetchers.
	Referers map[string]string `yaml:"referers"`
	Fetch    Fetch             `yaml:"fetch"`
	Redis    Redis             `yaml:"redis"`
	Browser  Browser           `yaml:"browser"`
}

type Fetch struct {
	Timeout      time.Duration `yaml:"timeout" env:"BIST_FETCH_TIMEOUT"`
	ProfileDelay time.Duration `yaml:"profile_delay" env:"BIST_PROFILE_DELAY"`
	Concurrency  int           `yaml:"concurrency" env:"BIST_CONCURRENCY"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env:"BIST_CACHE_TTL"`
}

// Redis is optional; without an address documents are cached in memory.
type Redis struct {
	Addr     string `yaml:"addr" env:"BIST_REDIS_ADDR"`
	Password string `yaml:"password" env:"BIST_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"BIST_REDIS_DB"`
}

// Browser controls the headless Chrome pool used for broker reports.
type Browser struct {
	Enabled bool `yaml:"enabled" env:"BIST_BROWSER"`
	MinSize int  `yaml:"min_size"`
	MaxSize int  `yaml:"max_size"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		OutputDir: "public",
		LogLevel:  "info",
		Port:      "8000",
		Schedule:  "0 */2 * * *",
		Sources:   scraper.DefaultURLs,
		Referers: map[string]string{
			"dividends": "https://halkarz.com/temettu-takvimi/",
			"targets":   "https://halkarz.com/",
			"capital":   "https://halkarz.com/",
		},
		Fetch: Fetch{
			Timeout:      30 * time.Second,
			ProfileDelay: 2 * time.Second,
			Concurrency:  4,
			CacheTTL:     10 * time.Minute,
		},
		Browser: Browser{MinSize: 1, MaxSize: 3},
	}
}

// Load builds the configuration. An empty path skips the YAML file; a
// missing .env or .env.local is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := loadEnvFiles(); err != nil {
		return cfg, err
	}
	applyEnv(reflect.ValueOf(&cfg).Elem())
	return cfg, cfg.Validate()
}

// .env.local is loaded first so its values win; godotenv never replaces a
// variable that is already set.
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Validate checks the values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency))
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule %q: %w", c.Schedule, err))
		}
	}
	return errors.Join(errs...)
}

func applyEnv(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			applyEnv(field)
			continue
		}
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		if val, ok := os.LookupEnv(name); ok && val != "" {
			setField(field, val)
		}
	}
}

func setField(field reflect.Value, val string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Bool:
		if b, err := strconv.ParseBool(val); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(val); err == nil {
				field.SetInt(int64(d))
			}
			return
		}
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			field.SetInt(n)
		}
	}
}

// LoadOverrides reads curated records from a YAML list. A record names the
// offering with company and may list aliases matching other spellings.
func LoadOverrides(path string, now time.Time) ([]ipo.Override, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	overrides := make([]ipo.Override, 0, len(raw))
	for _, fields := range raw {
		o := ipo.OverrideFromRaw(fields, now)
		if o.Record.Company == "" {
			continue
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}
