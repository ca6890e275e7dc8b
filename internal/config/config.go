package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when required settings are missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// DefaultBaseURL is the job board the scraper was written against.
	DefaultBaseURL    = "https://www.greaterroccareers.com"
	DefaultOutputFile = "extracted-jobs.json"
	DefaultMaxJobs    = 20

	configName = "job-scraper"
)

// Config holds the application configuration
type Config struct {
	BaseURL    string `mapstructure:"base_url" validate:"required,url"`
	LoginPath  string `mapstructure:"login_path" validate:"required,startswith=/"`
	SearchPath string `mapstructure:"search_path" validate:"required,startswith=/"`
	ApplyPath  string `mapstructure:"apply_path" validate:"required,startswith=/"`

	// Account credentials. Never logged or printed unredacted.
	Email    string `mapstructure:"email" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`

	OutputFile    string `mapstructure:"output_file" validate:"required"`
	ArtifactDir   string `mapstructure:"artifact_dir" validate:"required"`
	Headless      bool   `mapstructure:"headless"`
	LogLevel      string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MaxJobs       int    `mapstructure:"max_jobs" validate:"min=1,max=20"`
	JobPathMarker string `mapstructure:"job_path_marker" validate:"required"`

	Selectors Selectors `mapstructure:"selectors"`
	Timeouts  Timeouts  `mapstructure:"timeouts"`
}

// Selectors are ordered candidate lists; the first one that matches wins.
type Selectors struct {
	Listing  string   `mapstructure:"listing" validate:"required"`
	Email    []string `mapstructure:"email" validate:"min=1,dive,required"`
	Password []string `mapstructure:"password" validate:"min=1,dive,required"`
	Submit   []string `mapstructure:"submit" validate:"min=1,dive,required"`
}

// Timeouts bound every wait the workflow performs.
type Timeouts struct {
	Navigation       time.Duration `mapstructure:"navigation" validate:"gt=0"`
	Settle           time.Duration `mapstructure:"settle" validate:"gt=0"`
	SubmitSettle     time.Duration `mapstructure:"submit_settle" validate:"gt=0"`
	DetailSettle     time.Duration `mapstructure:"detail_settle" validate:"gt=0"`
	RedirectSettle   time.Duration `mapstructure:"redirect_settle" validate:"gt=0"`
	RedirectDeadline time.Duration `mapstructure:"redirect_deadline" validate:"gt=0"`
	ClickRetryPause  time.Duration `mapstructure:"click_retry_pause" validate:"gte=0"`
	ListingRender    time.Duration `mapstructure:"listing_render" validate:"gte=0"`
	Operation        time.Duration `mapstructure:"operation" validate:"gt=0"`
}

// DefaultTimeouts returns the timeouts used when nothing is configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation:       15 * time.Second,
		Settle:           5 * time.Second,
		SubmitSettle:     10 * time.Second,
		DetailSettle:     10 * time.Second,
		RedirectSettle:   10 * time.Second,
		RedirectDeadline: 20 * time.Second,
		ClickRetryPause:  time.Second,
		ListingRender:    time.Second,
		Operation:        15 * time.Second,
	}
}

// DefaultSelectors returns the candidate lists for the login form and the
// search results rows.
func DefaultSelectors() Selectors {
	return Selectors{
		Listing:  ".listRow",
		Email:    []string{`input[type="email"]`, `input[name*="email"]`, `input[name*="Email"]`, `#email`, `#Email`},
		Password: []string{`input[type="password"]`, `input[name*="password"]`, `input[name*="Password"]`, `#password`, `#Password`},
		Submit:   []string{`input[type="submit"]`, `button[type="submit"]`, `button:has-text("Login")`, `button:has-text("Sign In")`, `input[value*="Login"]`},
	}
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"base_url":                   "BASE_URL",
	"login_path":                 "LOGIN_PATH",
	"search_path":                "SEARCH_PATH",
	"apply_path":                 "APPLY_PATH",
	"email":                      "EMAIL",
	"password":                   "PASSWORD",
	"output_file":                "OUTPUT_FILE",
	"artifact_dir":               "ARTIFACT_DIR",
	"headless":                   "HEADLESS",
	"log_level":                  "LOG_LEVEL",
	"max_jobs":                   "MAX_JOBS",
	"job_path_marker":            "JOB_PATH_MARKER",
	"selectors.listing":          "LISTING_SELECTOR",
	"timeouts.navigation":        "NAVIGATION_TIMEOUT",
	"timeouts.settle":            "SETTLE_TIMEOUT",
	"timeouts.submit_settle":     "SUBMIT_SETTLE_TIMEOUT",
	"timeouts.detail_settle":     "DETAIL_SETTLE_TIMEOUT",
	"timeouts.redirect_settle":   "REDIRECT_SETTLE_TIMEOUT",
	"timeouts.redirect_deadline": "REDIRECT_DEADLINE",
	"timeouts.click_retry_pause": "CLICK_RETRY_PAUSE",
	"timeouts.listing_render":    "LISTING_RENDER_WAIT",
	"timeouts.operation":         "OPERATION_TIMEOUT",
}

// Load reads .env, the optional config file and the environment, and returns
// a validated Config.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, "."+configName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	t := DefaultTimeouts()
	s := DefaultSelectors()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("login_path", "")
	v.SetDefault("search_path", "")
	v.SetDefault("apply_path", "")
	v.SetDefault("email", "")
	v.SetDefault("password", "")
	v.SetDefault("output_file", DefaultOutputFile)
	v.SetDefault("artifact_dir", ".")
	v.SetDefault("headless", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("max_jobs", DefaultMaxJobs)
	v.SetDefault("job_path_marker", "/job/")

	v.SetDefault("selectors.listing", s.Listing)
	v.SetDefault("selectors.email", s.Email)
	v.SetDefault("selectors.password", s.Password)
	v.SetDefault("selectors.submit", s.Submit)

	v.SetDefault("timeouts.navigation", t.Navigation)
	v.SetDefault("timeouts.settle", t.Settle)
	v.SetDefault("timeouts.submit_settle", t.SubmitSettle)
	v.SetDefault("timeouts.detail_settle", t.DetailSettle)
	v.SetDefault("timeouts.redirect_settle", t.RedirectSettle)
	v.SetDefault("timeouts.redirect_deadline", t.RedirectDeadline)
	v.SetDefault("timeouts.click_retry_pause", t.ClickRetryPause)
	v.SetDefault("timeouts.listing_render", t.ListingRender)
	v.SetDefault("timeouts.operation", t.Operation)
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoginURL is the absolute URL of the login form.
func (c *Config) LoginURL() string {
	return c.BaseURL + c.LoginPath
}

// SearchURL is the absolute URL of the search results page.
func (c *Config) SearchURL() string {
	return c.BaseURL + c.SearchPath
}

// ApplyBaseURL is the prefix job codes are appended to.
func (c *Config) ApplyBaseURL() string {
	return c.BaseURL + c.ApplyPath
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	out.Email = mask(c.Email)
	out.Password = mask(c.Password)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
