// Package config loads the site server configuration from KIVISAI_ prefixed
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Prefix is prepended to every variable name.
const Prefix = "KIVISAI_"

// Config is the server configuration.
type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DevMode  bool   `env:"DEV_MODE"`

	Locale       string `env:"LOCALE" envDefault:"de"`
	ThemeName    string `env:"THEME" envDefault:"kivisai"`
	ThemeVariant string `env:"THEME_VARIANT" envDefault:"light"`
	TemplateDir  string `env:"TEMPLATE_DIR"`
	PatchFile    string `env:"PATCH_FILE"`
	LocalesDir   string `env:"LOCALES_DIR"`

	// AdminToken guards /admin. Admin routes are only mounted when it is
	// set or DevMode is on.
	AdminToken string `env:"ADMIN_TOKEN"`

	Brevo Brevo `envPrefix:"BREVO_"`
}

// Brevo holds the email provider settings. Forms are accepted but not
// forwarded when APIKey is empty.
type Brevo struct {
	APIKey           string  `env:"API_KEY"`
	BaseURL          string  `env:"BASE_URL"`
	ListIDs          []int64 `env:"LIST_IDS" envSeparator:","`
	SenderName       string  `env:"SENDER_NAME" envDefault:"KIVISAI"`
	SenderEmail      string  `env:"SENDER_EMAIL" envDefault:"website@kivisai.eu"`
	ContactRecipient string  `env:"CONTACT_RECIPIENT" envDefault:"hello@kivisai.eu"`
}

// AdminEnabled reports whether the admin API should be mounted.
func (c Config) AdminEnabled() bool {
	return c.DevMode || strings.TrimSpace(c.AdminToken) != ""
}

// Enabled reports whether a Brevo client should be created.
func (b Brevo) Enabled() bool {
	return strings.TrimSpace(b.APIKey) != ""
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: Prefix})
}

// LoadFrom reads vars instead of the process environment. Keys include the
// prefix.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("config: addr is required"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: log level: %w", err))
	}
	if c.Brevo.Enabled() && strings.TrimSpace(c.Brevo.SenderEmail) == "" {
		errs = append(errs, errors.New("config: brevo sender email is required"))
	}
	if c.ShutdownTimeout < 0 || c.RequestTimeout < 0 {
		errs = append(errs, errors.New("config: timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// Logger builds the zap logger for the configured level. Dev mode uses the
// console encoder.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if c.DevMode {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return logger, nil
}
