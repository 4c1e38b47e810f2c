package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/cinesuite/internal/assets"
	"github.com/starford/cinesuite/internal/generator"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/slot"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Store     StoreConfig       `yaml:"store"`
	Transfer  TransferConfig    `yaml:"transfer"`
	Inbox     InboxConfig       `yaml:"inbox"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Generator GeneratorConfig   `yaml:"generator"`
	Assets    AssetsConfig      `yaml:"assets"`
	Playback  PlaybackConfig    `yaml:"playback"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Store, &c.Transfer, &c.Inbox, &c.Catalog,
		&c.Generator, &c.Assets, &c.Playback, &c.Auth,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig locates the SQLite file holding the project store.
type StoreConfig struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Key == "" {
		c.Key = slot.StoreKey
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// TransferConfig is the directory exported scenes are written to.
type TransferConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the transfer configuration.
func (c *TransferConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// InboxConfig controls the watched import directory.
type InboxConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Strict rejects dropped files that fail the shape check.
	Strict bool `yaml:"strict"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// CatalogConfig holds the search catalog database path.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// GeneratorConfig configures the chat-completions backend. Credential is
// the fallback used when neither the request nor the scene carries a key.
type GeneratorConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	Credential string        `yaml:"credential"`
}

// Validate validates the generator configuration.
func (c *GeneratorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// AssetsConfig configures image fetching for offline scenes. BaseURL
// resolves site-relative references such as /images/x.png.
type AssetsConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.MaxBytes, validation.Min(int64(0))),
	)
}

// PlaybackConfig tunes the reveal engine.
type PlaybackConfig struct {
	TapIncrement int `yaml:"tap_increment"`
}

// Validate validates the playback configuration.
func (c *PlaybackConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TapIncrement, validation.Min(0), validation.Max(50)),
	)
}

// Policy returns the reveal policy for this configuration.
func (c *PlaybackConfig) Policy() reveal.Policy {
	p := reveal.DefaultPolicy()
	if c.TapIncrement > 0 {
		p.TapIncrement = c.TapIncrement
	}
	return p
}

// AuthConfig guards the HTTP API. Mode is "disabled" (the default, for a
// studio on localhost) or "token", which requires a bearer Token. Write the
// token as ${CINESUITE_TOKEN} to keep it out of the file.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.In(AuthModeDisabled, AuthModeToken)),
		validation.Field(&c.Token,
			validation.When(c.Mode == AuthModeToken,
				validation.Required.Error("is required in token mode"),
				validation.Length(8, 0).Error("must be at least 8 characters"))),
	)
}

// AuthEnabled reports whether requests need a bearer token.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./cinesuite.db",
			Key:  slot.StoreKey,
		},
		Transfer: TransferConfig{
			Path: "./scenes",
		},
		Inbox: InboxConfig{
			Path: "./inbox",
		},
		Catalog: CatalogConfig{
			Path: "./cinesuite-catalog.db",
		},
		Generator: GeneratorConfig{
			Endpoint: generator.DefaultEndpoint,
			Model:    generator.DefaultModel,
			Timeout:  60 * time.Second,
		},
		Assets: AssetsConfig{
			Timeout:  30 * time.Second,
			MaxBytes: assets.DefaultMaxBytes,
		},
		Playback: PlaybackConfig{
			TapIncrement: reveal.DefaultTapIncrement,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
