package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/go-playground/validator.v9"
)

// SecretEnvVar is the default environment variable holding the token signing secret.
const SecretEnvVar = "SECRET"

const (
	RedirectPolicyAny      = "any"
	RedirectPolicyRelative = "relative"
)

const (
	CodeStoreMemory = "memory"
	CodeStoreRedis  = "redis"
	CodeStoreNone   = "none"
)

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("signing secret is missing")

// Duration is a time.Duration that reads "5s" style strings from JSON and env.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type IdentityProvider struct {
	URL           string   `json:"url" env:"SESSIONBRIDGE_IDP_URL" validate:"required,url"`
	ClientName    string   `json:"clientName" env:"SESSIONBRIDGE_CLIENT_NAME" validate:"required"`
	VerifyTimeout Duration `json:"verifyTimeout" env:"SESSIONBRIDGE_VERIFY_TIMEOUT" validate:"gt=0"`
}

type Cookies struct {
	Insecure bool `json:"insecure" env:"SESSIONBRIDGE_INSECURE_COOKIES"`
}

type CodeStore struct {
	Kind      string   `json:"kind" env:"SESSIONBRIDGE_CODESTORE" validate:"oneof=memory redis none"`
	RedisAddr string   `json:"redisAddr" env:"SESSIONBRIDGE_REDIS_ADDR"`
	RedisDB   int      `json:"redisDb" env:"SESSIONBRIDGE_REDIS_DB" validate:"min=0"`
	TTL       Duration `json:"ttl" env:"SESSIONBRIDGE_CODESTORE_TTL" validate:"gt=0"`
}

type Config struct {
	Version          string           `json:"version"`
	Port             int              `json:"port" env:"SESSIONBRIDGE_PORT" validate:"min=1,max=65535"`
	PublicURL        string           `json:"publicUrl" env:"SESSIONBRIDGE_PUBLIC_URL" validate:"required,url"`
	AssetsDir        string           `json:"assetsDir" env:"SESSIONBRIDGE_ASSETS_DIR" validate:"required"`
	RedirectPolicy   string           `json:"redirectPolicy" env:"SESSIONBRIDGE_REDIRECT_POLICY" validate:"oneof=any relative"`
	LogLevel         string           `json:"logLevel" env:"SESSIONBRIDGE_LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	IdentityProvider IdentityProvider `json:"identityProvider"`
	Cookies          Cookies          `json:"cookies"`
	CodeStore        CodeStore        `json:"codeStore"`

	// Secret never comes from the config file.
	Secret string `json:"-"`
}

// Default returns the configuration used when neither file nor environment say otherwise.
func Default() *Config {
	return &Config{
		Version:        "0.1",
		Port:           3000,
		PublicURL:      "http://localhost:3000",
		AssetsDir:      "views",
		RedirectPolicy: RedirectPolicyAny,
		LogLevel:       "info",
		IdentityProvider: IdentityProvider{
			URL:           "https://auth.itinerary.eu.org",
			ClientName:    "SkyMod",
			VerifyTimeout: Duration(5 * time.Second),
		},
		CodeStore: CodeStore{
			Kind: CodeStoreMemory,
			TTL:  Duration(10 * time.Minute),
		},
	}
}

// ParseConfig reads a JSON config file on top of the defaults.
func ParseConfig(path string) (config *Config, err error) {
	jsonFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()
	byteValue, err := ioutil.ReadAll(jsonFile)
	if err != nil {
		return nil, err
	}
	ret := Default()
	if err := json.Unmarshal(byteValue, ret); err != nil {
		return nil, fmt.Errorf("parse config %v: %w", path, err)
	}
	return ret, nil
}

// Load builds the process configuration: defaults, then the optional JSON file at path,
// then environment overrides. The secret is read from secretVar and blanked from the
// environment afterwards.
func Load(path string, secretVar string) (*Config, error) {
	return load(path, secretVar, os.Getenv, os.Setenv)
}

func load(path string, secretVar string, getfn func(string) string, setfn func(string, string) error) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		cfg, err = ParseConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if secretVar == "" {
		secretVar = SecretEnvVar
	}
	cfg.Secret = getfn(secretVar)
	if err := setfn(secretVar, ""); err != nil {
		return nil, fmt.Errorf("unable to clear %v from the environment: %w", secretVar, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cs := sl.Current().Interface().(CodeStore)
		if cs.Kind == CodeStoreRedis && strings.TrimSpace(cs.RedisAddr) == "" {
			sl.ReportError(cs.RedisAddr, "RedisAddr", "redisAddr", "required", "")
		}
	}, CodeStore{})
	return v
}

// Validate fails when the secret is absent or any setting is out of range.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return ErrMissingSecret
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// BindAddress is the listen address derived from Port.
func (c *Config) BindAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}
