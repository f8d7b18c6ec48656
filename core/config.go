package core

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// HMACSecretEnv overrides fastspring.hmac_secret when set.
const HMACSecretEnv = "FASTSPRING_HMAC_SECRET"

const (
	DefaultAPIURL          = "https://api.fastspring.com"
	DefaultSignatureHeader = "X-FS-Signature"
	DefaultWebhookPath     = "/fastspring/webhook"
	DefaultMaxBodyBytes    = int64(5 << 20)
)

type FastSpringConfig struct {
	APIURL     string        `koanf:"api_url" mapstructure:"api_url" yaml:"api_url"`
	Username   string        `koanf:"username" mapstructure:"username" yaml:"username"`
	Password   string        `koanf:"password" mapstructure:"password" yaml:"password"`
	HMACSecret string        `koanf:"hmac_secret" mapstructure:"hmac_secret" yaml:"hmac_secret"`
	Timeout    time.Duration `koanf:"timeout" mapstructure:"timeout" yaml:"timeout"`
}

type WebhookConfig struct {
	SignatureHeader string `koanf:"signature_header" mapstructure:"signature_header" yaml:"signature_header"`
	AuditDir        string `koanf:"audit_dir" mapstructure:"audit_dir" yaml:"audit_dir"`
	MaxBodyBytes    int64  `koanf:"max_body_bytes" mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver" yaml:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn" yaml:"dsn"`
	Debug  bool   `koanf:"debug" mapstructure:"debug" yaml:"debug"`
}

type HTTPConfig struct {
	Addr        string `koanf:"addr" mapstructure:"addr" yaml:"addr"`
	WebhookPath string `koanf:"webhook_path" mapstructure:"webhook_path" yaml:"webhook_path"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name" yaml:"service_name"`
	FastSpring  FastSpringConfig `koanf:"fastspring" mapstructure:"fastspring" yaml:"fastspring"`
	Webhook     WebhookConfig    `koanf:"webhook" mapstructure:"webhook" yaml:"webhook"`
	Database    DatabaseConfig   `koanf:"database" mapstructure:"database" yaml:"database"`
	HTTP        HTTPConfig       `koanf:"http" mapstructure:"http" yaml:"http"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "cashier",
		FastSpring: FastSpringConfig{
			APIURL:  DefaultAPIURL,
			Timeout: 30 * time.Second,
		},
		Webhook: WebhookConfig{
			SignatureHeader: DefaultSignatureHeader,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:cashier.db?cache=shared&_foreign_keys=on",
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			WebhookPath: DefaultWebhookPath,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if raw := strings.TrimSpace(c.FastSpring.APIURL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("core: fastspring.api_url is invalid: %q", raw)
		}
	}
	if c.FastSpring.Timeout < 0 {
		return fmt.Errorf("core: fastspring.timeout must not be negative")
	}
	if c.Webhook.MaxBodyBytes < 0 {
		return fmt.Errorf("core: webhook.max_body_bytes must not be negative")
	}
	if path := strings.TrimSpace(c.HTTP.WebhookPath); path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("core: http.webhook_path must start with /")
	}
	switch strings.TrimSpace(c.Database.Driver) {
	case "", "sqlite3", "postgres":
	default:
		return fmt.Errorf("core: unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

// ResolveHMACSecret returns the webhook secret. The environment wins whenever
// the variable is set, including when it is set to an empty value.
func ResolveHMACSecret(cfg Config, lookupEnv func(string) (string, bool)) string {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if value, ok := lookupEnv(HMACSecretEnv); ok {
		return value
	}
	return cfg.FastSpring.HMACSecret
}

// SignatureHeader returns the configured header or the FastSpring default.
func (c Config) SignatureHeader() string {
	if header := strings.TrimSpace(c.Webhook.SignatureHeader); header != "" {
		return header
	}
	return DefaultSignatureHeader
}
