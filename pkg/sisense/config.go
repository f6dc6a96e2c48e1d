package sisense

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// nonSSLPort is the port Sisense exposes for plain-HTTP deployments.
const nonSSLPort = 30845

var schemePrefix = regexp.MustCompile(`^https?://`)

// Config describes one Sisense environment endpoint.
type Config struct {
	// Domain is the Sisense hostname. A scheme, port, or trailing slash is
	// tolerated and stripped.
	Domain string `yaml:"domain"`

	// Token is the API token used as a Bearer token on every request.
	Token string `yaml:"token" json:"-"`

	// IsSSL selects HTTPS (default) or plain HTTP on port 30845.
	IsSSL *bool `yaml:"is_ssl,omitempty"`

	// TLSVerify controls TLS certificate verification. Defaults to false to
	// match common self-signed Sisense deployments.
	TLSVerify bool `yaml:"tls_verify,omitempty"`

	// Timeout for API requests. Default: 30 seconds.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries for transient request failures. Default: 3.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// RetryInterval is the initial backoff between retries. Default: 1 second.
	RetryInterval time.Duration `yaml:"retry_interval,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults. Domain and Token
// must still be supplied.
func DefaultConfig() *Config {
	ssl := true
	return &Config{
		IsSSL:         &ssl,
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}

// LoadConfig reads a YAML endpoint configuration from fs.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.IsSSL == nil {
		ssl := true
		c.IsSSL = &ssl
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 1 * time.Second
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Domain, validation.Required),
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(1))),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

// Host returns the bare hostname with scheme, port, and trailing slash
// stripped.
func (c *Config) Host() string {
	host := schemePrefix.ReplaceAllString(c.Domain, "")
	host = strings.TrimRight(host, "/")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

// BaseURL constructs the environment base URL from the domain and SSL flag.
// A port given explicitly in the domain is kept; otherwise plain-HTTP
// deployments default to port 30845.
func (c *Config) BaseURL() string {
	hostport := strings.TrimRight(schemePrefix.ReplaceAllString(c.Domain, ""), "/")
	ssl := c.IsSSL == nil || *c.IsSSL
	if strings.IndexByte(hostport, ':') >= 0 {
		if ssl {
			return fmt.Sprintf("https://%s", hostport)
		}
		return fmt.Sprintf("http://%s", hostport)
	}
	if ssl {
		return fmt.Sprintf("https://%s", hostport)
	}
	return fmt.Sprintf("http://%s:%d", hostport, nonSSLPort)
}

// NewHTTPClient creates a configured HTTP client for this endpoint.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if !c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
