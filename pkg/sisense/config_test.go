package sisense

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, "source.yaml", []byte(`
domain: "https://analytics.example.com/"
token: "test-token"
is_ssl: true
`), 0o644)
	require.NoError(t, err)

	cfg, err := LoadConfig(fs, "source.yaml")
	require.NoError(t, err)

	assert.Equal(t, "analytics.example.com", cfg.Host())
	assert.Equal(t, "https://analytics.example.com", cfg.BaseURL())
	assert.Equal(t, "test-token", cfg.Token)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestLoadConfigMissingToken(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, "bad.yaml", []byte(`
domain: "analytics.example.com"
`), 0o644)
	require.NoError(t, err)

	_, err = LoadConfig(fs, "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestLoadConfigMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadConfig(fs, "nope.yaml")
	require.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	ssl := true
	noSSL := false

	tests := []struct {
		name   string
		domain string
		isSSL  *bool
		want   string
	}{
		{"https default", "analytics.example.com", nil, "https://analytics.example.com"},
		{"https explicit", "https://analytics.example.com", &ssl, "https://analytics.example.com"},
		{"http default port", "analytics.example.com", &noSSL, "http://analytics.example.com:30845"},
		{"http explicit port", "127.0.0.1:9999", &noSSL, "http://127.0.0.1:9999"},
		{"trailing slash", "https://analytics.example.com/", &ssl, "https://analytics.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Domain: tt.domain, Token: "t", IsSSL: tt.isSSL}
			assert.Equal(t, tt.want, cfg.BaseURL())
		})
	}
}

func TestHostStripsSchemeAndPort(t *testing.T) {
	cfg := &Config{Domain: "https://analytics.example.com:8443/"}
	assert.Equal(t, "analytics.example.com", cfg.Host())
}
