package internal

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:         "dev",
		LogLevel:    "info",
		Port:        3000,
		DatabaseUrl: "postgres://localhost/gymdesk",
		BaseURL:     "http://localhost:3000",
		Gym:         GymConfig{Name: "Iron Temple"},
		Email:       EmailConfig{APIProvider: "resend"},
		PDF:         PDFConfig{Renderer: "declarative", RenderTimeout: 30 * time.Second, BrowserRetries: 2},
		Storage:     StorageConfig{Provider: "none"},
		Events:      EventsConfig{SubjectPrefix: "gymdesk"},
		Sentry:      SentryConfig{SampleRate: 1},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad renderer", func(c *Config) { c.PDF.Renderer = "wkhtml" }, "PDF.Renderer"},
		{"bad api provider", func(c *Config) { c.Email.APIProvider = "ses" }, "Email.APIProvider"},
		{"r2 without bucket", func(c *Config) {
			c.Storage = StorageConfig{Provider: "r2", R2AccountID: "a", R2AccessKeyID: "k", R2SecretKey: "s"}
		}, "Storage.R2BucketName"},
		{"local without path", func(c *Config) { c.Storage = StorageConfig{Provider: "local"} }, "Storage.LocalPath"},
		{"missing gym name", func(c *Config) { c.Gym.Name = "" }, "Gym.Name"},
		{"sample rate out of range", func(c *Config) { c.Sentry.SampleRate = 2 }, "Sentry.SampleRate"},
		{"zero timeout", func(c *Config) { c.PDF.RenderTimeout = 0 }, "PDF.RenderTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateReportsEveryField(t *testing.T) {
	c := validConfig()
	c.PDF.Renderer = "x"
	c.Storage.Provider = "y"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF.Renderer")
	assert.Contains(t, err.Error(), "Storage.Provider")
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("PDF_RENDERER", "browser")
	t.Setenv("PDF_RENDER_TIMEOUT", "45s")
	t.Setenv("PDF_BROWSER_RETRIES", "3")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USERNAME", "user")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("STORAGE_PROVIDER", "none")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env, "unknown env falls back to prod")
	assert.Equal(t, "browser", cfg.PDF.Renderer)
	assert.Equal(t, 45*time.Second, cfg.PDF.RenderTimeout)
	assert.Equal(t, 3, cfg.PDF.BrowserRetries)
	assert.True(t, cfg.Email.SMTPConfigured())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.False(t, cfg.Storage.ServeFiles)
}

func TestNewConfig_OptIns(t *testing.T) {
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("SERVE_LOCAL_FILES", "1")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.True(t, cfg.TrustProxyHeaders)
	assert.True(t, cfg.Storage.ServeFiles)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "1500")
	assert.Equal(t, 1500*time.Millisecond, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "2m")
	assert.Equal(t, 2*time.Minute, getEnvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_TIMEOUT", time.Second))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "prod", "warn").Info("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, "prod", "info").Info("invoice created", "invoice_number", "INV-20240115-AB12")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{"), "prod logs are JSON")
	assert.Contains(t, out, `"invoice_number":"INV-20240115-AB12"`)
	assert.Contains(t, out, `"service":"gymdesk"`)
}

func TestNewLogger_MasksRecipientInProd(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "prod", "info").Info("email simulated", "to", "asha@example.com")
	assert.Contains(t, buf.String(), `"to":"a***@example.com"`)

	buf.Reset()
	NewLogger(&buf, "dev", "info").Info("email simulated", "to", "asha@example.com")
	assert.Contains(t, buf.String(), "to=asha@example.com")
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", maskEmail("asha@example.com"))
	assert.Equal(t, "not-an-address", maskEmail("not-an-address"))
	assert.Equal(t, "@example.com", maskEmail("@example.com"))
}
