package bootstrap

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/gymdesk/internal"
	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		name     string
		renderer string
		want     string
	}{
		{"default", "", "declarative"},
		{"declarative", "declarative", "declarative"},
		{"browser", "browser", "browser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(internal.PDFConfig{Renderer: tt.renderer, RenderTimeout: time.Second, BrowserRetries: 2}, discard)
			assert.Equal(t, tt.want, r.Name())
		})
	}
}

func TestNewDispatcher(t *testing.T) {
	tests := []struct {
		name     string
		cfg      internal.EmailConfig
		wantName string
		wantKind domain.DeliveryProvider
	}{
		{
			name: "smtp credentials win",
			cfg: internal.EmailConfig{
				Host: "smtp.example.com", Port: 587, Username: "u", Password: "p",
				APIProvider: "resend", ResendAPIKey: "re_123",
			},
			wantName: "smtp",
			wantKind: domain.ProviderPrimary,
		},
		{
			name:     "resend key",
			cfg:      internal.EmailConfig{APIProvider: "resend", ResendAPIKey: "re_123"},
			wantName: "resend",
			wantKind: domain.ProviderSecondary,
		},
		{
			name:     "postmark token",
			cfg:      internal.EmailConfig{APIProvider: "postmark", PostmarkToken: "pm_123"},
			wantName: "postmark",
			wantKind: domain.ProviderSecondary,
		},
		{
			name:     "api key for the other provider is ignored",
			cfg:      internal.EmailConfig{APIProvider: "postmark", ResendAPIKey: "re_123"},
			wantName: "",
		},
		{
			name:     "nothing configured",
			cfg:      internal.EmailConfig{APIProvider: "resend"},
			wantName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.From = "invoices@gym.example"
			d := NewDispatcher(tt.cfg, discard, nil)

			active := d.Active()
			if tt.wantName == "" {
				assert.Nil(t, active)
				return
			}
			require.NotNil(t, active)
			assert.Equal(t, tt.wantName, active.Name())
			assert.Equal(t, tt.wantKind, active.Kind())
		})
	}
}

func TestNewPublisher_NoURL(t *testing.T) {
	p, closeFn, err := NewPublisher(internal.EventsConfig{SubjectPrefix: "gymdesk"}, discard)
	require.NoError(t, err)
	assert.IsType(t, events.Noop{}, p)
	closeFn()
}

func TestInvoicing_CloseReverseOrder(t *testing.T) {
	var order []int
	inv := &Invoicing{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
		func() { order = append(order, 3) },
	}}

	inv.Close()
	inv.Close()

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestSentryConfig(t *testing.T) {
	got := SentryConfig(internal.SentryConfig{
		DSN:         "https://key@sentry.example/1",
		Enabled:     true,
		Environment: "production",
		SampleRate:  0.5,
	})
	assert.True(t, got.Enabled)
	assert.Equal(t, "production", got.Environment)
	assert.InDelta(t, 0.5, got.SampleRate, 1e-9)
}

func TestFilesDir(t *testing.T) {
	tests := []struct {
		name string
		cfg  internal.StorageConfig
		want string
	}{
		{"local without opt-in", internal.StorageConfig{Provider: "local", LocalPath: "./data"}, ""},
		{"local with opt-in", internal.StorageConfig{Provider: "local", LocalPath: "./data", ServeFiles: true}, "./data"},
		{"r2 ignores opt-in", internal.StorageConfig{Provider: "r2", LocalPath: "./data", ServeFiles: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilesDir(tt.cfg))
		})
	}
}
