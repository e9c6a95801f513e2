// Package bootstrap builds the invoice pipeline from configuration. The HTTP
// server and the operator CLI share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dukerupert/gymdesk/internal"
	"github.com/dukerupert/gymdesk/internal/domain"
	"github.com/dukerupert/gymdesk/internal/email"
	"github.com/dukerupert/gymdesk/internal/events"
	"github.com/dukerupert/gymdesk/internal/pdf"
	"github.com/dukerupert/gymdesk/internal/postgres"
	"github.com/dukerupert/gymdesk/internal/service"
	"github.com/dukerupert/gymdesk/internal/storage"
	"github.com/dukerupert/gymdesk/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace prefixes every prometheus metric the application exports.
const MetricsNamespace = "gymdesk"

// Invoicing is the wired invoice pipeline and the resources it holds.
type Invoicing struct {
	Pool     *pgxpool.Pool
	Invoices *postgres.InvoiceStore
	Clients  *postgres.ClientStore
	Service  domain.InvoiceService
	Renderer pdf.Renderer
	Mailer   *email.Dispatcher

	// Storage is nil when archiving is disabled.
	Storage storage.Storage
	Metrics *telemetry.InvoiceMetrics

	closers []func()
}

// Close releases resources in reverse acquisition order.
func (i *Invoicing) Close() {
	for _, c := range slices.Backward(i.closers) {
		c()
	}
	i.closers = nil
}

// Migrate runs pending goose migrations over a database/sql connection.
func Migrate(ctx context.Context, databaseURL string, logger *slog.Logger) error {
	db, err := openSQL(ctx, databaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")
	return nil
}

// MigrationStatus prints the applied state of every migration.
func MigrationStatus(ctx context.Context, databaseURL string, logger *slog.Logger) error {
	db, err := openSQL(ctx, databaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return internal.MigrationStatus(ctx, db)
}

func openSQL(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("Connecting to database for migrations...")
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

// NewInvoicing connects to the database and wires the orchestrator with the
// configured renderer, email providers, archive and event publisher. A nil
// registerer disables business metrics.
func NewInvoicing(ctx context.Context, cfg *internal.Config, logger *slog.Logger, reg prometheus.Registerer) (*Invoicing, error) {
	inv := &Invoicing{}
	ok := false
	defer func() {
		if !ok {
			inv.Close()
		}
	}()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	inv.closers = append(inv.closers, pool.Close)
	inv.Pool = pool
	inv.Invoices = postgres.NewInvoiceStore(pool)
	inv.Clients = postgres.NewClientStore(pool)

	if reg != nil {
		inv.Metrics = telemetry.NewInvoiceMetrics(MetricsNamespace, reg)
	}

	inv.Renderer = NewRenderer(cfg.PDF, logger)
	inv.Mailer = NewDispatcher(cfg.Email, logger, inv.Metrics)

	inv.Storage, err = storage.NewStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	var archive *storage.InvoiceArchive
	if inv.Storage != nil {
		archive = storage.NewInvoiceArchive(inv.Storage)
		logger.Info("Invoice archive enabled", "provider", cfg.Storage.Provider)
	}

	publisher, closePublisher, err := NewPublisher(cfg.Events, logger)
	if err != nil {
		return nil, err
	}
	inv.closers = append(inv.closers, closePublisher)

	inv.Service, err = service.NewInvoiceService(service.InvoiceServiceDeps{
		Invoices: inv.Invoices,
		Clients:  inv.Clients,
		Renderer: inv.Renderer,
		Mailer:   inv.Mailer,
		Archive:  archive,
		Events:   publisher,
		Metrics:  inv.Metrics,
		Logger:   logger,
		Gym: pdf.Branding{
			Name:    cfg.Gym.Name,
			Address: cfg.Gym.Address,
			Phone:   cfg.Gym.Phone,
			Email:   cfg.Gym.SupportEmail,
		},
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize invoice service: %w", err)
	}

	ok = true
	return inv, nil
}

// NewRenderer returns the configured PDF renderer. The declarative renderer is
// the default; the browser renderer needs installed playwright browsers.
func NewRenderer(cfg internal.PDFConfig, logger *slog.Logger) pdf.Renderer {
	if cfg.Renderer != "browser" {
		return pdf.NewDeclarativeRenderer()
	}

	bc := pdf.DefaultBrowserConfig()
	bc.Retries = cfg.BrowserRetries
	if cfg.RenderTimeout > 0 {
		bc.Timeout = cfg.RenderTimeout
	}
	logger.Info("Using headless browser PDF renderer",
		"retries", bc.Retries,
		"timeout", bc.Timeout,
	)
	return pdf.NewBrowserRenderer(nil, bc, logger)
}

// NewDispatcher builds the provider list in priority order: SMTP, then the
// configured API provider. With neither configured every send is simulated.
func NewDispatcher(cfg internal.EmailConfig, logger *slog.Logger, observer email.Observer) *email.Dispatcher {
	smtp := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Host,
		Port:     int(cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
		Timeout:  30 * time.Second,
	}, logger)

	var api email.Provider
	switch cfg.APIProvider {
	case "postmark":
		api = email.NewPostmarkSender(cfg.PostmarkToken, cfg.From)
	default:
		api = email.NewResendSender(cfg.ResendAPIKey, cfg.From)
	}

	opts := []email.DispatcherOption{email.WithFrom(cfg.From)}
	if observer != nil {
		opts = append(opts, email.WithObserver(observer))
	}
	d := email.NewDispatcher(logger, []email.Provider{smtp, api}, opts...)

	if p := d.Active(); p != nil {
		logger.Info("Email provider selected", "provider", p.Name(), "kind", p.Kind())
	} else {
		logger.Warn("No email provider configured, invoice emails will be simulated")
	}
	return d
}

// NewPublisher connects to NATS when a URL is configured. The returned func
// drains the connection.
func NewPublisher(cfg internal.EventsConfig, logger *slog.Logger) (events.Publisher, func(), error) {
	if cfg.NatsURL == "" {
		return events.Noop{}, func() {}, nil
	}

	p, err := events.Connect(cfg.NatsURL, cfg.SubjectPrefix, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Publishing invoice events", "url", cfg.NatsURL, "prefix", cfg.SubjectPrefix)

	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("failed to close nats connection", "error", err)
		}
	}, nil
}

// SentryConfig maps the loaded configuration onto telemetry's.
func SentryConfig(cfg internal.SentryConfig) telemetry.SentryConfig {
	return telemetry.SentryConfig{
		DSN:              cfg.DSN,
		Enabled:          cfg.Enabled,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       cfg.SampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	}
}

// FilesDir is the directory to serve under /files, or "" when archived PDFs
// must not be served. Serving needs local storage and an explicit opt-in.
func FilesDir(cfg internal.StorageConfig) string {
	if cfg.Provider != "local" || !cfg.ServeFiles {
		return ""
	}
	return cfg.LocalPath
}
