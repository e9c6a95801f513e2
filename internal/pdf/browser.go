package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sethvargo/go-retry"
)

// BrowserSession is one launched headless browser. Close must release the
// browser process.
type BrowserSession interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (BrowserSession, error)

func (f LauncherFunc) Launch(ctx context.Context) (BrowserSession, error) {
	return f(ctx)
}

// BrowserConfig bounds the headless browser path.
type BrowserConfig struct {
	// Retries after the first attempt.
	Retries int
	// InitialBackoff doubles after each failed attempt.
	InitialBackoff time.Duration
	// Timeout applies to each attempt, launch included.
	Timeout time.Duration
}

// DefaultBrowserConfig retries twice starting at 500ms, 30s per attempt.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Retries:        2,
		InitialBackoff: 500 * time.Millisecond,
		Timeout:        30 * time.Second,
	}
}

// BrowserRenderer prints the HTML invoice through headless Chromium.
type BrowserRenderer struct {
	launcher Launcher
	cfg      BrowserConfig
	logger   *slog.Logger
}

// NewBrowserRenderer creates a renderer. A nil launcher uses playwright.
func NewBrowserRenderer(launcher Launcher, cfg BrowserConfig, logger *slog.Logger) *BrowserRenderer {
	def := DefaultBrowserConfig()
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if launcher == nil {
		launcher = PlaywrightLauncher{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserRenderer{launcher: launcher, cfg: cfg, logger: logger}
}

func (r *BrowserRenderer) Name() string { return "browser" }

// Render builds the HTML page and prints it, retrying launch and print
// failures with exponential backoff.
func (r *BrowserRenderer) Render(ctx context.Context, data InvoiceData) ([]byte, error) {
	html, err := InvoiceHTML(data)
	if err != nil {
		return nil, &RenderError{Renderer: r.Name(), Attempts: 0, Err: err}
	}

	backoff := retry.WithMaxRetries(uint64(r.cfg.Retries), retry.NewExponential(r.cfg.InitialBackoff))

	var (
		out      []byte
		attempts int
	)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		b, err := r.attempt(ctx, html)
		if err != nil {
			r.logger.Warn("browser render attempt failed",
				"invoice_number", data.InvoiceNumber,
				"attempt", attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, &RenderError{Renderer: r.Name(), Attempts: attempts, Err: err}
	}
	return out, nil
}

type printResult struct {
	pdf []byte
	err error
}

// attempt runs one launch+print cycle. The session is closed by the worker
// goroutine on every path, including when the attempt times out and the
// caller has already moved on.
func (r *BrowserRenderer) attempt(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	done := make(chan printResult, 1)
	go func() {
		var res printResult
		defer func() {
			if p := recover(); p != nil {
				res = printResult{err: fmt.Errorf("browser panic: %v", p)}
			}
			done <- res
		}()

		session, err := r.launcher.Launch(ctx)
		if err != nil {
			res.err = fmt.Errorf("launch browser: %w", err)
			return
		}
		defer func() {
			if cerr := session.Close(); cerr != nil {
				r.logger.Warn("failed to close browser", "error", cerr)
			}
		}()

		b, err := session.PrintPDF(ctx, html)
		if err != nil {
			res.err = fmt.Errorf("print pdf: %w", err)
			return
		}
		if len(b) == 0 {
			res.err = errors.New("print pdf: empty document")
			return
		}
		res.pdf = b
	}()

	select {
	case res := <-done:
		return res.pdf, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("render timed out: %w", ctx.Err())
	}
}

// PlaywrightLauncher starts a headless Chromium through playwright-go. The
// browser binaries must already be installed.
type PlaywrightLauncher struct {
	Timeout time.Duration
}

func (l PlaywrightLauncher) Launch(ctx context.Context) (BrowserSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
		Timeout:  playwright.Float(float64(l.Timeout.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	return &playwrightSession{pw: pw, browser: browser, timeout: l.Timeout}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
}

func (s *playwrightSession) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	err = page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("load html: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
	})
}

func (s *playwrightSession) Close() error {
	return errors.Join(s.browser.Close(), s.pw.Stop())
}
