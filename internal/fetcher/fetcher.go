package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/brlegal/captura-partes/internal/capture"
	"github.com/brlegal/captura-partes/internal/config"
	"github.com/brlegal/captura-partes/pkg/logger"
)

// Fetcher retrieves party lists from the court system through a headless
// browser. It implements capture.PartyFetcher.
type Fetcher struct {
	cfg     *config.Config
	Browser *rod.Browser // Made public for testing
	logger  *logger.Logger
}

// New launches the browser and returns a fetcher instance
func New(cfg *config.Config, log *logger.Logger) (*Fetcher, error) {
	// Configure launcher with proper options
	l := launcher.New().
		Headless(cfg.HeadlessMode).
		Set("user-agent", cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	// Set browser path if specified
	if cfg.BrowserPath != "" {
		l = l.Bin(cfg.BrowserPath)
	}

	// For debugging
	if cfg.LogLevel == "debug" {
		l = l.Devtools(true)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).MustConnect()

	return &Fetcher{
		cfg:     cfg,
		Browser: browser,
		logger:  log,
	}, nil
}

// Close closes the browser
func (f *Fetcher) Close() error {
	return f.Browser.Close()
}

// FetchParties navigates to the case's party listing and returns the
// decoded records. When the caller passes no page, the fetcher creates
// one for the duration of the call; cases may be fetched concurrently,
// each on its own page.
func (f *Fetcher) FetchParties(ctx context.Context, page *rod.Page, externalCaseID int64) ([]capture.PartyRecord, error) {
	if externalCaseID <= 0 {
		return nil, fmt.Errorf("external case id must be positive, got %d", externalCaseID)
	}

	if page == nil {
		created, err := f.newPage()
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		defer created.MustClose()
		page = created
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.ScraperTimeout)
	defer cancel()

	partiesURL := fmt.Sprintf("%s/processo/%d/partes", f.cfg.CourtBaseURL, externalCaseID)
	f.logger.Info("Navigating to party listing", "url", partiesURL)

	navCtx, navCancel := context.WithTimeout(fetchCtx, 15*time.Second)
	defer navCancel()

	if err := page.Context(navCtx).Navigate(partiesURL); err != nil {
		f.logger.Error("Navigation failed", "url", partiesURL, "error", err)
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if err := page.Context(fetchCtx).WaitLoad(); err != nil {
		f.logger.Error("Page load timeout", "error", err)
		// Continue anyway as the page might be partially loaded
	}

	// Method 1: the listing endpoint serves the party payload as JSON
	if element, err := page.Context(fetchCtx).Element("pre, script#partes-data"); err == nil {
		text, err := element.Text()
		if err == nil {
			parties, parseErr := ParseParties([]byte(text))
			if parseErr == nil {
				f.logger.Debug("Parsed embedded party payload", "parties", len(parties))
				return parties, nil
			}
			f.logger.Warn("Failed to parse embedded party payload", "error", parseErr)
		}
	}

	// Method 2: fall back to the rendered parties table
	return f.parsePartiesFromTable(fetchCtx, page)
}

// newPage creates a page with a human-looking viewport and headers
func (f *Fetcher) newPage() (*rod.Page, error) {
	page, err := f.Browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	page.MustSetViewport(1920, 1080, 1, false)
	page.MustSetExtraHeaders("Accept-Language", "pt-BR,pt;q=0.9")

	return page, nil
}
