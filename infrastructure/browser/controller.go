// Package browser drives a real Chromium through playwright and exposes each
// tab as an inspectable page.
package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const browserStateFile = "browser_state.json"

// Options configures the browser launch
type Options struct {
	Headless bool
	StateDir string
}

// Browser owns the playwright driver, one browser context and its tabs
type Browser struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	storagePath string
	logger      *logrus.Logger

	pagesMutex sync.Mutex
	pages      map[playwright.Page]*LivePage
	order      []*LivePage
	onPage     []func(*LivePage)
}

// Launch - starts playwright and opens a browser context, restoring cookies
// and local storage saved by a previous session
func Launch(opts Options, logger *logrus.Logger) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	if err := os.MkdirAll(opts.StateDir, 0755); err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	storagePath := filepath.Join(opts.StateDir, browserStateFile)

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		BypassCSP:         playwright.Bool(true),
	}

	if data, err := os.ReadFile(storagePath); err == nil {
		var storageState playwright.StorageState
		if err := json.Unmarshal(data, &storageState); err == nil {
			contextOptions.StorageState = storageState.ToOptionalStorageState()
		}
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--disable-infobars",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	b := &Browser{
		pw:          pw,
		browser:     browser,
		context:     context,
		storagePath: storagePath,
		logger:      logger,
		pages:       make(map[playwright.Page]*LivePage),
	}

	// Tabs opened from the page itself (target=_blank, window.open).
	context.OnPage(func(newPage playwright.Page) {
		go func() {
			if _, err := b.wrap(newPage); err != nil {
				logger.WithError(err).Warn("failed to attach to new tab")
			}
		}()
	})

	return b, nil
}

// OnPage - registers fn to run once for every attached tab
func (b *Browser) OnPage(fn func(*LivePage)) {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	b.onPage = append(b.onPage, fn)
}

// Open - opens a new tab and navigates it to url
func (b *Browser) Open(url string) (*LivePage, error) {
	newPage, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}
	lp, err := b.wrap(newPage)
	if err != nil {
		return nil, err
	}
	if url != "" {
		if err := lp.Goto(url); err != nil {
			return lp, err
		}
	}
	return lp, nil
}

// Pages - returns the attached tabs in the order they were opened
func (b *Browser) Pages() []*LivePage {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	return append([]*LivePage(nil), b.order...)
}

func (b *Browser) wrap(page playwright.Page) (*LivePage, error) {
	b.pagesMutex.Lock()
	if lp, ok := b.pages[page]; ok {
		b.pagesMutex.Unlock()
		return lp, nil
	}
	lp := newLivePage(page, b.logger)
	b.pages[page] = lp
	b.order = append(b.order, lp)
	hooks := append([]func(*LivePage){}, b.onPage...)
	b.pagesMutex.Unlock()

	if err := lp.attach(); err != nil {
		b.forget(page)
		return nil, err
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})
	page.OnClose(func(closedPage playwright.Page) {
		b.forget(closedPage)
	})

	for _, fn := range hooks {
		fn(lp)
	}
	b.logger.WithFields(logrus.Fields{"tab": lp.ID(), "url": page.URL()}).Debug("tab attached")
	return lp, nil
}

func (b *Browser) forget(page playwright.Page) {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()

	lp, ok := b.pages[page]
	if !ok {
		return
	}
	delete(b.pages, page)
	for i, p := range b.order {
		if p == lp {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// SaveState - saves cookies and local storage for the next session
func (b *Browser) SaveState() error {
	if b.context == nil || b.storagePath == "" {
		return nil
	}

	_, err := b.context.StorageState(b.storagePath)
	if err != nil {
		if isClosedErr(err) {
			return nil
		}
		return fmt.Errorf("failed to save browser state: %w", err)
	}
	return nil
}

// Close - saves state and shuts the browser down
func (b *Browser) Close() error {
	var closeErr error

	if err := b.SaveState(); err != nil {
		closeErr = err
	}

	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosedErr(err) {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to close context: %w", err))
		}
		b.context = nil
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}

	return closeErr
}

func isClosedErr(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

func joinErr(prev, err error) error {
	if prev == nil {
		return err
	}
	return fmt.Errorf("%v; %w", prev, err)
}
