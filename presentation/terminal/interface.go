package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"page_capture/application/highlight"
	"page_capture/application/inspector"
	"page_capture/application/panel"
	"page_capture/domain/entities"
	"page_capture/domain/interfaces"
	"page_capture/infrastructure/ai"
	"page_capture/infrastructure/browser"
	"page_capture/infrastructure/config"
	"page_capture/infrastructure/dom"
	"page_capture/infrastructure/relay"
	"page_capture/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options configures a terminal session
type Options struct {
	Config  *config.Config
	Offline bool
	URL     string
	In      io.Reader
	Out     io.Writer
}

// inspectablePage is what a tab needs to host an inspector
type inspectablePage interface {
	interfaces.Page
	interfaces.Surface
	interfaces.Geometry
	interfaces.EventLoop
	Run(ctx context.Context) error
}

type tab struct {
	id        string
	page      inspectablePage
	inspector *inspector.Inspector
}

type TerminalInterface struct {
	opts    Options
	logger  *logrus.Logger
	storage interfaces.Storage
	broker  *relay.Broker
	panel   *panel.Panel
	browser *browser.Browser
	reader  *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	tabsMu sync.Mutex
	tabs   []*tab

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTerminalInterface - wires storage, relay, panel and (unless offline)
// the browser into one session
func NewTerminalInterface(opts Options, logger *logrus.Logger) (*TerminalInterface, error) {
	cfg := opts.Config
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	settings := storage.NewSettings(store)
	if err := seedSettings(settings, cfg); err != nil {
		store.Close()
		return nil, err
	}

	newGenerator := func(s entities.Settings) (interfaces.Generator, error) {
		return ai.NewClient(ai.Config{
			Provider: s.Provider,
			APIKey:   s.APIKey,
			Model:    cfg.Model(s.Provider),
		}, logger)
	}

	broker := relay.NewBroker(logger)
	p := panel.NewPanel(broker, store, settings, newGenerator, logger)
	if err := p.Open(); err != nil {
		broker.Close()
		store.Close()
		return nil, fmt.Errorf("failed to open panel: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &TerminalInterface{
		opts:    opts,
		logger:  logger,
		storage: store,
		broker:  broker,
		panel:   p,
		reader:  bufio.NewReader(opts.In),
		out:     opts.Out,
		ctx:     ctx,
		cancel:  cancel,
	}

	if !opts.Offline {
		b, err := browser.Launch(browser.Options{Headless: cfg.Headless, StateDir: cfg.StateDir}, logger)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("failed to initialize browser: %w", err)
		}
		b.OnPage(func(lp *browser.LivePage) {
			insp := t.attach(lp.ID(), lp)
			lp.OnNavigate(insp.Reset)
		})
		t.browser = b
	}

	t.wg.Add(2)
	go func() {
		defer t.wg.Done()
		if err := p.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("panel stopped")
		}
	}()
	go func() {
		defer t.wg.Done()
		t.reportSelections(ctx)
	}()

	return t, nil
}

func openStorage(cfg *config.Config) (interfaces.Storage, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return storage.NewSQLiteState(cfg.SQLitePath())
	default:
		return storage.NewFileState(cfg.StateDir)
	}
}

// seedSettings stores the environment credential when nothing was saved yet
func seedSettings(settings *storage.Settings, cfg *config.Config) error {
	current, err := settings.Load()
	if err != nil {
		return err
	}
	if current.APIKey != "" {
		return nil
	}
	key := cfg.APIKey(cfg.Provider)
	if key == "" {
		return nil
	}
	return settings.Save(entities.Settings{Provider: cfg.Provider, APIKey: key})
}

// attach - hosts an inspector in page and makes it the foreground tab
func (t *TerminalInterface) attach(id string, page inspectablePage) *inspector.Inspector {
	hl := highlight.NewController(page, page, t.logger)
	insp := inspector.NewInspector(page, hl, t.broker, t.logger)
	endpoint := inspector.NewEndpoint(insp, page, t.logger)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		_ = page.Run(t.ctx)
	}()

	t.tabsMu.Lock()
	t.tabs = append(t.tabs, &tab{id: id, page: page, inspector: insp})
	t.tabsMu.Unlock()

	t.broker.RegisterPage(id, endpoint.HandleRequest)
	t.broker.Activate(id)
	return insp
}

func (t *TerminalInterface) activeTab() (*tab, bool) {
	id, ok := t.broker.ActiveTab()
	if !ok {
		return nil, false
	}
	t.tabsMu.Lock()
	defer t.tabsMu.Unlock()
	for _, tb := range t.tabs {
		if tb.id == id {
			return tb, true
		}
	}
	return nil, false
}

func (t *TerminalInterface) loadFile(path, pageURL string) (*dom.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if pageURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		pageURL = "file://" + abs
	}
	page, err := dom.ParsePage(pageURL, f, t.logger)
	if err != nil {
		return nil, err
	}
	t.attach(uuid.NewString(), page)
	return page, nil
}

func (t *TerminalInterface) reportSelections(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case el := <-t.panel.Selections():
			t.printf("captured <%s> on %s\n  xpath: %s\n  css:   %s\n", el.Tag, el.PageURL, el.XPath, el.CSSSelector)
		}
	}
}

func (t *TerminalInterface) printf(format string, args ...interface{}) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *TerminalInterface) Run() error {
	t.printf("Page Capture\n============\nType 'help' for commands, or 'quit' to exit\n\n")

	if t.opts.URL != "" {
		if _, err := t.execute(t.ctx, "open "+t.opts.URL); err != nil {
			t.printf("Error: %v\n", err)
		}
	}

	for {
		t.printf("> ")
		input, readErr := t.reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}

		input = strings.TrimSpace(input)
		if input != "" {
			quit, err := t.execute(t.ctx, input)
			if err != nil {
				t.printf("Error: %v\n", err)
			}
			if quit {
				t.printf("Bye!\n")
				return nil
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}

// Close - saves the page context and shuts everything down
func (t *TerminalInterface) Close() error {
	var closeErr error
	if err := t.panel.Close(); err != nil {
		closeErr = err
	}

	t.broker.Close()
	t.cancel()
	t.wg.Wait()

	if t.browser != nil {
		if err := t.browser.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	if err := t.storage.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}
