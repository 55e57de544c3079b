package terminal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"page_capture/application/panel"
	"page_capture/application/selector"
	"page_capture/domain/entities"
	"page_capture/infrastructure/ai"
	"page_capture/infrastructure/browser"
	"page_capture/infrastructure/dom"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"golang.org/x/net/html"
)

var (
	errUsage      = errors.New("wrong arguments, see 'help'")
	errNoBrowser  = errors.New("no browser in offline mode, use 'load <file>'")
	errNoTab      = errors.New("no page is open")
	errNotOffline = errors.New("the active tab is a live page, interact with it in the browser window")
)

const helpText = `Pages
  open <url>                  open a page in a new browser tab
  load <file> [url]           open a saved HTML file as an offline page
  tabs                        list open tabs
  use <n>                     bring tab n to the foreground
Inspector
  inspect                     start or stop the inspector on the foreground tab
  stop                        stop the inspector
  hide | show-panel           simulate the panel being hidden or shown again
  hover <css> | click <css>   offline pages: point at or click an element
  key <name>                  offline pages: press a key (e.g. Escape)
Captured context
  pages                       list captured pages
  elements <page>             list elements captured on a page
  remove <page> [n]           delete a captured page, or element n of it
  flow                        show the flow order
  toggle|up|down|drop <page>  edit the flow order
  save                        save the captured context
Code
  generate [feature] [steps] [pom]
  show                        print the last generated code
  copy [feature] [steps] [pom]
  settings [<provider> <key>]
  quit`

// execute runs one command line. It reports whether the session should end.
func (t *TerminalInterface) execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		t.printf("%s\n", helpText)
		return false, nil
	case "open":
		return false, t.cmdOpen(args)
	case "load":
		return false, t.cmdLoad(args)
	case "tabs":
		t.cmdTabs()
		return false, nil
	case "use":
		return false, t.cmdUse(args)
	case "inspect":
		active, err := t.panel.ToggleInspector(ctx)
		if err != nil {
			return false, err
		}
		t.printf("inspector %s\n", stateWord(active))
		return false, nil
	case "stop":
		if err := t.panel.StopInspector(ctx); err != nil {
			return false, err
		}
		t.printf("inspector stopped\n")
		return false, nil
	case "hide":
		return false, t.panel.SetVisible(ctx, false)
	case "show-panel":
		return false, t.panel.SetVisible(ctx, true)
	case "hover", "click":
		return false, t.cmdPointer(ctx, cmd, args)
	case "key":
		return false, t.cmdKey(ctx, args)
	case "pages":
		t.cmdPages()
		return false, nil
	case "elements":
		return false, t.cmdElements(args)
	case "remove":
		return false, t.cmdRemove(args)
	case "flow":
		t.cmdFlow()
		return false, nil
	case "toggle", "up", "down", "drop":
		return false, t.cmdFlowEdit(cmd, args)
	case "save":
		if err := t.panel.Save(); err != nil {
			return false, err
		}
		t.printf("saved\n")
		return false, nil
	case "generate":
		return false, t.cmdGenerate(ctx, args)
	case "show":
		return false, t.cmdShow()
	case "copy":
		return false, t.cmdCopy(args)
	case "settings":
		return false, t.cmdSettings(args)
	default:
		return false, fmt.Errorf("unknown command %q, see 'help'", cmd)
	}
}

func (t *TerminalInterface) cmdOpen(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if t.browser == nil {
		return errNoBrowser
	}
	lp, err := t.browser.Open(args[0])
	if err != nil {
		return err
	}
	t.printf("opened %s\n", lp.URL())
	return nil
}

func (t *TerminalInterface) cmdLoad(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	pageURL := ""
	if len(args) == 2 {
		pageURL = args[1]
	}
	page, err := t.loadFile(args[0], pageURL)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	t.printf("loaded %s\n", page.URL())
	return nil
}

func (t *TerminalInterface) cmdTabs() {
	active, _ := t.broker.ActiveTab()
	t.tabsMu.Lock()
	defer t.tabsMu.Unlock()
	for i, tb := range t.tabs {
		marker := " "
		if tb.id == active {
			marker = "*"
		}
		t.printf("%s %d. %s\n", marker, i+1, tb.page.URL())
	}
}

func (t *TerminalInterface) cmdUse(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	t.tabsMu.Lock()
	if n < 1 || n > len(t.tabs) {
		t.tabsMu.Unlock()
		return fmt.Errorf("no tab %d", n)
	}
	tb := t.tabs[n-1]
	t.tabsMu.Unlock()

	if lp, ok := tb.page.(*browser.LivePage); ok {
		if err := lp.BringToFront(); err != nil {
			return err
		}
	}
	t.broker.Activate(tb.id)
	t.printf("foreground: %s\n", tb.page.URL())
	return nil
}

// offlinePage returns the foreground tab when it is an in-memory page
func (t *TerminalInterface) offlinePage() (*dom.Page, error) {
	tb, ok := t.activeTab()
	if !ok {
		return nil, errNoTab
	}
	page, ok := tb.page.(*dom.Page)
	if !ok {
		return nil, errNotOffline
	}
	return page, nil
}

func (t *TerminalInterface) cmdPointer(ctx context.Context, cmd string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	page, err := t.offlinePage()
	if err != nil {
		return err
	}
	css := strings.Join(args, " ")

	kind := entities.EventPointerMove
	if cmd == "click" {
		kind = entities.EventClick
	}

	var dispatchErr error
	err = page.Do(ctx, func() {
		var nodes []*html.Node
		nodes, dispatchErr = selector.ResolveCSS(page.Document(), css)
		if dispatchErr != nil {
			return
		}
		if len(nodes) == 0 {
			dispatchErr = fmt.Errorf("no element matches %q", css)
			return
		}
		page.Dispatch(&entities.InputEvent{Kind: kind, Target: nodes[0]})
	})
	if err != nil {
		return err
	}
	return dispatchErr
}

func (t *TerminalInterface) cmdKey(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	page, err := t.offlinePage()
	if err != nil {
		return err
	}
	return page.Do(ctx, func() {
		page.Dispatch(&entities.InputEvent{Kind: entities.EventKeyPress, Key: args[0]})
	})
}

func (t *TerminalInterface) cmdPages() {
	pages := t.panel.Pages()
	if len(pages) == 0 {
		t.printf("no pages captured yet\n")
		return
	}
	inFlow := make(map[string]bool)
	for _, s := range t.panel.Flow() {
		inFlow[s.URL] = true
	}
	for i, u := range pages {
		marker := " "
		if inFlow[u] {
			marker = "+"
		}
		t.printf("%s %d. %s (%d elements)\n", marker, i+1, u, len(t.panel.Elements(u)))
	}
}

// resolvePage accepts a page URL or its 1-based number in 'pages'
func (t *TerminalInterface) resolvePage(arg string) string {
	if n, err := strconv.Atoi(arg); err == nil {
		pages := t.panel.Pages()
		if n >= 1 && n <= len(pages) {
			return pages[n-1]
		}
	}
	return arg
}

func (t *TerminalInterface) cmdElements(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	pageURL := t.resolvePage(args[0])
	els := t.panel.Elements(pageURL)
	if len(els) == 0 {
		return fmt.Errorf("no elements captured on %s", pageURL)
	}
	for i, el := range els {
		label := shorten(el.Text, 40)
		t.printf("%d. <%s> %q\n   xpath: %s\n   css:   %s\n", i+1, el.Tag, label, el.XPath, el.CSSSelector)
	}
	return nil
}

// shorten cuts s to at most n characters, marking the cut with "..."
func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func (t *TerminalInterface) cmdRemove(args []string) error {
	switch len(args) {
	case 1:
		pageURL := t.resolvePage(args[0])
		if !t.panel.RemovePage(pageURL) {
			return fmt.Errorf("no elements captured on %s", pageURL)
		}
		t.printf("removed %s\n", pageURL)
		return nil
	case 2:
		pageURL := t.resolvePage(args[0])
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		return t.panel.RemoveElement(pageURL, n-1)
	default:
		return errUsage
	}
}

func (t *TerminalInterface) cmdFlow() {
	steps := t.panel.Flow()
	if len(steps) == 0 {
		t.printf("flow is empty, add pages with 'toggle <page>'\n")
		return
	}
	for _, s := range steps {
		t.printf("%-12s %s\n", s.Label+":", s.URL)
	}
}

func (t *TerminalInterface) cmdFlowEdit(cmd string, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	pageURL := t.resolvePage(args[0])
	switch cmd {
	case "toggle":
		included, err := t.panel.ToggleFlow(pageURL)
		if err != nil {
			return err
		}
		if included {
			t.printf("added %s to the flow\n", pageURL)
		} else {
			t.printf("removed %s from the flow\n", pageURL)
		}
		return nil
	case "up":
		t.panel.MoveUp(pageURL)
	case "down":
		t.panel.MoveDown(pageURL)
	case "drop":
		if !t.panel.RemoveFromFlow(pageURL) {
			return fmt.Errorf("%s is not in the flow", pageURL)
		}
	}
	t.cmdFlow()
	return nil
}

func parseArtifacts(args []string, def entities.GenerationOptions) (entities.GenerationOptions, error) {
	if len(args) == 0 {
		return def, nil
	}
	var opts entities.GenerationOptions
	for _, a := range args {
		switch strings.ToLower(a) {
		case "feature", "gherkin":
			opts.Feature = true
		case "steps", "stepdefs":
			opts.StepDefinitions = true
		case "pom":
			opts.PageObjects = true
		default:
			return opts, fmt.Errorf("unknown artifact %q", a)
		}
	}
	return opts, nil
}

func (t *TerminalInterface) cmdGenerate(ctx context.Context, args []string) error {
	opts, err := parseArtifacts(args, entities.GenerationOptions{Feature: true})
	if err != nil {
		return err
	}
	t.printf("Generating...\n")
	code, err := t.panel.Generate(ctx, opts)
	if errors.Is(err, panel.ErrNothingSelected) {
		return fmt.Errorf("%w (add pages with 'toggle <page>')", err)
	}
	if err != nil {
		return err
	}
	t.printf("generated: feature %d, step definitions %d, page objects %d chars; use 'show' or 'copy'\n",
		len(code.Gherkin), len(code.StepDefinitions), len(code.POM))
	return nil
}

func (t *TerminalInterface) cmdShow() error {
	code := t.panel.Generated()
	if code.Empty() {
		return errors.New("nothing generated yet")
	}
	out, err := renderCode(code)
	if err != nil {
		return err
	}
	t.printf("%s", out)
	return nil
}

func renderCode(code entities.GeneratedCode) (string, error) {
	var md strings.Builder
	if code.Gherkin != "" {
		md.WriteString("## Feature\n\n```gherkin\n" + code.Gherkin + "\n```\n\n")
	}
	if code.StepDefinitions != "" {
		md.WriteString("## Step definitions\n\n```java\n" + code.StepDefinitions + "\n```\n\n")
	}
	if code.POM != "" {
		md.WriteString("## Page objects\n\n```java\n" + code.POM + "\n```\n")
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return "", err
	}
	return r.Render(md.String())
}

func (t *TerminalInterface) cmdCopy(args []string) error {
	opts, err := parseArtifacts(args, entities.GenerationOptions{Feature: true, StepDefinitions: true, PageObjects: true})
	if err != nil {
		return err
	}
	text, err := t.panel.Export(opts)
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}
	t.printf("Copied!\n")
	return nil
}

func (t *TerminalInterface) cmdSettings(args []string) error {
	switch len(args) {
	case 0:
		s, err := t.panel.Settings()
		if err != nil {
			return err
		}
		key := "not set"
		if s.APIKey != "" {
			key = "set"
		}
		t.printf("provider: %s\napi key: %s\n", s.Provider, key)
		return nil
	case 2:
		provider := strings.ToLower(args[0])
		if !supported(provider) {
			return fmt.Errorf("%w: %q (use one of %s)", ai.ErrUnsupportedProvider, provider, strings.Join(ai.Providers(), ", "))
		}
		if err := t.panel.SaveSettings(entities.Settings{Provider: provider, APIKey: args[1]}); err != nil {
			return err
		}
		t.printf("Saved!\n")
		return nil
	default:
		return errUsage
	}
}

func supported(provider string) bool {
	for _, p := range ai.Providers() {
		if p == provider {
			return true
		}
	}
	return false
}

func stateWord(active bool) string {
	if active {
		return "started"
	}
	return "stopped"
}
