// Package pwdriver is a calce2e.Backend on top of playwright-go.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/calce2e"
	"github.com/go-rod/calce2e/lib/input"
	"github.com/go-rod/calce2e/lib/js"
	"github.com/go-rod/calce2e/lib/launcher"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/playwright-community/playwright-go"
)

var _ calce2e.Backend = &Backend{}

// Backend resolves the browser in this order:
// the driver and the chromium version-matched to playwright-go, installed on demand,
// then the system browser with the installed driver.
// The resolution happens once, the driver process is shared by all the pages until Close.
type Backend struct {
	// SkipInstall disables the install of the version-matched driver and browser
	SkipInstall bool

	// ExecutablePath of the system browser, default is the one launcher.LookPath finds
	ExecutablePath string

	// Args for the browser
	Args []string

	Logger utils.Logger

	mu         sync.Mutex
	pw         *playwright.Playwright
	executable string
	err        error
	launched   bool
}

// New backend
func New() *Backend {
	return &Backend{
		Args:   []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
		Logger: utils.LoggerQuiet,
	}
}

func (b *Backend) start() (*playwright.Playwright, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pw != nil || b.err != nil {
		return b.pw, b.executable, b.err
	}

	var errInstall error
	if b.SkipInstall {
		errInstall = errors.New("install skipped")
	} else {
		opts := &playwright.RunOptions{
			Browsers: []string{"chromium"},
			Stdout:   io.Discard,
			Stderr:   io.Discard,
		}

		errInstall = playwright.Install(opts)
		if errInstall == nil {
			pw, err := playwright.Run(opts)
			if err == nil {
				b.pw = pw
				return pw, "", nil
			}
			errInstall = err
		}
		b.logger().Println("playwright install failed, fallback to the system browser:", errInstall)
	}

	bin := b.ExecutablePath
	if bin == "" {
		found, has := launcher.LookPath()
		if !has {
			b.err = &calce2e.Error{
				Code:    calce2e.ErrEnvironmentUnavailable,
				Details: "no compatible browser",
				Err:     fmt.Errorf("%w: %v", launcher.ErrBrowserNotFound, errInstall),
			}
			return nil, "", b.err
		}
		bin = found
	}

	pw, err := playwright.Run(&playwright.RunOptions{
		SkipInstallBrowsers: true,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	})
	if err != nil {
		b.err = &calce2e.Error{
			Code:    calce2e.ErrEnvironmentUnavailable,
			Details: "playwright driver",
			Err:     errors.Join(errInstall, err),
		}
		return nil, "", b.err
	}

	b.logger().Println("use the system browser:", bin)

	b.pw = pw
	b.executable = bin
	return pw, bin, nil
}

// Open launches a new browser with a blank page.
// If the installed chromium fails to launch before any launch has ever succeeded,
// the system browser is tried once, and the one that launches is used from then on.
func (b *Backend) Open(ctx context.Context, headless bool) (calce2e.Surface, error) {
	pw, bin, err := b.start()
	if err != nil {
		return nil, err
	}

	browser, err := b.launch(ctx, pw, bin, headless)
	if err != nil {
		browser, err = b.fallback(ctx, pw, bin, headless, err)
		if err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	b.launched = true
	b.mu.Unlock()

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		return nil, err
	}

	return &surface{browser: browser, page: page}, nil
}

func (b *Backend) launch(ctx context.Context, pw *playwright.Playwright, bin string, headless bool) (playwright.Browser, error) {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     b.Args,
		Timeout:  timeout(ctx),
	}
	if bin != "" {
		opts.ExecutablePath = playwright.String(bin)
	}
	return pw.Chromium.Launch(opts)
}

// fallback to the system browser when the installed chromium fails to launch.
// Once a browser has launched, a later failure only belongs to the session that hit it.
func (b *Backend) fallback(ctx context.Context, pw *playwright.Playwright, bin string, headless bool, errLaunch error) (
	playwright.Browser, error,
) {
	b.mu.Lock()
	launched := b.launched
	b.mu.Unlock()

	if ctx.Err() != nil || launched || errors.Is(errLaunch, playwright.ErrTimeout) {
		return nil, errLaunch
	}

	system := b.ExecutablePath
	if system == "" {
		system, _ = launcher.LookPath()
	}
	if system == "" || bin != "" {
		return nil, &calce2e.Error{Code: calce2e.ErrEnvironmentUnavailable, Details: "launch chromium", Err: errLaunch}
	}

	b.logger().Println("failed to launch the installed chromium, fallback to the system browser", system+":", errLaunch)

	browser, err := b.launch(ctx, pw, system, headless)
	if err != nil {
		return nil, &calce2e.Error{
			Code:    calce2e.ErrEnvironmentUnavailable,
			Details: system,
			Err:     errors.Join(errLaunch, err),
		}
	}

	b.mu.Lock()
	b.executable = system
	b.mu.Unlock()

	return browser, nil
}

// Close the playwright driver
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pw == nil {
		return nil
	}
	err := b.pw.Stop()
	b.pw = nil
	return err
}

func (b *Backend) logger() utils.Logger {
	if b.Logger == nil {
		return utils.LoggerQuiet
	}
	return b.Logger
}

type surface struct {
	browser playwright.Browser
	page    playwright.Page

	mu     sync.Mutex
	closed bool
}

func (s *surface) Navigate(ctx context.Context, url string) error {
	if err := s.check(); err != nil {
		return err
	}

	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeout(ctx),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return &calce2e.Error{Code: calce2e.ErrTimeout, Details: s.state(), Err: err}
	}
	return err
}

func (s *surface) Click(ctx context.Context, selector string) error {
	if err := s.check(); err != nil {
		return err
	}

	err := s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: timeout(ctx),
	})
	return notFound(err, selector)
}

func (s *surface) Focus(ctx context.Context, selector string) error {
	if err := s.check(); err != nil {
		return err
	}

	err := s.page.Locator(selector).First().Focus(playwright.LocatorFocusOptions{
		Timeout: timeout(ctx),
	})
	return notFound(err, selector)
}

func (s *surface) Press(ctx context.Context, key input.Key) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.page.Keyboard().Press(key.Name())
}

func (s *surface) Value(ctx context.Context, selector string) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}

	v, err := s.page.Locator(selector).First().Evaluate(
		`el => (el.value !== undefined && el.value !== null) ? String(el.value) : el.textContent`,
		nil,
		playwright.LocatorEvaluateOptions{Timeout: timeout(ctx)},
	)
	if err != nil {
		return "", notFound(err, selector)
	}

	str, _ := v.(string)
	return str, nil
}

func (s *surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.browser.Close()
}

func (s *surface) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &calce2e.Error{Code: calce2e.ErrSessionClosed}
	}
	return nil
}

func (s *surface) state() *calce2e.PageState {
	state := &calce2e.PageState{URL: s.page.URL()}

	v, err := s.page.Evaluate(js.PageState)
	if err != nil {
		return state
	}
	if obj, ok := v.(map[string]interface{}); ok {
		state.ReadyState, _ = obj["readyState"].(string)
	}
	return state
}

// timeout in milliseconds till the deadline of the ctx, nil means the playwright default
func timeout(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}

	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return &ms
}

func notFound(err error, selector string) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return &calce2e.Error{Code: calce2e.ErrElementNotFound, Details: selector, Err: err}
	}
	return err
}
