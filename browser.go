package calce2e

import (
	"context"
	"errors"
	"sync"

	"github.com/go-rod/calce2e/lib/cdp"
	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/launcher"
	"github.com/go-rod/calce2e/lib/utils"
)

var _ Backend = &Chrome{}

// Chrome is the default Backend, it drives a chromium browser via the devtools protocol.
// Each Open launches a dedicated browser process with a temp profile.
// The browser executable is resolved once per Chrome and reused by later Opens.
type Chrome struct {
	// Bin is the browser executable, when it's empty Browser is used to resolve it
	Bin string

	// Browser resolves the executable, the pinned revision first, then the system browser.
	// Default is launcher.NewBrowser()
	Browser *launcher.Browser

	// Logger for the browser output and the resolution progress
	Logger utils.Logger

	mu       sync.Mutex
	bin      string
	err      error
	launched bool
}

// NewChrome with the defaults from lib/defaults
func NewChrome() *Chrome {
	return &Chrome{
		Bin:    defaults.Bin,
		Logger: utils.LoggerQuiet,
	}
}

// Resolve the browser executable. Success and ErrBrowserNotFound are remembered,
// other failures, such as a canceled ctx, will be retried by the next call.
func (c *Chrome) Resolve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bin != "" || c.err != nil {
		return c.bin, c.err
	}

	if c.Bin != "" {
		c.bin = c.Bin
		return c.bin, nil
	}

	b := c.Browser
	if b == nil {
		b = launcher.NewBrowser()
		b.Logger = c.logger()
		c.Browser = b
	}
	b.Context = ctx

	bin, err := b.Get()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, launcher.ErrBrowserNotFound) {
			c.err = &Error{Code: ErrEnvironmentUnavailable, Details: "no compatible browser", Err: err}
			return "", c.err
		}
		return "", err
	}

	c.bin = bin
	return bin, nil
}

// Open launches a new browser and opens a blank page in it.
// If the resolved browser fails to launch before any launch has ever succeeded,
// the system browser is tried once, and the one that launches is used from then on.
func (c *Chrome) Open(ctx context.Context, headless bool) (Surface, error) {
	bin, err := c.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	l, u, err := c.launch(ctx, bin, headless)
	if err != nil {
		bin, l, u, err = c.fallback(ctx, bin, headless, err)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.bin = bin
	c.launched = true
	c.mu.Unlock()

	cleanup := func() {
		l.Kill()
		l.Cleanup()
	}

	client := cdp.New(u)
	err = client.Connect(ctx)
	if err != nil {
		cleanup()
		return nil, err
	}

	p, err := openPage(ctx, client, cleanup)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (c *Chrome) launch(ctx context.Context, bin string, headless bool) (*launcher.Launcher, string, error) {
	l := launcher.New().Bin(bin).Headless(headless).Logger(c.logger())

	u, err := l.Launch(ctx)
	if err != nil {
		l.Kill()
		l.Cleanup()
		return nil, "", err
	}
	return l, u, nil
}

// fallback to the system browser when bin fails to launch.
// Once a browser has launched, a later failure only belongs to the session that hit it.
func (c *Chrome) fallback(ctx context.Context, bin string, headless bool, errLaunch error) (
	string, *launcher.Launcher, string, error,
) {
	c.mu.Lock()
	launched := c.launched
	c.mu.Unlock()

	if ctx.Err() != nil || launched {
		return "", nil, "", errLaunch
	}

	var system string
	has := false
	if c.Bin == "" && c.Browser != nil {
		system, has = c.Browser.LookPath()
	}
	if !has || system == bin {
		return "", nil, "", &Error{Code: ErrEnvironmentUnavailable, Details: bin, Err: errLaunch}
	}

	c.logger().Println("failed to launch", bin, "fallback to the system browser", system+":", errLaunch)

	l, u, err := c.launch(ctx, system, headless)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, "", err
		}
		return "", nil, "", &Error{
			Code:    ErrEnvironmentUnavailable,
			Details: system,
			Err:     errors.Join(errLaunch, err),
		}
	}
	return system, l, u, nil
}

func (c *Chrome) logger() utils.Logger {
	if c.Logger == nil {
		return utils.LoggerQuiet
	}
	return c.Logger
}
