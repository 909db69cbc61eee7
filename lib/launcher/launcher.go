// Package launcher finds, downloads and launches the browser the harness drives.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/ysmood/kit"
	"github.com/ysmood/leakless"
)

const flagKeepUserDataDir = "keep-user-data-dir"

// Launcher is a helper to launch browser binary smartly
type Launcher struct {
	Flags map[string][]string `json:"flags"`

	bin      string
	browser  *Browser
	logger   utils.Logger
	leakless bool
	reap     bool

	mu       sync.Mutex
	launched bool
	cmd      *exec.Cmd
	pid      int
	exit     chan utils.Nil
}

// New returns the default arguments to start browser.
// "--" is optional, with or without it won't affect the result.
// List of switches: https://peter.sh/experiments/chromium-command-line-switches/
func New() *Launcher {
	dir := filepath.Join(os.TempDir(), "calce2e", "user-data", kit.RandString(8))

	defaultFlags := map[string][]string{
		"user-data-dir": {dir},

		// use random port by default
		"remote-debugging-port": {"0"},

		// enable headless by default
		"headless": nil,

		// to prevent welcome page
		"": {"about:blank"},

		"disable-background-networking":                      nil,
		"disable-background-timer-throttling":                nil,
		"disable-backgrounding-occluded-windows":             nil,
		"disable-breakpad":                                   nil,
		"disable-client-side-phishing-detection":             nil,
		"disable-component-extensions-with-background-pages": nil,
		"disable-default-apps":                               nil,
		"disable-dev-shm-usage":                              nil,
		"disable-extensions":                                 nil,
		"disable-features":                                   {"site-per-process", "TranslateUI"},
		"disable-gpu":                                        nil,
		"disable-hang-monitor":                               nil,
		"disable-ipc-flooding-protection":                    nil,
		"disable-popup-blocking":                             nil,
		"disable-prompt-on-repost":                           nil,
		"disable-renderer-backgrounding":                     nil,
		"disable-sync":                                       nil,
		"enable-automation":                                  nil,
		"force-color-profile":                                {"srgb"},
		"metrics-recording-only":                             nil,
		"no-first-run":                                       nil,
		"no-sandbox":                                         nil,
		"use-mock-keychain":                                  nil,
	}

	if defaults.Show {
		delete(defaultFlags, "headless")
	}

	return &Launcher{
		Flags:    defaultFlags,
		bin:      defaults.Bin,
		logger:   utils.LoggerQuiet,
		leakless: true,
		reap:     true,
		exit:     make(chan utils.Nil),
	}
}

// Get flag's first value
func (l *Launcher) Get(name string) (string, bool) {
	list, has := l.GetFlags(name)

	if has {
		if len(list) == 0 {
			return "", true
		}
		return list[0], true
	}
	return "", false
}

// GetFlags from settings
func (l *Launcher) GetFlags(name string) ([]string, bool) {
	flag, has := l.Flags[strings.TrimLeft(name, "-")]
	return flag, has
}

// Set flag
func (l *Launcher) Set(name string, values ...string) *Launcher {
	l.Flags[strings.TrimLeft(name, "-")] = values
	return l
}

// Append values to the flag
func (l *Launcher) Append(name string, values ...string) *Launcher {
	flags, has := l.GetFlags(name)
	if !has {
		flags = []string{}
	}
	l.Set(name, append(flags, values...)...)
	return l
}

// Delete flag
func (l *Launcher) Delete(name string) *Launcher {
	delete(l.Flags, strings.TrimLeft(name, "-"))
	return l
}

// Bin set browser executable file path. If it's empty, Browser will be used to resolve it.
func (l *Launcher) Bin(path string) *Launcher {
	l.bin = path
	return l
}

// Browser sets the resolver used when Bin is empty
func (l *Launcher) Browser(b *Browser) *Launcher {
	l.browser = b
	return l
}

// Headless switch. Whether to run browser in headless mode. A mode without visible UI.
func (l *Launcher) Headless(enable bool) *Launcher {
	if enable {
		l.Set("headless")
	} else {
		l.Delete("headless")
	}
	return l
}

// UserDataDir is where the browser will look for all of its state, such as cookie and cache.
// When set to empty, system user's default dir will be used.
func (l *Launcher) UserDataDir(dir string) *Launcher {
	if dir == "" {
		l.Delete("user-data-dir")
	} else {
		l.Set("user-data-dir", dir)
	}
	return l
}

// KeepUserDataDir after browser is closed. By default user-data-dir will be removed.
func (l *Launcher) KeepUserDataDir() *Launcher {
	l.Set(flagKeepUserDataDir)
	return l
}

// RemoteDebuggingPort arg
func (l *Launcher) RemoteDebuggingPort(port int) *Launcher {
	l.Set("remote-debugging-port", strconv.FormatInt(int64(port), 10))
	return l
}

// Leakless switch. If enabled, the browser will be force killed after the harness process exits.
func (l *Launcher) Leakless(enable bool) *Launcher {
	l.leakless = enable
	return l
}

// Reap enable/disable a guard to cleanup zombie processes
func (l *Launcher) Reap(enable bool) *Launcher {
	l.reap = enable
	return l
}

// Logger to handle stdout and stderr from browser
func (l *Launcher) Logger(logger utils.Logger) *Launcher {
	l.logger = logger
	return l
}

// FormatArgs returns the formatted arg list for cli
func (l *Launcher) FormatArgs() []string {
	execArgs := []string{}
	for k, v := range l.Flags {
		if k == "" || k == flagKeepUserDataDir {
			continue
		}

		// fix a bug of chrome, if path is not absolute chrome will hang
		if k == "user-data-dir" && len(v) > 0 {
			abs, err := filepath.Abs(v[0])
			if err == nil {
				v = append([]string{abs}, v[1:]...)
			}
		}

		str := "--" + k
		if v != nil {
			str += "=" + strings.Join(v, ",")
		}
		execArgs = append(execArgs, str)
	}
	return append(execArgs, l.Flags[""]...)
}

// MustLaunch is similar to Launch
func (l *Launcher) MustLaunch(ctx context.Context) string {
	u, err := l.Launch(ctx)
	utils.E(err)
	return u
}

// Launch a standalone temp browser instance and returns the websocket debugger url.
// The ctx bounds the whole launch, including the browser resolution.
func (l *Launcher) Launch(ctx context.Context) (string, error) {
	l.mu.Lock()
	if l.launched {
		l.mu.Unlock()
		return "", ErrAlreadyLaunched
	}
	l.launched = true
	l.mu.Unlock()

	if l.reap {
		runReaper()
	}

	bin := l.bin
	if bin == "" {
		b := l.browser
		if b == nil {
			b = NewBrowser()
		}
		b.Context = ctx

		var err error
		bin, err = b.Get()
		if err != nil {
			close(l.exit)
			return "", err
		}
	}

	var ll *leakless.Launcher
	var cmd *exec.Cmd

	if l.leakless && leakless.Support() {
		ll = leakless.New()
		cmd = ll.Command(bin, l.FormatArgs()...)
	} else {
		cmd = exec.Command(bin, l.FormatArgs()...)
	}

	parser := NewURLParser()
	cmd.Stderr = io.MultiWriter(parser, logWriter{l.logger})
	cmd.Stdout = logWriter{l.logger}

	osSetupCmd(cmd)

	err := cmd.Start()
	if err != nil {
		close(l.exit)
		return "", err
	}

	l.mu.Lock()
	l.cmd = cmd
	l.pid = cmd.Process.Pid
	l.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(l.exit)
	}()

	if ll != nil {
		select {
		case <-ctx.Done():
			l.Kill()
			return "", fmt.Errorf("%w: %v", ErrLaunchTimeout, ctx.Err())
		case <-l.exit:
			return "", fmt.Errorf("%w: %v", ErrBrowserExited, parser.Err())
		case pid := <-ll.Pid():
			if ll.Err() != "" {
				l.Kill()
				return "", fmt.Errorf("%w: %s", ErrBrowserExited, ll.Err())
			}
			l.mu.Lock()
			l.pid = pid
			l.mu.Unlock()
		}
	}

	var u string
	select {
	case <-ctx.Done():
		l.Kill()
		return "", fmt.Errorf("%w: %v", ErrLaunchTimeout, ctx.Err())
	case <-l.exit:
		return "", fmt.Errorf("%w: %v", ErrBrowserExited, parser.Err())
	case u = <-parser.URL:
	}

	ws, err := ResolveURL(ctx, u)
	if err != nil {
		l.Kill()
		return "", err
	}
	return ws, nil
}

// PID returns the browser process pid
func (l *Launcher) PID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pid
}

// Kill the browser and the whole process group of it. It's safe to call it multiple times
// or after the browser has exited.
func (l *Launcher) Kill() {
	l.mu.Lock()
	cmd := l.cmd
	pid := l.pid
	l.mu.Unlock()

	if cmd == nil {
		return
	}

	killGroup(cmd.Process.Pid)
	if p, err := os.FindProcess(pid); err == nil {
		_ = p.Kill()
	}
	_ = cmd.Process.Kill()
}

// Exit returns a channel that is closed when the browser process exits
func (l *Launcher) Exit() <-chan utils.Nil {
	return l.exit
}

// Cleanup wait until the Browser exits and release related resources
func (l *Launcher) Cleanup() {
	l.mu.Lock()
	launched := l.launched
	l.mu.Unlock()

	if launched {
		<-l.exit
	}

	if _, has := l.Get(flagKeepUserDataDir); !has {
		dir, _ := l.Get("user-data-dir")
		if dir != "" {
			_ = os.RemoveAll(dir)
		}
	}
}

type logWriter struct {
	logger utils.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	if s := strings.TrimSpace(string(p)); s != "" {
		w.logger.Println(s)
	}
	return len(p), nil
}
