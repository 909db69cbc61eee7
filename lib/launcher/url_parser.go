package launcher

import (
	"context"
	"errors"
	"io"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/ysmood/kit"
)

var _ io.Writer = &URLParser{}

// URLParser to get control url from stderr
type URLParser struct {
	sync.Mutex

	URL    chan string
	Buffer string // buffer for the browser stderr

	done bool
}

// NewURLParser instance
func NewURLParser() *URLParser {
	return &URLParser{
		URL: make(chan string, 1),
	}
}

var regWS = regexp.MustCompile(`ws://\S+`)

// Write interface
func (r *URLParser) Write(p []byte) (n int, err error) {
	r.Lock()
	defer r.Unlock()

	if !r.done {
		r.Buffer += string(p)

		str := regWS.FindString(r.Buffer)
		if str != "" {
			r.URL <- strings.TrimSpace(str)
			r.done = true
			r.Buffer = ""
		}
	}

	return len(p), nil
}

// Err returns the common error parsed from stderr
func (r *URLParser) Err() error {
	r.Lock()
	defer r.Unlock()

	msg := "failed to get the debug url: "

	if strings.Contains(r.Buffer, "error while loading shared libraries") {
		msg = "failed to launch the browser, some shared libraries are missing: "
	}

	if strings.Contains(r.Buffer, "Opening in existing browser session") {
		msg = "quit the current running browser first: "
	}

	return errors.New(msg + strings.TrimSpace(r.Buffer))
}

// ResolveURL asks the browser for its websocket debugger url, u can be
// "http://host:9222" or the "ws://host:9222/devtools/browser/xxx" printed by the browser.
func ResolveURL(ctx context.Context, u string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return "", err
	}

	parsed = toHTTP(*parsed)
	parsed.Path = "/json/version"

	obj, err := kit.Req(parsed.String()).Context(ctx).JSON()
	if err != nil {
		return "", err
	}

	ws := obj.Get("webSocketDebuggerUrl").String()
	if ws == "" {
		return "", errors.New("no webSocketDebuggerUrl from " + parsed.String())
	}
	return ws, nil
}
