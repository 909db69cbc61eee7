package calce2e

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/calce2e/lib/cdp"
	"github.com/go-rod/calce2e/lib/js"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/tidwall/gjson"
	"github.com/ysmood/goob"
)

// the subset of *cdp.Client a page needs
type client interface {
	Call(ctx context.Context, sessionID, method string, params interface{}) ([]byte, error)
	Event() <-chan *cdp.Event
	Close() error
}

type object map[string]interface{}

var _ Surface = &page{}

// page is a Surface over a devtools protocol session
type page struct {
	ctx    context.Context
	cancel func()

	client  client
	event   *goob.Observable
	cleanup func()

	targetID  string
	sessionID string

	sleeper func() utils.Sleeper

	closeOnce sync.Once
	closeErr  error
}

func defaultSleeper() utils.Sleeper {
	return utils.BackoffSleeper(30*time.Millisecond, 500*time.Millisecond, nil)
}

// openPage creates a blank target and attaches a flat session to it.
// The returned page is never nil, Close it even when err is not nil.
func openPage(ctx context.Context, c client, cleanup func()) (*page, error) {
	pageCtx, cancel := context.WithCancel(context.Background())

	p := &page{
		ctx:     pageCtx,
		cancel:  cancel,
		client:  c,
		event:   goob.New(pageCtx),
		cleanup: cleanup,
		sleeper: defaultSleeper,
	}

	go p.pump()

	target, err := p.call(ctx, "Target.createTarget", object{"url": "about:blank"})
	if err != nil {
		return p, err
	}
	p.targetID = target.Get("targetId").String()

	session, err := p.call(ctx, "Target.attachToTarget", object{
		"targetId": p.targetID,
		"flatten":  true, // if it's not set no response will return
	})
	if err != nil {
		return p, err
	}
	p.sessionID = session.Get("sessionId").String()

	_, err = p.call(ctx, "Page.enable", nil)
	return p, err
}

// pump all the events from the client into the observable, it ends when the client is closed
func (p *page) pump() {
	for e := range p.client.Event() {
		p.event.Publish(e)
	}
}

// call the method under the page session, the browser session is used before the page is attached
func (p *page) call(ctx context.Context, method string, params interface{}) (gjson.Result, error) {
	if p.ctx.Err() != nil {
		return gjson.Result{}, &Error{Code: ErrSessionClosed, Details: method}
	}

	res, err := p.client.Call(ctx, p.sessionID, method, params)
	if err != nil {
		if errors.Is(err, cdp.ErrConnClosed) {
			return gjson.Result{}, &Error{Code: ErrSessionClosed, Details: method, Err: err}
		}
		return gjson.Result{}, err
	}
	return utils.JSON(res), nil
}

// Navigate to the url and wait for the load event of the page
func (p *page) Navigate(ctx context.Context, url string) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// subscribe before the navigation, or the event may be missed
	events := p.event.Subscribe(waitCtx)

	res, err := p.call(ctx, "Page.navigate", object{"url": url})
	if err != nil {
		if ctx.Err() != nil {
			return p.timeout(ctx.Err())
		}
		return err
	}
	if text := res.Get("errorText").String(); text != "" {
		return fmt.Errorf("navigate to %s: %s", url, text)
	}

	for {
		select {
		case <-ctx.Done():
			return p.timeout(ctx.Err())
		case e, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return p.timeout(ctx.Err())
				}
				return &Error{Code: ErrSessionClosed, Details: "Page.navigate"}
			}
			msg := e.(*cdp.Event)
			if msg.SessionID == p.sessionID && msg.Method == "Page.loadEventFired" {
				return nil
			}
		}
	}
}

// timeout wraps the cause with the last known state of the page
func (p *page) timeout(cause error) error {
	ctx, cancel := context.WithTimeout(p.ctx, time.Second)
	defer cancel()

	state := &PageState{}
	res, err := p.call(ctx, "Runtime.evaluate", object{
		"expression":    js.PageState,
		"returnByValue": true,
	})
	if err == nil {
		state.URL = res.Get("result.value.url").String()
		state.ReadyState = res.Get("result.value.readyState").String()
	}

	return &Error{Code: ErrTimeout, Details: state, Err: cause}
}

// Close the browser, then release the connection and the process
func (p *page) Close() error {
	p.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		// the browser may have exited already
		_, err := p.client.Call(ctx, "", "Browser.close", nil)
		if err != nil && !errors.Is(err, cdp.ErrConnClosed) {
			p.closeErr = err
		}

		_ = p.client.Close()
		p.cancel()

		if p.cleanup != nil {
			p.cleanup()
		}
	})
	return p.closeErr
}
