// Package cdp for application layer communication with browser.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/utils"
)

// ErrConnClosed is returned by calls made on a closed connection
var ErrConnClosed = errors.New("cdp connection closed")

// Client is a devtools protocol connection instance.
// Calls are multiplexed over one websocket, responses are routed back by the request id.
type Client struct {
	ctx   context.Context
	close func()

	wsURL  string
	header http.Header
	ws     WebSocketable

	muSend sync.Mutex

	muPending sync.Mutex
	pending   map[int]chan *Response
	closed    error // set once the connection is gone, later calls fail with it

	chEvent chan *Event // events from browser

	count uint64

	logger utils.Logger
}

// Request to send to browser
type Request struct {
	ID        int         `json:"id"`
	SessionID string      `json:"sessionId,omitempty"`
	Method    string      `json:"method"`
	Params    interface{} `json:"params,omitempty"`
}

// Response from browser
type Response struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Event from browser
type Event struct {
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// WebSocketable enables you to choose the websocket lib you want to use.
// Such as you can easily wrap gorilla/websocket and use it as the transport layer.
type WebSocketable interface {
	// Connect to server
	Connect(ctx context.Context, url string, header http.Header) error
	// Send text message only
	Send([]byte) error
	// Read returns text message only
	Read() ([]byte, error)
}

// New creates a cdp connection, all messages from Client.Event must be received or they will block the client.
func New(websocketURL string) *Client {
	logger := utils.LoggerQuiet
	if defaults.CDP {
		logger = utils.NewLogger("[cdp] ")
	}

	return &Client{
		pending: map[int]chan *Response{},
		chEvent: make(chan *Event),
		wsURL:   websocketURL,
		logger:  logger,
		close:   func() {},
	}
}

// Header set the header of the remote control websocket request
func (cdp *Client) Header(header http.Header) *Client {
	cdp.header = header
	return cdp
}

// Websocket set the websocket lib to use
func (cdp *Client) Websocket(ws WebSocketable) *Client {
	cdp.ws = ws
	return cdp
}

// Logger sets the logger to log all the requests, responses, and events transferred between the harness and the browser.
func (cdp *Client) Logger(l utils.Logger) *Client {
	cdp.logger = l
	return cdp
}

// Connect to browser
func (cdp *Client) Connect(ctx context.Context) error {
	if cdp.ws == nil {
		cdp.ws = &WebSocket{}
	}

	// the connection outlives the dial ctx, Close is the only way to stop it
	conn, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)

	err := cdp.ws.Connect(conn, cdp.wsURL, cdp.header)
	if !stop() {
		cancel()
		if err == nil {
			err = ctx.Err()
		}
	}
	if err != nil {
		cancel()
		return err
	}

	cdp.ctx = conn
	cdp.close = cancel

	go cdp.readMsgFromBrowser()

	return nil
}

// MustConnect is similar to Connect
func (cdp *Client) MustConnect(ctx context.Context) *Client {
	utils.E(cdp.Connect(ctx))
	return cdp
}

// Close the connection, pending calls will return ErrConnClosed. It's safe to call it multiple times.
func (cdp *Client) Close() error {
	cdp.close()
	return nil
}

// Call a method and get its response
func (cdp *Client) Call(ctx context.Context, sessionID, method string, params interface{}) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req := &Request{
		ID:        int(atomic.AddUint64(&cdp.count, 1)),
		SessionID: sessionID,
		Method:    method,
		Params:    params,
	}

	cdp.logger.Println(req)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ch, err := cdp.track(req.ID)
	if err != nil {
		return nil, err
	}
	defer cdp.untrack(req.ID)

	if err := cdp.sendMsg(data); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case res, ok := <-ch:
		if !ok {
			return nil, cdp.closedErr()
		}
		if res.Error != nil {
			return nil, res.Error
		}
		return res.Result, nil
	}
}

// Event returns a channel that will emit browser devtools protocol events. Must be consumed or will block producer.
// The channel is closed when the connection is closed.
func (cdp *Client) Event() <-chan *Event {
	return cdp.chEvent
}

func (cdp *Client) sendMsg(data []byte) error {
	cdp.muSend.Lock()
	defer cdp.muSend.Unlock()

	err := cdp.ws.Send(data)
	if err != nil {
		cdp.wsClose(err)
		return err
	}

	return nil
}

// message is either a response or an event, a response always has a non-zero id
type message struct {
	ID        int             `json:"id"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
}

func (cdp *Client) readMsgFromBrowser() {
	defer close(cdp.chEvent)

	for {
		data, err := cdp.ws.Read()
		if err != nil {
			cdp.wsClose(err)
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			cdp.logger.Println("bad message:", utils.Trim(string(data), 200))
			continue
		}

		if msg.ID != 0 {
			res := &Response{ID: msg.ID, Result: msg.Result, Error: msg.Error}
			cdp.logger.Println(res)
			cdp.respond(res)
			continue
		}

		evt := &Event{SessionID: msg.SessionID, Method: msg.Method, Params: msg.Params}
		cdp.logger.Println(evt)
		select {
		case <-cdp.ctx.Done():
			cdp.wsClose(nil)
			return
		case cdp.chEvent <- evt:
		}
	}
}

func (cdp *Client) wsClose(err error) {
	closed := ErrConnClosed
	if err != nil {
		cdp.logger.Println(err)
		closed = fmt.Errorf("%w: %v", ErrConnClosed, err)
	}

	cdp.muPending.Lock()
	if cdp.closed == nil {
		cdp.closed = closed
		for id, ch := range cdp.pending {
			close(ch)
			delete(cdp.pending, id)
		}
	}
	cdp.muPending.Unlock()

	cdp.close()
}

func (cdp *Client) track(id int) (<-chan *Response, error) {
	cdp.muPending.Lock()
	defer cdp.muPending.Unlock()

	if cdp.closed != nil {
		return nil, cdp.closed
	}

	ch := make(chan *Response, 1)
	cdp.pending[id] = ch
	return ch, nil
}

func (cdp *Client) untrack(id int) {
	cdp.muPending.Lock()
	defer cdp.muPending.Unlock()
	delete(cdp.pending, id)
}

func (cdp *Client) respond(res *Response) {
	cdp.muPending.Lock()
	defer cdp.muPending.Unlock()

	if ch, has := cdp.pending[res.ID]; has {
		ch <- res
		delete(cdp.pending, res.ID)
	}
}

func (cdp *Client) closedErr() error {
	cdp.muPending.Lock()
	defer cdp.muPending.Unlock()
	return cdp.closed
}
