package cdp

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocket is the default websocket transport, it wraps gorilla/websocket
type WebSocket struct {
	// WriteBufferSize of the dialer, default is 1MB
	WriteBufferSize int

	conn *websocket.Conn
}

var _ WebSocketable = &WebSocket{}

// Connect interface. The connection will be closed when ctx is done.
func (ws *WebSocket) Connect(ctx context.Context, url string, header http.Header) error {
	dialer := *websocket.DefaultDialer
	dialer.WriteBufferSize = ws.WriteBufferSize
	if dialer.WriteBufferSize == 0 {
		dialer.WriteBufferSize = 1 * 1024 * 1024
	}

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return err
	}
	ws.conn = conn

	// The ctx will be ignored after the Connection is established,
	// therefore we need extra code to close it.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	return nil
}

// Send a message
func (ws *WebSocket) Send(data []byte) error {
	return ws.conn.WriteMessage(websocket.TextMessage, data)
}

// Read a message
func (ws *WebSocket) Read() ([]byte, error) {
	for {
		msgType, data, err := ws.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType == websocket.TextMessage {
			return data, nil
		}
	}
}
