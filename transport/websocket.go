package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/weather-mcp/protocol"
)

// WebSocket implements MCP transport over a single WebSocket connection.
// The first client to connect owns the session; any other upgrade attempt
// is refused with 409 Conflict. Serve returns when that client disconnects.
type WebSocket struct {
	addr     string
	listener net.Listener
	upgrader websocket.Upgrader

	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64

	claimed atomic.Bool

	mu    sync.Mutex
	bound string
	conn  *websocket.Conn
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout closes the session when the client stays silent
// for longer than d. Zero disables the idle deadline.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write deadline for each response.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin sets the origin check function for upgrades.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketMaxMessageSize sets the largest accepted message in bytes.
func WithWebSocketMaxMessageSize(n int64) WebSocketOption {
	return func(ws *WebSocket) {
		if n > 0 {
			ws.maxMessageSize = n
		}
	}
}

// WithListener serves on an existing listener instead of listening on addr.
func WithListener(ln net.Listener) WebSocketOption {
	return func(ws *WebSocket) {
		ws.listener = ln
	}
}

// NewWebSocket creates a new WebSocket transport listening on addr.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		writeTimeout:   10 * time.Second,
		maxMessageSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Addr returns the bound address once serving, the configured one before.
func (ws *WebSocket) Addr() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.bound != "" {
		return ws.bound
	}
	return ws.addr
}

// Serve accepts one client and handles its requests until it disconnects,
// ctx is canceled or the session fails.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	ln := ws.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", ws.addr)
		if err != nil {
			return &ProtocolError{Op: "listen", Err: err}
		}
	}
	ws.mu.Lock()
	ws.bound = ln.Addr().String()
	ws.mu.Unlock()

	sessionDone := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws.accept(ctx, w, r, handler, sessionDone)
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var result error
	select {
	case <-ctx.Done():
		result = ctx.Err()
	case err := <-sessionDone:
		result = err
	case err := <-serveErr:
		result = &ProtocolError{Op: "listen", Err: err}
	}

	ws.closeConn()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	return result
}

func (ws *WebSocket) accept(ctx context.Context, w http.ResponseWriter, r *http.Request, handler Handler, done chan<- error) {
	if !ws.claimed.CompareAndSwap(false, true) {
		http.Error(w, "a client is already connected", http.StatusConflict)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied; let another client try.
		ws.claimed.Store(false)
		return
	}
	conn.SetReadLimit(ws.maxMessageSize)

	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()

	write := func(resp *protocol.Response) error {
		if ws.writeTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(ws.writeTimeout))
		}
		return conn.WriteJSON(resp)
	}

	for {
		if ws.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				done <- nil
			} else {
				done <- &ProtocolError{Op: "read", Err: err}
			}
			return
		}
		if err := exchange(ctx, handler, message, write); err != nil {
			done <- err
			return
		}
	}
}

// closeConn sends a close frame to the connected client, if any.
func (ws *WebSocket) closeConn() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.conn == nil {
		return
	}
	_ = ws.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = ws.conn.Close()
}
