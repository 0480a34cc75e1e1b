package venue

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConfig holds the tunables for a wsClient.
type wsConfig struct {
	URL string

	ReadBufferSize  int
	WriteBufferSize int

	// IdleTimeout is the maximum duration of silence before the client
	// considers the connection dead and reconnects.
	IdleTimeout time.Duration

	Backoff Backoff
	Headers http.Header
}

func defaultWSConfig(url string) wsConfig {
	return wsConfig{
		URL:             url,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		IdleTimeout:     30 * time.Second,
		Backoff:         DefaultBackoff(),
	}
}

// wsClient is a resilient WebSocket connection: it reconnects with
// exponential backoff on any read error, re-running onConnect (typically a
// resubscribe) after every successful reconnect, and fans every inbound
// frame out to a single consumer channel. It gives up after
// MaxReconnectAttempts consecutive failures.
type wsClient struct {
	cfg wsConfig
	log *slog.Logger

	mu   sync.RWMutex
	conn *websocket.Conn

	frames chan []byte

	onConnect func(ctx context.Context) error
}

func newWSClient(cfg wsConfig, log *slog.Logger, onConnect func(ctx context.Context) error) *wsClient {
	return &wsClient{
		cfg:       cfg,
		log:       log,
		frames:    make(chan []byte, 1024),
		onConnect: onConnect,
	}
}

// Frames returns the channel every inbound frame is delivered on.
func (c *wsClient) Frames() <-chan []byte { return c.frames }

// Send writes data as a text frame. Errors are logged, not returned: a
// failed send will surface as a read error on the next ReadMessage and
// trigger the normal reconnect path.
func (c *wsClient) Send(data []byte) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.log.Warn("websocket write failed", "error", err)
	}
}

func (c *wsClient) dial(ctx context.Context) error {
	dialer := websocket.Dialer{
		ReadBufferSize:  c.cfg.ReadBufferSize,
		WriteBufferSize: c.cfg.WriteBufferSize,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := net.Dialer{}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				_ = tc.SetNoDelay(true)
			}
			return conn, nil
		},
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, c.cfg.Headers)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Run dials, calls onConnect, and reads frames until ctx is canceled or
// the reconnect attempt budget is exhausted. It returns nil on clean
// cancellation and a non-nil error once backoff is exhausted.
func (c *wsClient) Run(ctx context.Context) error {
	defer close(c.frames)

	attempt := 0
	for {
		attempt++
		if err := c.dial(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if attempt >= MaxReconnectAttempts {
				return err
			}
			wait := c.cfg.Backoff.Next(attempt)
			c.log.Warn("websocket dial failed, retrying", "attempt", attempt, "wait", wait, "error", err)
			if !sleepOrDone(ctx, wait) {
				return nil
			}
			continue
		}

		c.log.Info("websocket connected", "url", c.cfg.URL, "attempt", attempt)
		if c.onConnect != nil {
			if err := c.onConnect(ctx); err != nil {
				c.log.Warn("onConnect hook failed", "error", err)
			}
		}
		attempt = 0

		err := c.readLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == errReconnectBudgetExhausted {
			return err
		}
	}
}

var errReconnectBudgetExhausted = errConst("websocket: reconnect attempt budget exhausted")

type errConst string

func (e errConst) Error() string { return string(e) }

func (c *wsClient) readLoop(ctx context.Context) error {
	attempt := 0
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if c.cfg.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if ctx.Err() != nil {
				return nil
			}
			attempt++
			if attempt >= MaxReconnectAttempts {
				c.log.Error("websocket reconnect attempts exhausted, giving up", "attempts", attempt)
				return errReconnectBudgetExhausted
			}
			wait := c.cfg.Backoff.Next(attempt)
			c.log.Warn("websocket read failed, reconnecting", "attempt", attempt, "wait", wait, "error", err)
			if !sleepOrDone(ctx, wait) {
				return nil
			}
			if derr := c.dial(ctx); derr != nil {
				continue
			}
			if c.onConnect != nil {
				if oerr := c.onConnect(ctx); oerr != nil {
					c.log.Warn("onConnect hook failed after reconnect", "error", oerr)
				}
			}
			attempt = 0
			continue
		}

		select {
		case c.frames <- msg:
		default:
			c.log.Warn("frame channel full, dropping inbound frame")
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
