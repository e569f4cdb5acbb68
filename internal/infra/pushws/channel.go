// Package pushws implements domain.PushChannel over a WebSocket connection.
package pushws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/infra/pushcodec"
)

const (
	logCategory       = "push"
	writeTimeout      = 10 * time.Second
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 5 * time.Second
)

// Channel keeps one WebSocket connection open and redials after drops.
// Fields are ordered to minimize memory padding.
type Channel struct {
	dialer     *websocket.Dialer
	session    domain.SessionProvider
	log        domain.Logger
	conn       *websocket.Conn // nil while disconnected; guarded by mu
	url        string
	minBackoff time.Duration
	maxBackoff time.Duration
	mu         sync.Mutex
}

// New creates a Channel for url. The session token, if any, is sent as a
// bearer header on every dial.
func New(url string, session domain.SessionProvider, log domain.Logger) *Channel {
	if log == nil {
		log = domain.NopLogger{}
	}
	return &Channel{
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		session:    session,
		log:        log,
		url:        url,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
}

// WithBackoff sets the redial delays. The delay doubles after each failed
// dial up to maxDelay and resets after a successful one.
func (c *Channel) WithBackoff(minDelay, maxDelay time.Duration) *Channel {
	c.minBackoff = minDelay
	c.maxBackoff = maxDelay
	return c
}

// Run dials, dispatches inbound frames to h and redials after drops until ctx is done.
func (c *Channel) Run(ctx context.Context, h domain.PushHandler) error {
	backoff := c.minBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header())
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn(logCategory, fmt.Sprintf("dial %s: %v (retry in %s)", c.url, err, backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff

		c.setConn(conn)
		c.log.Info(logCategory, "connected to "+c.url)
		h.OnConnected(ctx)

		err = c.readLoop(ctx, conn, h)
		c.setConn(nil)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn(logCategory, fmt.Sprintf("connection lost: %v", err))
		h.OnDisconnected(err)
		if !sleep(ctx, backoff) {
			return nil
		}
	}
}

// Emit sends ev on the open connection.
func (c *Channel) Emit(_ context.Context, ev domain.PushEvent) error {
	frame, err := pushcodec.Encode(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return domain.ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("emit %s: %w", ev.Kind, err)
	}
	c.log.Debug(logCategory, "emitted "+string(ev.Kind))
	return nil
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn, h domain.PushHandler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := pushcodec.Decode(data)
		if err != nil {
			if errors.Is(err, domain.ErrUnknownPushEvent) {
				c.log.Debug(logCategory, err.Error())
			} else {
				c.log.Warn(logCategory, err.Error())
			}
			continue
		}
		h.OnEvent(ctx, ev)
	}
}

func (c *Channel) header() http.Header {
	hdr := http.Header{}
	if c.session != nil {
		if tok := c.session.Current().Token; tok != "" {
			hdr.Set("Authorization", "Bearer "+tok)
		}
	}
	return hdr
}

func (c *Channel) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Ensure Channel implements domain.PushChannel.
var _ domain.PushChannel = (*Channel)(nil)
