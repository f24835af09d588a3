package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

var ErrAlreadyOpen = errors.New("channel already open")

const (
	defaultPingPeriod     = 30 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultWriteWait      = 10 * time.Second
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
)

// Handler receives everything that happens on the channel. Calls are made
// from a single goroutine, in the order things happened.
type Handler interface {
	OnConnect()
	OnFrame(frame []byte)
	OnDisconnect(err error)
	OnDialFailure(err error)
}

type Options struct {
	URL string
	// Header is called before every dial, so credentials can be refreshed.
	Header func(ctx context.Context) (http.Header, error)
	Dialer *websocket.Dialer

	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Logger *slog.Logger
}

// WebSocket is an explicitly owned event channel. It keeps one connection
// open between Open and Close, reconnecting with backoff when it drops.
type WebSocket struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWebSocket(opts Options) *WebSocket {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = defaultPingPeriod
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocket{
		opts:   opts,
		logger: logger.With("url", opts.URL),
	}
}

// Open starts the connection loop. It returns immediately; connection
// results are reported to h.
func (w *WebSocket) Open(ctx context.Context, h Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return ErrAlreadyOpen
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, h, w.done)
	return nil
}

// Close stops the loop and waits for it to exit. Closing a channel that is
// not open is a no-op.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (w *WebSocket) run(ctx context.Context, h Handler, done chan struct{}) {
	defer close(done)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.InitialBackoff
	b.MaxInterval = w.opts.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		conn, err := w.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("event channel dial failed", "error", err)
			h.OnDialFailure(err)
		} else {
			b.Reset()
			w.logger.Info("event channel connected")
			h.OnConnect()

			err = w.serve(ctx, conn, h)
			if ctx.Err() != nil {
				w.logger.Info("event channel closed")
				return
			}
			w.logger.Warn("event channel disconnected", "error", err)
			h.OnDisconnect(err)
		}

		wait := b.NextBackOff()
		w.logger.Debug("reconnecting", "in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (w *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	var header http.Header
	if w.opts.Header != nil {
		var err error
		header, err = w.opts.Header(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build dial headers: %w", err)
		}
	}

	conn, resp, err := w.opts.Dialer.DialContext(ctx, w.opts.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial event channel (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial event channel: %w", err)
	}
	return conn, nil
}

// serve pumps one connection until it fails or ctx is cancelled.
func (w *WebSocket) serve(ctx context.Context, conn *websocket.Conn, h Handler) error {
	defer conn.Close()

	// Pings keep the read deadline moving while the backend is quiet.
	conn.SetReadDeadline(time.Now().Add(w.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(w.opts.PongWait))
		return nil
	})
	ticker := time.NewTicker(w.opts.PingPeriod)
	defer ticker.Stop()

	stop := make(chan struct{})
	defer close(stop)
	frames, errc := w.receive(conn, stop)

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(w.opts.WriteWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				w.logger.Debug("failed to write close", "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
			deadline := time.Now().Add(w.opts.WriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return fmt.Errorf("failed to write ping: %w", err)
			}
		case frame := <-frames:
			h.OnFrame(frame)
		case err := <-errc:
			return err
		}
	}
}

func (w *WebSocket) receive(conn *websocket.Conn, stop <-chan struct{}) (<-chan []byte, <-chan error) {
	frames := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		for {
			// ReadMessage is unblocked by conn.Close when serve returns.
			kind, data, err := conn.ReadMessage()
			if err != nil {
				errc <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(w.opts.PongWait))
			if kind != websocket.TextMessage {
				w.logger.Warn("dropping non-text frame", "type", kind)
				continue
			}

			select {
			case frames <- data:
			case <-stop:
				return
			}
		}
	}()

	return frames, errc
}
