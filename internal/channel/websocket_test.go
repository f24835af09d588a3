package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu           sync.Mutex
	log          []string
	frames       []string
	dialFailures int
}

func (r *recorder) OnConnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "connect")
}

func (r *recorder) OnFrame(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "frame")
	r.frames = append(r.frames, string(frame))
}

func (r *recorder) OnDisconnect(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "disconnect")
}

func (r *recorder) OnDialFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialFailures++
}

func (r *recorder) snapshot() ([]string, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...), append([]string(nil), r.frames...), r.dialFailures
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newFrameServer upgrades every request, writes the frames and then either
// holds the connection open or closes it
func newFrameServer(t *testing.T, frames []string, hold bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		if !hold {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_DeliversFramesInOrder(t *testing.T) {
	srv := newFrameServer(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, true)
	ws := NewWebSocket(Options{URL: wsURL(srv)})
	rec := &recorder{}

	require.NoError(t, ws.Open(context.Background(), rec))
	defer ws.Close()

	require.Eventually(t, func() bool {
		_, frames, _ := rec.snapshot()
		return len(frames) == 3
	}, 2*time.Second, 10*time.Millisecond)

	log, frames, _ := rec.snapshot()
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, frames)
	assert.Equal(t, []string{"connect", "frame", "frame", "frame"}, log)
}

func TestWebSocket_ReconnectsAfterDrop(t *testing.T) {
	srv := newFrameServer(t, []string{`{"n":1}`}, false)
	ws := NewWebSocket(Options{URL: wsURL(srv), InitialBackoff: 5 * time.Millisecond, MaxBackoff: 20 * time.Millisecond})
	rec := &recorder{}

	require.NoError(t, ws.Open(context.Background(), rec))
	defer ws.Close()

	require.Eventually(t, func() bool {
		log, _, _ := rec.snapshot()
		connects := 0
		for _, l := range log {
			if l == "connect" {
				connects++
			}
		}
		return connects >= 2
	}, 2*time.Second, 10*time.Millisecond)

	log, _, _ := rec.snapshot()
	assert.Equal(t, []string{"connect", "frame", "disconnect", "connect"}, log[:4])
}

func TestWebSocket_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	ws := NewWebSocket(Options{URL: url, InitialBackoff: 5 * time.Millisecond, MaxBackoff: 10 * time.Millisecond})
	rec := &recorder{}
	require.NoError(t, ws.Open(context.Background(), rec))

	require.Eventually(t, func() bool {
		_, _, failures := rec.snapshot()
		return failures >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, ws.Close())

	log, _, _ := rec.snapshot()
	assert.Empty(t, log)
}

func TestWebSocket_SendsHeaders(t *testing.T) {
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case got <- r.Header.Get("Authorization"):
		default:
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer srv.Close()

	ws := NewWebSocket(Options{
		URL: wsURL(srv),
		Header: func(ctx context.Context) (http.Header, error) {
			return http.Header{"Authorization": []string{"Bearer abc"}}, nil
		},
	})
	require.NoError(t, ws.Open(context.Background(), &recorder{}))
	defer ws.Close()

	select {
	case auth := <-got:
		assert.Equal(t, "Bearer abc", auth)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw a request")
	}
}

func TestWebSocket_OpenTwiceAndCloseIdempotent(t *testing.T) {
	srv := newFrameServer(t, nil, true)
	ws := NewWebSocket(Options{URL: wsURL(srv)})
	rec := &recorder{}

	require.NoError(t, ws.Open(context.Background(), rec))
	assert.ErrorIs(t, ws.Open(context.Background(), rec), ErrAlreadyOpen)

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())

	// A closed handle can be opened again
	require.NoError(t, ws.Open(context.Background(), rec))
	require.NoError(t, ws.Close())
}

func TestWebSocket_CloseDoesNotReportDisconnect(t *testing.T) {
	srv := newFrameServer(t, nil, true)
	ws := NewWebSocket(Options{URL: wsURL(srv)})
	rec := &recorder{}
	require.NoError(t, ws.Open(context.Background(), rec))

	require.Eventually(t, func() bool {
		log, _, _ := rec.snapshot()
		return len(log) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, ws.Close())

	log, _, _ := rec.snapshot()
	assert.Equal(t, []string{"connect"}, log)
}
