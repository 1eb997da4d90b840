// Copyright 2024-2026 Aiku AI

// Package slackrtm is the Slack real-time messaging transport.
//
// A [Transport] is one session: rtm.connect, a directory sync over the web
// API, then a websocket read loop that hands hello and message events to a
// [supervisor.Handler] and applies directory updates to its own store.
// Failures leave Run as [connerr.Error] values so the supervisor can pick a
// retry policy without looking at message text.
package slackrtm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aiku/slacktail/pkg/connerr"
	"github.com/aiku/slacktail/pkg/directory"
	"github.com/aiku/slacktail/pkg/supervisor"
)

const (
	DefaultPingInterval = 30 * time.Second
	DefaultReadTimeout  = 90 * time.Second

	writeTimeout = 10 * time.Second
)

type Options struct {
	APIURL string
	Token  string
	// PingInterval is the heartbeat period; ReadTimeout ends a session that
	// has been silent for that long. Both default when zero.
	PingInterval time.Duration
	ReadTimeout  time.Duration

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Log        zerolog.Logger
}

// Transport is a single RTM session. It is not reusable: build a new one
// for every connection attempt.
type Transport struct {
	api          *APIClient
	dialer       *websocket.Dialer
	pingInterval time.Duration
	readTimeout  time.Duration
	store        *directory.Store
	log          zerolog.Logger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	conn    *websocket.Conn

	writeMu sync.Mutex
}

var _ supervisor.Transport = (*Transport)(nil)

func New(opts Options) *Transport {
	t := &Transport{
		api:          NewAPIClient(opts.APIURL, opts.Token, opts.HTTPClient),
		dialer:       opts.Dialer,
		pingInterval: opts.PingInterval,
		readTimeout:  opts.ReadTimeout,
		store:        directory.NewStore(),
		log:          opts.Log.With().Str("component", "slack_rtm").Logger(),
	}
	if t.dialer == nil {
		t.dialer = websocket.DefaultDialer
	}
	if t.pingInterval <= 0 {
		t.pingInterval = DefaultPingInterval
	}
	if t.readTimeout <= 0 {
		t.readTimeout = DefaultReadTimeout
	}
	return t
}

// Directory is the session's directory, filled during Run.
func (t *Transport) Directory() directory.Directory {
	return t.store
}

// Run opens the session and serves it until the server closes it, an error
// occurs, ctx is cancelled or Stop is called. A stop or a normal close from
// the server returns nil.
func (t *Transport) Run(ctx context.Context, h supervisor.Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.cancel = cancel
	t.mu.Unlock()

	stopWatch := context.AfterFunc(ctx, t.Stop)
	defer stopWatch()

	err := t.serve(ctx, h)
	if t.isStopped() {
		return nil
	}
	return err
}

func (t *Transport) serve(ctx context.Context, h supervisor.Handler) error {
	info, err := t.api.Connect(ctx)
	if err != nil {
		return err
	}
	t.log.Info().
		Str("user_id", info.Self.ID).
		Str("username", info.Self.Name).
		Str("team", info.Team.Domain).
		Msg("Authenticated")

	if err := t.api.SyncDirectory(ctx, t.store, t.log); err != nil {
		return err
	}

	conn, err := t.dial(ctx, info.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go t.pingLoop(conn, done)

	return t.readLoop(conn, h)
}

func (t *Transport) dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	conn, resp, err := t.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			return nil, fmt.Errorf("failed to dial websocket: %w",
				connerr.New(connerr.KindTransient, "", fmt.Errorf("bad handshake (HTTP %d)", status)))
		}
		return nil, fmt.Errorf("failed to dial websocket: %w", classifyNetError(err))
	}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		conn.Close()
		return nil, errors.New("stopped while dialing")
	}
	t.conn = conn
	t.mu.Unlock()

	t.log.Debug().Str("ws_url", wsURL).Msg("WebSocket connected")
	return conn, nil
}

func (t *Transport) readLoop(conn *websocket.Conn, h supervisor.Handler) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
			return classifyReadError(err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return classifyReadError(err)
		}
		if err := t.handleFrame(data, h); err != nil {
			return err
		}
	}
}

// classifyReadError turns a websocket read failure into a session result:
// nil for a normal close, transient for everything else.
func classifyReadError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return connerr.New(connerr.KindTransient, "", fmt.Errorf("read timeout: %w", err))
	}
	return connerr.New(connerr.KindTransient, "", fmt.Errorf("websocket read: %w", err))
}

type ping struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

func (t *Transport) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()
	var id int64
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			id++
			if err := t.writeJSON(conn, ping{ID: id, Type: "ping"}); err != nil {
				t.log.Debug().Err(err).Msg("Failed to send ping")
				return
			}
		}
	}
}

func (t *Transport) writeJSON(conn *websocket.Conn, v any) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// Stop closes the session. It is idempotent and safe to call from any
// goroutine, before or during Run.
func (t *Transport) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	cancel, conn := t.cancel, t.conn
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

func (t *Transport) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
