// Copyright 2024-2026 Aiku AI

package slackrtm

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aiku/slacktail/pkg/model"
)

const testToken = "xoxb-test"

// endpointCall records which API methods were hit during a test.
type endpointCall struct {
	Method string
	Cursor string
}

// fakeSlack wraps an httptest.Server simulating the Slack web API and the
// RTM websocket. It records calls and serves canned responses.
type fakeSlack struct {
	Server *httptest.Server

	mu    sync.Mutex
	calls []endpointCall

	// UserPages and ConversationPages are JSON arrays served one page per
	// request, linked by next_cursor.
	UserPages         []string
	ConversationPages []string
	// Errors maps an API method to an ok:false error code.
	Errors map[string]string
	// Status maps an API method to a non-200 HTTP status.
	Status map[string]int

	// Frames are written to the websocket after the upgrade.
	Frames []string
	// CloseCode, when set, ends the socket with a close frame. Otherwise
	// the socket is dropped without one, unless HoldOpen is set.
	CloseCode int
	// HoldOpen keeps the socket open until the client goes away.
	HoldOpen bool

	upgrader websocket.Upgrader
}

func newFakeSlack() *fakeSlack {
	f := &fakeSlack{
		UserPages:         []string{`[]`},
		ConversationPages: []string{`[]`},
		Errors:            make(map[string]string),
		Status:            make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handler))
	return f
}

func (f *fakeSlack) Close() {
	f.Server.Close()
}

func (f *fakeSlack) Calls() []endpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]endpointCall, len(f.calls))
	copy(cp, f.calls)
	return cp
}

func (f *fakeSlack) APIURL() string {
	return f.Server.URL + "/api/"
}

func (f *fakeSlack) wsURL() string {
	return "ws" + strings.TrimPrefix(f.Server.URL, "http") + "/ws"
}

func (f *fakeSlack) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/ws" {
		f.serveSocket(w, r)
		return
	}
	method := strings.TrimPrefix(r.URL.Path, "/api/")
	_ = r.ParseForm()
	f.mu.Lock()
	f.calls = append(f.calls, endpointCall{Method: method, Cursor: r.PostForm.Get("cursor")})
	f.mu.Unlock()

	if status := f.Status[method]; status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("Authorization") != "Bearer "+testToken {
		fmt.Fprint(w, `{"ok":false,"error":"invalid_auth"}`)
		return
	}
	if code := f.Errors[method]; code != "" {
		fmt.Fprintf(w, `{"ok":false,"error":%q}`, code)
		return
	}

	switch method {
	case "rtm.connect":
		fmt.Fprintf(w, `{"ok":true,"url":%q,"self":{"id":"U0","name":"me"},"team":{"id":"T1","domain":"acme"}}`, f.wsURL())
	case "users.list":
		f.servePage(w, r, "members", f.UserPages)
	case "conversations.list":
		f.servePage(w, r, "channels", f.ConversationPages)
	default:
		fmt.Fprint(w, `{"ok":false,"error":"unknown_method"}`)
	}
}

func (f *fakeSlack) servePage(w http.ResponseWriter, r *http.Request, key string, pages []string) {
	page := 0
	if cursor := r.PostForm.Get("cursor"); cursor != "" {
		page, _ = strconv.Atoi(strings.TrimPrefix(cursor, "page"))
	}
	next := ""
	if page+1 < len(pages) {
		next = fmt.Sprintf("page%d", page+1)
	}
	fmt.Fprintf(w, `{"ok":true,%q:%s,"response_metadata":{"next_cursor":%q}}`, key, pages[page], next)
}

func (f *fakeSlack) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for _, frame := range f.Frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
	}
	switch {
	case f.CloseCode != 0:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(f.CloseCode, "bye"), time.Now().Add(time.Second))
		// Wait for the client's close reply or disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	case f.HoldOpen:
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (f *fakeSlack) transport() *Transport {
	return New(Options{
		APIURL:       f.APIURL(),
		Token:        testToken,
		PingInterval: time.Hour,
		Log:          zerolog.Nop(),
	})
}

// recordingHandler captures hello and message events.
type recordingHandler struct {
	mu      sync.Mutex
	hellos  int
	events  []model.Event
	onHello func()
}

func (h *recordingHandler) OnHello() {
	h.mu.Lock()
	h.hellos++
	fn := h.onHello
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (h *recordingHandler) OnMessage(evt model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
}
