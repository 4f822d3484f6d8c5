package main

import (
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/hardisks/internal/board"
	"github.com/tomz197/hardisks/internal/loop/server"
	"github.com/tomz197/hardisks/internal/particle"
	"github.com/tomz197/hardisks/internal/physics"
)

type fakeSim struct {
	mu           sync.Mutex
	handle       *server.ClientHandle
	commands     []server.Command
	unregistered bool
	snapshot     *server.Snapshot
}

func newFakeSim() *fakeSim {
	return &fakeSim{
		handle: &server.ClientHandle{ID: 1, EventsCh: make(chan server.ClientEvent, 4)},
		snapshot: &server.Snapshot{
			Time:           2.5,
			Events:         3,
			Radius:         50,
			ObstacleRadius: 5,
			Speed:          2,
			Clients:        1,
			HasLast:        true,
			LastEvent:      board.Event{Kind: board.KindPair, A: 1, B: 2},
			Particles: []particle.Particle{
				particle.New(1, physics.Vec(10, 0), physics.Vec(1, 0), 1, 2),
				particle.New(2, physics.Vec(-10, 0), physics.Vec(0, 1), 1, 2),
			},
		},
	}
}

func (f *fakeSim) RegisterClient(username string) *server.ClientHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handle.Username = username
	return f.handle
}

func (f *fakeSim) UnregisterClient(clientID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregistered = clientID == f.handle.ID
}

func (f *fakeSim) SendCommand(cmd server.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
}

func (f *fakeSim) GetSnapshot() *server.Snapshot {
	return f.snapshot
}

func (f *fakeSim) state() ([]server.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]server.Command(nil), f.commands...), f.unregistered
}

func newTestSite(sim server.SimServer) *httptest.Server {
	return httptest.NewServer(newSite(sim, "example.org", log.New(io.Discard)).routes())
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIndexPage(t *testing.T) {
	ts := newTestSite(newFakeSim())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "ssh -t example.org") {
		t.Errorf("expected the landing page with the ssh host, got %d", res.StatusCode)
	}

	missing, err := http.Get(ts.URL + "/nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", missing.StatusCode)
	}
}

func TestFramePNG(t *testing.T) {
	ts := newTestSite(newFakeSim())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/frame.png?size=64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	cfg, err := png.DecodeConfig(res.Body)
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 64 {
		t.Errorf("expected 64x64, got %dx%d", cfg.Width, cfg.Height)
	}

	for _, size := range []string{"5", "abc", "99999"} {
		bad, err := http.Get(ts.URL + "/frame.png?size=" + size)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		bad.Body.Close()
		if bad.StatusCode != http.StatusBadRequest {
			t.Errorf("size %s: expected 400, got %d", size, bad.StatusCode)
		}
	}
}

func TestWebsocketStream(t *testing.T) {
	sim := newFakeSim()
	ts := newTestSite(sim)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var msg struct {
		Type    string          `json:"type"`
		Payload snapshotPayload `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Type != "snapshot" || msg.Payload.Events != 3 || msg.Payload.Last != "1 2" || len(msg.Payload.Particles) != 2 {
		t.Errorf("unexpected first message %+v", msg)
	}
	if msg.Payload.Particles[1] != [3]float64{-10, 0, 2} {
		t.Errorf("expected particle 2 at (-10, 0) with radius 2, got %v", msg.Payload.Particles[1])
	}

	if err := conn.WriteJSON(Message{Type: "command", Payload: "faster"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := conn.WriteJSON(Message{Type: "command", Payload: "sideways"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eventually(t, func() bool {
		cmds, _ := sim.state()
		return len(cmds) == 1 && cmds[0] == server.CommandFaster
	})

	conn.Close()
	eventually(t, func() bool {
		_, unregistered := sim.state()
		return unregistered
	})
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload any
		want    server.Command
		ok      bool
	}{
		{"pause", server.CommandPause, true},
		{"faster", server.CommandFaster, true},
		{"slower", server.CommandSlower, true},
		{"restart", server.CommandRestart, true},
		{"jump", 0, false},
		{42.0, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.payload)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%v: expected %v %v, got %v %v", tt.payload, tt.want, tt.ok, got, ok)
		}
	}
}

func TestEventMessage(t *testing.T) {
	if msg := eventMessage(server.ClientEvent{Type: server.EventServerShutdown}); msg.Type != "shutdown" {
		t.Errorf("expected shutdown, got %q", msg.Type)
	}
	msg := eventMessage(server.ClientEvent{Type: server.EventSimulationEnded, Err: errors.New("no future collision")})
	if msg.Type != "ended" || msg.Payload != "no future collision" {
		t.Errorf("unexpected message %+v", msg)
	}
}
