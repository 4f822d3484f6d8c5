package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomz197/hardisks/internal/loop/server"
)

const (
	snapshotInterval = time.Second / 20
	pingInterval     = 54 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  4096,
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 45 * time.Second,
}

// Message is the envelope of every websocket message.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// snapshotPayload is a compact snapshot. Particles are [x, y, r] triples.
type snapshotPayload struct {
	Time           float64      `json:"time"`
	Events         int64        `json:"events"`
	Speed          float64      `json:"speed"`
	Paused         bool         `json:"paused"`
	Done           bool         `json:"done"`
	Viewers        int          `json:"viewers"`
	Radius         float64      `json:"radius"`
	ObstacleRadius float64      `json:"obstacleRadius"`
	KineticEnergy  float64      `json:"kineticEnergy"`
	Last           string       `json:"last,omitempty"`
	Particles      [][3]float64 `json:"particles"`
}

func newSnapshotPayload(snap *server.Snapshot) snapshotPayload {
	p := snapshotPayload{
		Time:           snap.Time,
		Events:         snap.Events,
		Speed:          snap.Speed,
		Paused:         snap.Paused,
		Done:           snap.Done,
		Viewers:        snap.Clients,
		Radius:         snap.Radius,
		ObstacleRadius: snap.ObstacleRadius,
		KineticEnergy:  snap.KineticEnergy(),
		Particles:      make([][3]float64, len(snap.Particles)),
	}
	if snap.HasLast {
		p.Last = snap.LastEvent.String()
	}
	for i, pt := range snap.Particles {
		p.Particles[i] = [3]float64{pt.Position.X, pt.Position.Y, pt.Radius}
	}
	return p
}

// parseCommand maps a "command" payload to a playback command.
func parseCommand(payload any) (server.Command, bool) {
	name, _ := payload.(string)
	switch name {
	case "pause":
		return server.CommandPause, true
	case "faster":
		return server.CommandFaster, true
	case "slower":
		return server.CommandSlower, true
	case "restart":
		return server.CommandRestart, true
	default:
		return 0, false
	}
}

// viewer is one websocket connection watching the shared simulation.
type viewer struct {
	id     string
	site   *site
	conn   *websocket.Conn
	handle *server.ClientHandle
	done   chan struct{}
}

func (s *site) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	id := uuid.NewString()
	v := &viewer{
		id:     id,
		site:   s,
		conn:   conn,
		handle: s.sim.RegisterClient("web-" + id[:8]),
		done:   make(chan struct{}),
	}
	s.logger.Info("web viewer connected", "id", v.id, "remote", r.RemoteAddr)

	go v.writePump()
	v.readPump()
}

// readPump applies the viewer's commands until the connection closes.
func (v *viewer) readPump() {
	defer func() {
		close(v.done)
		v.site.sim.UnregisterClient(v.handle.ID)
		v.conn.Close()
		v.site.logger.Info("web viewer left", "id", v.id)
	}()

	v.conn.SetReadDeadline(time.Now().Add(readTimeout))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg Message
		if err := v.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				v.site.logger.Warn("unexpected close", "id", v.id, "err", err)
			}
			return
		}
		if msg.Type != "command" {
			v.site.logger.Debug("unknown message type", "id", v.id, "type", msg.Type)
			continue
		}
		if cmd, ok := parseCommand(msg.Payload); ok {
			v.site.sim.SendCommand(cmd)
		}
	}
}

// writePump streams snapshots and server events to the connection.
func (v *viewer) writePump() {
	snapshots := time.NewTicker(snapshotInterval)
	ping := time.NewTicker(pingInterval)
	defer func() {
		snapshots.Stop()
		ping.Stop()
		v.conn.Close()
	}()

	if err := v.send(Message{Type: "snapshot", Payload: newSnapshotPayload(v.site.sim.GetSnapshot())}); err != nil {
		return
	}

	for {
		select {
		case <-snapshots.C:
			if err := v.send(Message{Type: "snapshot", Payload: newSnapshotPayload(v.site.sim.GetSnapshot())}); err != nil {
				return
			}

		case ev, ok := <-v.handle.EventsCh:
			if !ok {
				v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.send(eventMessage(ev)); err != nil {
				return
			}

		case <-ping.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-v.done:
			return
		}
	}
}

func (v *viewer) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		v.site.logger.Error("marshalling message", "id", v.id, "err", err)
		return err
	}
	v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return v.conn.WriteMessage(websocket.TextMessage, data)
}

func eventMessage(ev server.ClientEvent) Message {
	switch ev.Type {
	case server.EventServerShutdown:
		return Message{Type: "shutdown"}
	default:
		msg := Message{Type: "ended"}
		if ev.Err != nil {
			msg.Payload = ev.Err.Error()
		}
		return msg
	}
}
