package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/config"
	"github.com/huroofgame/letters-arena-backend/internal/hub"
	"github.com/huroofgame/letters-arena-backend/internal/registry"
	"github.com/huroofgame/letters-arena-backend/internal/session"
	"github.com/huroofgame/letters-arena-backend/internal/types"
)

// newTestClient builds a client wired to a real hub and registry but no
// socket; dispatch paths that only shape acks are exercisable directly.
func newTestClient(t *testing.T) (*client, chan struct{}) {
	t.Helper()
	cfg := &config.Config{
		GridRows:      5,
		GridCols:      5,
		Letters:       []string{"ا", "ب", "ت"},
		MaxPlayers:    4,
		AnswerTimeSec: 30,
		PenaltySec:    10,
		Team1Color:    "#FF5555",
		Team2Color:    "#5555FF",
	}
	dropped := make(chan struct{}, 1)
	c := &client{
		h:        hub.NewHub(context.Background(), nil, nil),
		reg:      registry.New(),
		cfg:      cfg,
		log:      zap.NewNop(),
		connID:   "conn-1",
		dropConn: func() { dropped <- struct{}{} },
	}
	c.participant = c.reg.Register(c.connID, "p1", "Nadia")
	return c, dropped
}

// a rejected op must ack with an explicit success: false, not omit the field
func TestFailureAckKeepsSuccessFalse(t *testing.T) {
	raw, err := json.Marshal(fail("join", session.ErrSessionFull))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var ack map[string]any
	if err := json.Unmarshal(raw, &ack); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	v, present := ack["success"]
	if !present {
		t.Fatalf("failure ack %s has no success field", raw)
	}
	if v != false {
		t.Fatalf("want success false, got %v in %s", v, raw)
	}
	if ack["errorKind"] != session.KindConflict {
		t.Fatalf("want errorKind %q, got %v", session.KindConflict, ack["errorKind"])
	}
}

// the session closing an outbox it decided to drop must cost the consumer its
// connection, so the disconnect path turns it into a leave
func TestOutboxClosedBySessionDropsConnection(t *testing.T) {
	c, dropped := newTestClient(t)

	m := &membership{out: make(chan session.Event)}
	go c.writeEvents(m)
	close(m.out)

	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatalf("connection survived losing its event stream")
	}
}

func TestOutboxClosedAfterOwnLeaveKeepsConnection(t *testing.T) {
	c, dropped := newTestClient(t)

	m := &membership{out: make(chan session.Event)}
	m.left.Store(true)
	go c.writeEvents(m)
	close(m.out)

	select {
	case <-dropped:
		t.Fatalf("voluntary leave cost the connection")
	case <-time.After(100 * time.Millisecond):
	}
}

// leaving a room over the wire path must not trip the lapse teardown either,
// even though the session closes the outbox before the leave ack arrives
func TestLeaveAfterCreateKeepsConnection(t *testing.T) {
	c, dropped := newTestClient(t)

	ack := c.create(context.Background(), types.ClientMessage{Op: "create", Visibility: "open"})
	if !ack.Success {
		t.Fatalf("create failed: %+v", ack)
	}

	ack = c.leave(context.Background(), types.ClientMessage{Op: "leave"})
	if !ack.Success {
		t.Fatalf("leave failed: %+v", ack)
	}
	if c.cur != nil || c.mem != nil {
		t.Fatalf("leave left membership state behind")
	}

	select {
	case <-dropped:
		t.Fatalf("leave tore down the connection")
	case <-time.After(200 * time.Millisecond):
	}
}

// the create ack is shaped from the hub's reply; the session exists with the
// leader inside, so the ack must say so without a second session round trip
func TestCreateAckCarriesRoom(t *testing.T) {
	c, _ := newTestClient(t)

	ack := c.create(context.Background(), types.ClientMessage{Op: "create", Visibility: "open", RoomName: "majlis"})
	if !ack.Success {
		t.Fatalf("create failed: %+v", ack)
	}
	if ack.Room == nil {
		t.Fatalf("create ack carries no room")
	}
	if ack.Room.LeaderID != "p1" {
		t.Fatalf("want leader p1, got %q", ack.Room.LeaderID)
	}
	if len(ack.Room.Roster) != 1 || ack.Room.Roster[0].ID != "p1" {
		t.Fatalf("want the leader alone on the roster, got %+v", ack.Room.Roster)
	}
	if ack.Room.Name != "majlis" {
		t.Fatalf("want room name majlis, got %q", ack.Room.Name)
	}
}
