package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huroofgame/letters-arena-backend/internal/grid"
	"github.com/huroofgame/letters-arena-backend/internal/session"
)

func testConfig() session.Config {
	return session.Config{
		Name:       "majlis",
		Visibility: session.VisibilityOpen,
		MaxPlayers: 4,
		Colors:     map[grid.Team]string{grid.Team1: "#FF5555", grid.Team2: "#5555FF"},
		GridRows:   5,
		GridCols:   5,
		Letters:    []string{"ا", "ب"},
	}
}

func create(t *testing.T, h *Hub) *session.Session {
	t.Helper()
	reply := make(chan CreateReply, 1)
	h.Inbox() <- CreateSession{
		Cfg:        testConfig(),
		LeaderID:   "leader",
		LeaderName: "Leila",
		Outbox:     make(chan session.Event, 16),
		Reply:      reply,
	}
	select {
	case r := <-reply:
		if r.Err != nil {
			t.Fatalf("create: %v", r.Err)
		}
		return r.Sess
	case <-time.After(time.Second):
		t.Fatalf("timed out creating session")
		return nil // unreachable
	}
}

func get(t *testing.T, h *Hub, id string) *session.Session {
	t.Helper()
	reply := make(chan *session.Session, 1)
	h.Inbox() <- GetSession{ID: id, Reply: reply}
	select {
	case s := <-reply:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out getting session")
		return nil // unreachable
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)

	s1 := create(t, h)
	if s1.ID() == "" {
		t.Fatalf("session got no id")
	}

	s2 := get(t, h, s1.ID())
	if s2 != s1 {
		t.Fatalf("expected same session pointer")
	}
}

func TestHub_CreateReplyIncludesSnapshot(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)

	reply := make(chan CreateReply, 1)
	h.Inbox() <- CreateSession{
		Cfg:        testConfig(),
		LeaderID:   "leader",
		LeaderName: "Leila",
		Outbox:     make(chan session.Event, 16),
		Reply:      reply,
	}
	r := <-reply
	if r.Err != nil {
		t.Fatalf("create: %v", r.Err)
	}
	if r.Room == nil {
		t.Fatalf("create reply carries no snapshot")
	}
	if r.Room.ID != r.Sess.ID() {
		t.Fatalf("snapshot id %q != session id %q", r.Room.ID, r.Sess.ID())
	}
	if r.Room.LeaderID != "leader" {
		t.Fatalf("want leader on the snapshot, got %q", r.Room.LeaderID)
	}
}

func TestHub_UnknownIDIsNil(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)
	if s := get(t, h, "NOPE42"); s != nil {
		t.Fatalf("want nil for unknown id, got %v", s)
	}
}

func TestHub_InviteCodeGetsJoinCode(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)

	reply := make(chan CreateReply, 1)
	cfg := testConfig()
	cfg.Visibility = session.VisibilityInviteCode
	h.Inbox() <- CreateSession{
		Cfg:        cfg,
		LeaderID:   "leader",
		Outbox:     make(chan session.Event, 16),
		Reply:      reply,
	}
	r := <-reply
	if r.Err != nil {
		t.Fatalf("create: %v", r.Err)
	}

	snap, err := r.Sess.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.JoinCode) != 6 {
		t.Fatalf("want generated 6-char join code, got %q", snap.JoinCode)
	}
}

// last participant leaving removes the session from the hub (scenario: a
// rejoin attempt on the old id must say not-found)
func TestHub_EmptySessionIsRemoved(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)
	s := create(t, h)
	id := s.ID()

	reply := make(chan session.Response, 1)
	s.Inbox() <- session.Leave{ParticipantID: "leader", Reply: reply}
	if r := <-reply; r.Err != nil {
		t.Fatalf("leave: %v", r.Err)
	}

	// removal flows through the hub inbox; poll briefly
	deadline := time.Now().Add(time.Second)
	for get(t, h, id) != nil {
		if time.Now().After(deadline) {
			t.Fatalf("session %s still registered after emptying", id)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := s.Snapshot(context.Background()); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestHub_List(t *testing.T) {
	h := NewHub(context.Background(), nil, nil)
	create(t, h)
	create(t, h)

	reply := make(chan []*session.Session, 1)
	h.Inbox() <- ListSessions{Reply: reply}
	list := <-reply
	if len(list) != 2 {
		t.Fatalf("want 2 sessions, got %d", len(list))
	}
}
