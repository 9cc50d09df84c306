// Package ws is the request dispatcher: one reader loop per connection turns
// client messages into hub/session operations and writes the ack; one writer
// goroutine per joined room drains the broadcast outbox. Acks and broadcasts
// are deliberately separate channels.
package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/config"
	"github.com/huroofgame/letters-arena-backend/internal/grid"
	"github.com/huroofgame/letters-arena-backend/internal/hub"
	"github.com/huroofgame/letters-arena-backend/internal/metrics"
	"github.com/huroofgame/letters-arena-backend/internal/registry"
	"github.com/huroofgame/letters-arena-backend/internal/session"
	"github.com/huroofgame/letters-arena-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 10 * time.Minute
)

type client struct {
	h        *hub.Hub
	reg      *registry.Registry
	verifier registry.Verifier
	cfg      *config.Config
	log      *zap.Logger

	conn   *websocket.Conn
	connID string
	// dropConn tears the socket down when the session stops serving this
	// connection's outbox; the deferred disconnect then turns that into a leave
	dropConn func()

	participant *registry.Participant
	cur         *session.Session
	mem         *membership
}

// membership ties one joined room's outbox to the writer goroutine draining
// it. The reader loop sets left before any action of its own that will close
// the outbox, so the writer can tell a voluntary departure from the session
// dropping a consumer that fell behind.
type membership struct {
	out  chan session.Event
	left atomic.Bool
}

func Handler(h *hub.Hub, reg *registry.Registry, verifier registry.Verifier, cfg *config.Config, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		metrics.ConnectionsOpen.Inc()
		defer metrics.ConnectionsOpen.Dec()

		c := &client{
			h:        h,
			reg:      reg,
			verifier: verifier,
			cfg:      cfg,
			log:      log,
			conn:     conn,
			connID:   randID(8),
		}
		c.dropConn = func() {
			conn.Close(websocket.StatusPolicyViolation, "event stream lapsed")
		}
		defer c.disconnect()

		c.readLoop(r.Context())
	}
}

// disconnect synthesizes a leave for whatever session the connection was in;
// nothing applied before the drop is rolled back.
func (c *client) disconnect() {
	if c.mem != nil {
		c.mem.left.Store(true)
	}
	if c.cur != nil && c.participant != nil {
		select {
		case c.cur.Inbox() <- session.Leave{ParticipantID: c.participant.ID}:
		case <-c.cur.Done():
		case <-time.After(writeTimeout):
		}
		c.log.Info("disconnect treated as leave",
			zap.String("participant", c.participant.ID),
			zap.String("session", c.cur.ID()))
	}
	c.reg.Forget(c.connID)
}

func (c *client) readLoop(ctx context.Context) {
	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var m types.ClientMessage
		if err := json.Unmarshal(data, &m); err != nil {
			c.writeAck(ctx, types.ServerMessage{
				Type: "ack", ErrorKind: session.KindInvalidInput, Error: "bad json",
			})
			continue
		}

		ack := c.dispatch(ctx, m)
		result := "ok"
		if !ack.Success {
			result = "error"
		}
		metrics.OpsProcessed.WithLabelValues(m.Op, result).Inc()
		c.writeAck(ctx, ack)
	}
}

func (c *client) dispatch(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	if m.Op == "register" {
		return c.register(ctx, m)
	}
	if c.participant == nil {
		return fail(m.Op, registry.ErrNotRegistered)
	}

	switch m.Op {
	case "list-rooms":
		return c.listRooms(ctx, m)
	case "create":
		return c.create(ctx, m)
	case "join":
		return c.join(ctx, m)
	case "leave":
		return c.leave(ctx, m)
	case "assign-team":
		return c.assignTeam(ctx, m)
	case "randomize-teams":
		return c.inSession(ctx, m, func(reply chan session.Response) session.Msg {
			return session.RandomizeTeams{RequesterID: c.participant.ID, Reply: reply}
		})
	case "start":
		return c.inSession(ctx, m, func(reply chan session.Response) session.Msg {
			return session.Start{RequesterID: c.participant.ID, Reply: reply}
		})
	case "shuffle-letters":
		return c.inSession(ctx, m, func(reply chan session.Response) session.Msg {
			return session.ShuffleLetters{RequesterID: c.participant.ID, Reply: reply}
		})
	case "set-colors":
		colors := make(map[grid.Team]string, len(m.Colors))
		for team, color := range m.Colors {
			colors[grid.Team(team)] = color
		}
		return c.inSession(ctx, m, func(reply chan session.Response) session.Msg {
			return session.SetColors{RequesterID: c.participant.ID, Colors: colors, Reply: reply}
		})
	case "claim-cell":
		return c.inSession(ctx, m, func(reply chan session.Response) session.Msg {
			return session.Claim{ParticipantID: c.participant.ID, CellID: m.CellID, Reply: reply}
		})
	default:
		return types.ServerMessage{
			Type: "ack", Op: m.Op, ErrorKind: session.KindInvalidInput, Error: "unknown op",
		}
	}
}

func (c *client) register(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	id, name, err := c.verifier.Verify(ctx, m.Credential, m.Name)
	if err != nil {
		return types.ServerMessage{
			Type: "ack", Op: m.Op, ErrorKind: session.KindUpstream, Error: "identity check failed",
		}
	}
	c.participant = c.reg.Register(c.connID, id, name)
	c.log.Info("participant registered", zap.String("participant", id), zap.String("name", name))
	return types.ServerMessage{Type: "ack", Op: m.Op, Success: true, Player: c.participant}
}

func (c *client) listRooms(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	reply := make(chan []*session.Session, 1)
	c.h.Inbox() <- hub.ListSessions{Reply: reply}
	sessions := <-reply

	summaries := make([]types.RoomSummary, 0, len(sessions))
	for _, s := range sessions {
		snapCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		snap, err := s.Snapshot(snapCtx)
		cancel()
		if err != nil || snap.Visibility != session.VisibilityOpen {
			continue
		}
		summaries = append(summaries, types.RoomSummary{
			ID:         snap.ID,
			Name:       snap.Name,
			LeaderID:   snap.LeaderID,
			Players:    len(snap.Roster),
			MaxPlayers: snap.MaxPlayers,
			Status:     snap.Game.Status,
			CreatedAt:  snap.CreatedAt,
		})
	}
	return types.ServerMessage{Type: "ack", Op: m.Op, Success: true, Rooms: summaries}
}

func (c *client) create(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	if c.cur != nil {
		return fail(m.Op, session.ErrAlreadyJoined)
	}
	vis, ok := session.ParseVisibility(m.Visibility)
	if !ok {
		return types.ServerMessage{
			Type: "ack", Op: m.Op, ErrorKind: session.KindInvalidInput, Error: "unknown visibility",
		}
	}

	cfg := session.Config{
		Name:          m.RoomName,
		Visibility:    vis,
		JoinCode:      m.JoinCode,
		MaxPlayers:    m.MaxPlayers,
		AnswerTimeSec: m.AnswerTimeSec,
		PenaltySec:    m.PenaltySec,
		Colors: map[grid.Team]string{
			grid.Team1: c.cfg.Team1Color,
			grid.Team2: c.cfg.Team2Color,
		},
		GridRows: c.cfg.GridRows,
		GridCols: c.cfg.GridCols,
		Letters:  c.cfg.Letters,
	}
	if cfg.Name == "" {
		cfg.Name = c.participant.Name
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = c.cfg.MaxPlayers
	}
	if cfg.AnswerTimeSec <= 0 {
		cfg.AnswerTimeSec = c.cfg.AnswerTimeSec
	}
	if cfg.PenaltySec <= 0 {
		cfg.PenaltySec = c.cfg.PenaltySec
	}
	for team, color := range m.Colors {
		if t, ok := grid.ParseTeam(team); ok {
			cfg.Colors[t] = color
		}
	}

	mem := &membership{out: make(chan session.Event, 16)}
	go c.writeEvents(mem)

	reply := make(chan hub.CreateReply, 1)
	c.h.Inbox() <- hub.CreateSession{
		Cfg:        cfg,
		LeaderID:   c.participant.ID,
		LeaderName: c.participant.Name,
		Outbox:     mem.out,
		Reply:      reply,
	}
	r := <-reply
	if r.Err != nil {
		mem.left.Store(true)
		close(mem.out)
		return fail(m.Op, r.Err)
	}

	c.cur = r.Sess
	c.mem = mem
	c.reg.SetSession(c.participant.ID, r.Sess.ID())
	return types.ServerMessage{Type: "ack", Op: m.Op, Success: true, Room: r.Room}
}

func (c *client) join(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	if c.cur != nil {
		return fail(m.Op, session.ErrAlreadyJoined)
	}

	sess := c.getSession(m.RoomID)
	if sess == nil {
		return fail(m.Op, session.ErrSessionNotFound)
	}

	mem := &membership{out: make(chan session.Event, 16)}
	go c.writeEvents(mem)

	r := request(ctx, sess, func(reply chan session.Response) session.Msg {
		return session.Join{
			ParticipantID: c.participant.ID,
			Name:          c.participant.Name,
			JoinCode:      m.JoinCode,
			Outbox:        mem.out,
			Reply:         reply,
		}
	})
	if r.Err != nil {
		mem.left.Store(true)
		close(mem.out)
		return fail(m.Op, r.Err)
	}

	c.cur = sess
	c.mem = mem
	c.reg.SetSession(c.participant.ID, sess.ID())
	return types.ServerMessage{Type: "ack", Op: m.Op, Success: true, Room: r.Room}
}

func (c *client) leave(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	if c.cur == nil {
		return fail(m.Op, session.ErrNotInSession)
	}

	// mark the departure before the session can close the outbox, so the
	// writer does not mistake it for being dropped
	c.mem.left.Store(true)
	r := request(ctx, c.cur, func(reply chan session.Response) session.Msg {
		return session.Leave{ParticipantID: c.participant.ID, Reply: reply}
	})
	if r.Err != nil {
		return fail(m.Op, r.Err)
	}

	c.cur = nil
	c.mem = nil
	c.reg.SetSession(c.participant.ID, "")
	return types.ServerMessage{Type: "ack", Op: m.Op, Success: true}
}

func (c *client) assignTeam(ctx context.Context, m types.ClientMessage) types.ServerMessage {
	team, ok := grid.ParseTeam(m.Team)
	if !ok {
		return fail(m.Op, session.ErrInvalidTeam)
	}
	target := m.TargetID
	if target == "" {
		target = c.participant.ID
	}
	return c.inSession(ctx, m, func(reply chan session.Response) session.Msg {
		return session.AssignTeam{
			RequesterID: c.participant.ID,
			TargetID:    target,
			Team:        team,
			Reply:       reply,
		}
	})
}

// inSession forwards an op to the connection's current session and shapes the
// ack from the response.
func (c *client) inSession(ctx context.Context, m types.ClientMessage, build func(chan session.Response) session.Msg) types.ServerMessage {
	if c.cur == nil {
		return fail(m.Op, session.ErrNotInSession)
	}
	r := request(ctx, c.cur, build)
	if r.Err != nil {
		return fail(m.Op, r.Err)
	}
	return types.ServerMessage{Type: "ack", Op: m.Op, Success: true, Room: r.Room, Game: r.Game}
}

func (c *client) getSession(id string) *session.Session {
	reply := make(chan *session.Session, 1)
	c.h.Inbox() <- hub.GetSession{ID: id, Reply: reply}
	return <-reply
}

// writeEvents drains one room membership's outbox. The session closes the
// channel on leave, teardown or when this consumer falls too far behind. A
// close the reader did not ask for means the session no longer serves this
// connection, so the socket is torn down and the disconnect path synthesizes
// the leave; otherwise a dropped consumer would linger on the roster with a
// stale view.
func (c *client) writeEvents(m *membership) {
	for evt := range m.out {
		msg := types.ServerMessage{Type: evt.Name, Payload: evt.Payload}
		payload, err := json.Marshal(msg)
		if err != nil {
			c.log.Warn("event marshal failed", zap.String("event", evt.Name), zap.Error(err))
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		_ = c.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
	}
	if !m.left.Load() {
		c.log.Info("event stream lapsed, dropping connection", zap.String("conn", c.connID))
		c.dropConn()
	}
}

func (c *client) writeAck(ctx context.Context, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = c.conn.Write(writeCtx, websocket.MessageText, payload)
}

// request sends one op to a session and waits for the ack, bailing out if the
// session tears down underneath us.
func request(ctx context.Context, sess *session.Session, build func(chan session.Response) session.Msg) session.Response {
	reply := make(chan session.Response, 1)
	select {
	case sess.Inbox() <- build(reply):
	case <-sess.Done():
		return session.Response{Err: session.ErrSessionNotFound}
	case <-ctx.Done():
		return session.Response{Err: ctx.Err()}
	}
	select {
	case r := <-reply:
		return r
	case <-sess.Done():
		// an op that empties the session acks before the loop exits
		select {
		case r := <-reply:
			return r
		default:
			return session.Response{Err: session.ErrSessionNotFound}
		}
	case <-ctx.Done():
		return session.Response{Err: ctx.Err()}
	}
}

func fail(op string, err error) types.ServerMessage {
	return types.ServerMessage{
		Type:      "ack",
		Op:        op,
		ErrorKind: session.Kind(err),
		Error:     err.Error(),
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
