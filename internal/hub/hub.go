// Package hub owns the process-wide session table. Like each session, the
// hub is a single goroutine draining a typed inbox, so creating, looking up
// and removing sessions never race.
package hub

import (
	"context"
	"crypto/rand"
	"math/big"

	"go.uber.org/zap"

	"github.com/huroofgame/letters-arena-backend/internal/metrics"
	"github.com/huroofgame/letters-arena-backend/internal/session"
	"github.com/huroofgame/letters-arena-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Cfg        session.Config
	LeaderID   string
	LeaderName string
	Outbox     chan session.Event
	Reply      chan CreateReply
}

type CreateReply struct {
	Sess *session.Session
	Room *session.RoomSnapshot
	Err  error
}

type GetSession struct {
	ID    string
	Reply chan *session.Session
}

type RemoveSession struct {
	ID string
}

type ListSessions struct {
	Reply chan []*session.Session
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ListSessions) isHubMsg()  {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	ctx      context.Context
	cancel   context.CancelFunc
	log      *zap.Logger
	rec      store.Recorder
}

func NewHub(parent context.Context, log *zap.Logger, rec store.Recorder) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = store.Noop{}
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
		rec:      rec,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				msg.Reply <- h.create(msg)

			case GetSession:
				msg.Reply <- h.sessions[msg.ID] // may be nil

			case RemoveSession:
				if _, ok := h.sessions[msg.ID]; ok {
					delete(h.sessions, msg.ID)
					metrics.SessionsActive.Set(float64(len(h.sessions)))
					h.log.Info("session removed", zap.String("session", msg.ID))
				}

			case ListSessions:
				list := make([]*session.Session, 0, len(h.sessions))
				for _, s := range h.sessions {
					list = append(list, s)
				}
				msg.Reply <- list

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(msg CreateSession) CreateReply {
	var id string
	for {
		c, err := generateCode()
		if err != nil {
			return CreateReply{Err: err}
		}
		if _, taken := h.sessions[c]; !taken {
			id = c
			break
		}
	}

	// invite-code rooms get a short code players type in
	cfg := msg.Cfg
	if cfg.Visibility == session.VisibilityInviteCode && cfg.JoinCode == "" {
		c, err := generateCode()
		if err != nil {
			return CreateReply{Err: err}
		}
		cfg.JoinCode = c
	}

	s, err := session.New(h.ctx, id, cfg, msg.LeaderID, msg.LeaderName, msg.Outbox, session.Deps{
		Log:      h.log,
		Recorder: h.rec,
		OnEmpty:  func(id string) { h.inbox <- RemoveSession{ID: id} },
	})
	if err != nil {
		return CreateReply{Err: err}
	}

	h.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(h.sessions)))
	h.log.Info("session created", zap.String("session", id), zap.String("leader", msg.LeaderID))

	// the session is brand new, so its loop answers immediately; returning the
	// initial snapshot here lets the caller shape the create ack without a
	// second round trip to a session it just made
	snapReply := make(chan session.RoomSnapshot, 1)
	s.Inbox() <- session.GetState{Reply: snapReply}
	snap := <-snapReply
	return CreateReply{Sess: s, Room: &snap}
}

func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		s.Inbox() <- session.Shutdown{}
	}
	clear(h.sessions)
	metrics.SessionsActive.Set(0)
	h.cancel()
}

func generateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}
