package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/huroofgame/letters-arena-backend/internal/hub"
	"github.com/huroofgame/letters-arena-backend/internal/session"
	"github.com/huroofgame/letters-arena-backend/internal/types"
)

// ListRooms exposes the open-room listing over plain HTTP for lobby browsers
// that are not connected yet. Same data the list-rooms op returns.
func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []*session.Session, 1)
		h.Inbox() <- hub.ListSessions{Reply: reply}

		var sessions []*session.Session
		select {
		case sessions = <-reply:
		case <-time.After(time.Second):
			http.Error(w, "registry busy", http.StatusServiceUnavailable)
			return
		}

		summaries := make([]types.RoomSummary, 0, len(sessions))
		for _, s := range sessions {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			snap, err := s.Snapshot(ctx)
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

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Rooms []types.RoomSummary `json:"rooms"`
		}{Rooms: summaries})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
