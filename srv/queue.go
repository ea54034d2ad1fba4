package srv

import (
	"time"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// RequestOnlineMatch pairs the caller with the longest-waiting casual
// requester, FIFO with no skill weighting, or enqueues them.
func (h *Hub) RequestOnlineMatch(c *Conn) {
	me := Participant{ID: c.ID, Name: c.Name}

	h.mu.Lock()
	if _, busy := h.reg.Lookup(c); busy {
		h.mu.Unlock()
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "already in a match"})
		return
	}
	opp := h.reg.PopCasual(c)
	if opp == nil {
		h.reg.DropWaiting(c) // re-request replaces any stale entry
		h.reg.EnqueueCasual(&WaitingEntry{Conn: c, Player: me, Since: time.Now()})
		h.mu.Unlock()
		sendJSON(c, protocol.TypeWaiting, protocol.Waiting{})
		return
	}

	// earlier arrival takes the left seat
	s := newSession(h, KindCasual, protocol.CasualWinScore)
	s.conns[RoleLeft] = opp.Conn
	s.conns[RoleRight] = c
	s.players[RoleLeft] = opp.Player
	s.players[RoleRight] = me
	h.reg.Add(s)
	h.mu.Unlock()

	sendJSON(opp.Conn, protocol.TypeMatchFound, protocol.MatchFound{
		MatchID: s.ID, Role: RoleLeft.String(), Opponent: me.Name, OpponentID: me.ID,
	})
	sendJSON(c, protocol.TypeMatchFound, protocol.MatchFound{
		MatchID: s.ID, Role: RoleRight.String(), Opponent: opp.Player.Name, OpponentID: opp.Player.ID,
	})
	h.log.Info().Str("match", s.ID).
		Int64("left", opp.Player.ID).Int64("right", me.ID).Msg("casual match paired")
	s.start(0)
}

// CancelWait drops the caller's pending entry, casual or ranked. No-op
// when nothing is queued.
func (h *Hub) CancelWait(c *Conn) {
	h.mu.Lock()
	dropped := h.reg.DropWaiting(c)
	h.mu.Unlock()
	if dropped {
		h.log.Debug().Int64("player", c.ID).Msg("left matchmaking queue")
	}
}
