package srv

import (
	"context"
	"time"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/directory"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// RequestRankedMatch pairs the caller with the closest-rated waiter.
// A gap above the window is accepted only once the waiter has aged past
// the relaxation timeout, so nobody starves.
func (h *Hub) RequestRankedMatch(c *Conn) {
	prof, err := h.dir.GetRatingProfile(c.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("player", c.ID).Msg("rating profile load failed")
		prof = directory.RatingProfile{PlayerID: c.ID, Rating: protocol.RatingSeed}
	}
	me := Participant{ID: c.ID, Name: c.Name, Rating: prof.Rating, Address: prof.Address}

	h.mu.Lock()
	if _, busy := h.reg.Lookup(c); busy {
		h.mu.Unlock()
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "already in a match"})
		return
	}
	opp := h.reg.TakeRanked(me.Rating, c, protocol.RatingWindow, protocol.MaxQueueWait, time.Now())
	if opp == nil {
		h.reg.DropWaiting(c)
		h.reg.EnqueueRanked(&WaitingEntry{Conn: c, Player: me, Since: time.Now()})
		h.mu.Unlock()
		sendJSON(c, protocol.TypeWaiting, protocol.Waiting{
			Ranked: true, Rating: me.Rating, Rank: rankName(me.Rating),
		})
		return
	}

	s := newSession(h, KindRanked, protocol.RankedWinScore)
	s.conns[RoleLeft] = opp.Conn
	s.conns[RoleRight] = c
	s.players[RoleLeft] = opp.Player
	s.players[RoleRight] = me
	h.reg.Add(s)
	h.mu.Unlock()

	sendJSON(opp.Conn, protocol.TypeRankedMatchFound, protocol.RankedMatchFound{
		MatchID: s.ID, Role: RoleLeft.String(),
		Rating: opp.Player.Rating, Rank: rankName(opp.Player.Rating),
		Opponent: me.Name, OpponentID: me.ID, OpponentRating: me.Rating,
	})
	sendJSON(c, protocol.TypeRankedMatchFound, protocol.RankedMatchFound{
		MatchID: s.ID, Role: RoleRight.String(),
		Rating: me.Rating, Rank: rankName(me.Rating),
		Opponent: opp.Player.Name, OpponentID: opp.Player.ID, OpponentRating: opp.Player.Rating,
	})
	h.log.Info().Str("match", s.ID).
		Int64("left", opp.Player.ID).Int("leftRating", opp.Player.Rating).
		Int64("right", me.ID).Int("rightRating", me.Rating).Msg("ranked match paired")

	// ticks start late so both clients learn their role before the first
	// state frame; this is an ordering guarantee, not a warm-up
	s.start(protocol.RankedStartDelay)
}

// settleRanked runs the full ranked termination pipeline: ELO, player
// notifications, profile + match persistence, best-effort ledger posts.
// Collaborator failures are logged and never block the rest of the
// pipeline. The caller already holds the termination slot.
func (h *Hub) settleRanked(s *Session, reason string, snap protocol.State) {
	// every production trigger decides the game before settlement; an
	// undecided snapshot settles as a draw rather than gifting a side
	winner, decided := ParseRole(snap.Winner)
	if !decided {
		h.log.Warn().Str("match", s.ID).Str("reason", reason).
			Msg("ranked settlement without a decided winner, scoring as draw")
	}

	var profs [2]directory.RatingProfile
	for r := RoleLeft; r <= RoleRight; r++ {
		p, err := h.dir.GetRatingProfile(s.players[r].ID)
		if err != nil {
			h.log.Error().Err(err).Int64("player", s.players[r].ID).
				Str("match", s.ID).Msg("profile reload failed, using pairing snapshot")
			p = directory.RatingProfile{
				PlayerID: s.players[r].ID,
				Rating:   s.players[r].Rating,
			}
		}
		p.Name = s.players[r].Name
		profs[r] = p
	}

	scoreFor := func(r Role) float64 {
		if !decided {
			return 0.5
		}
		if r == winner {
			return 1
		}
		return 0
	}
	var result [2]protocol.RatingResult
	oldL, oldR := profs[RoleLeft].Rating, profs[RoleRight].Rating
	for r := RoleLeft; r <= RoleRight; r++ {
		other := oldR
		old := oldL
		if r == RoleRight {
			other, old = oldL, oldR
		}
		nr, delta := eloApply(old, other, scoreFor(r))
		result[r] = protocol.RatingResult{NewRating: nr, Delta: delta, Rank: rankName(nr)}
	}

	// notify before any persistence so the players' result latency is not
	// coupled to directory/ledger latency
	for r := RoleLeft; r <= RoleRight; r++ {
		sendJSON(s.conns[r], protocol.TypeRankedMatchOver, protocol.RankedMatchOver{
			Score:    snap.Score,
			Winner:   snap.Winner,
			Reason:   reason,
			You:      result[r],
			Opponent: result[r.Other()],
		})
	}

	rec := directory.MatchRecord{MatchID: s.ID, PlayedAt: time.Now(), Reason: reason}
	for r := RoleLeft; r <= RoleRight; r++ {
		p := profs[r]
		old := p.Rating
		p.Rating = result[r].NewRating
		p.Games++
		if decided {
			if r == winner {
				p.Wins++
			} else {
				p.Losses++
			}
		}
		if err := h.dir.SaveRatingProfile(p); err != nil {
			h.log.Error().Err(err).Int64("player", p.PlayerID).
				Str("match", s.ID).Msg("rating profile save failed")
		}
		rec.Sides[r] = directory.MatchSide{
			PlayerID:    p.PlayerID,
			Name:        p.Name,
			Score:       snap.Score[r],
			RatingOld:   old,
			RatingNew:   p.Rating,
			RatingDelta: result[r].Delta,
		}
	}
	if err := h.dir.RecordMatch(rec); err != nil {
		h.log.Error().Err(err).Str("match", s.ID).Msg("match record save failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for r := RoleLeft; r <= RoleRight; r++ {
		side := s.players[r]
		txRef, err := h.ledger.SubmitScore(ctx, s.ID, side.Address, snap.Score[r], side.ID)
		if err != nil {
			h.log.Warn().Err(err).Int64("player", side.ID).
				Str("match", s.ID).Msg("ledger submission failed")
			continue
		}
		if txRef != "" {
			h.log.Info().Str("match", s.ID).Int64("player", side.ID).
				Str("txRef", txRef).Msg("score posted to ledger")
		}
	}
}
