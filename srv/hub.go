// Package srv is the match orchestration engine: it turns per-connection
// intents into running sessions, pairs waiting players, drives the
// simulation, and reconciles each match's outcome exactly once.
package srv

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/directory"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/ledger"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// PlayerDirectory is the persistence collaborator the hub consumes.
type PlayerDirectory interface {
	GetRatingProfile(playerID int64) (directory.RatingProfile, error)
	SaveRatingProfile(p directory.RatingProfile) error
	RecordMatch(rec directory.MatchRecord) error
	Leaderboard(limit int) ([]directory.RatingProfile, error)
}

// Hub routes intents, owns the registry, and guarantees that terminal
// processing for a session happens once no matter which trigger fires.
type Hub struct {
	mu  sync.Mutex
	reg *Registry

	dir    PlayerDirectory
	ledger ledger.Submitter
	log    zerolog.Logger
}

func NewHub(dir PlayerDirectory, sub ledger.Submitter, log zerolog.Logger) *Hub {
	return &Hub{
		reg:    NewRegistry(),
		dir:    dir,
		ledger: sub,
		log:    log,
	}
}

// HandleConn runs the read loop for one authenticated connection. It
// returns when the connection dies; cleanup is unconditional.
func (h *Hub) HandleConn(c *Conn) {
	go c.writer()
	defer func() {
		c.ws.Close()
		h.HandleDisconnect(c)
		// disconnect processing above was the last producer for this
		// connection; closing send lets the writer drain and exit
		c.closeSend()
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			h.log.Debug().Int64("player", c.ID).Err(err).Msg("read loop closed")
			return
		}
		var env protocol.MsgEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "malformed message"})
			continue
		}
		h.dispatch(c, env)
	}
}

func (h *Hub) dispatch(c *Conn, env protocol.MsgEnvelope) {
	switch env.Type {
	case protocol.TypeStart:
		var m protocol.Start
		if err := json.Unmarshal(env.Data, &m); err != nil {
			sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "malformed start"})
			return
		}
		h.handleStart(c, m)

	case protocol.TypeInput:
		var m protocol.Input
		if err := json.Unmarshal(env.Data, &m); err != nil {
			sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "malformed input"})
			return
		}
		h.routeInput(c, m)

	case protocol.TypeStop:
		h.EndByStop(c)

	case protocol.TypeForfeit:
		h.EndByForfeit(c)

	case protocol.TypeStopLobby:
		h.CancelWait(c)

	case protocol.TypePing:
		sendJSON(c, protocol.TypePong, protocol.Pong{})

	case protocol.TypeGetLeaderboard:
		sendJSON(c, protocol.TypeLeaderboard, h.buildLeaderboard())

	default:
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "unknown message type: " + env.Type})
	}
}

func (h *Hub) handleStart(c *Conn, m protocol.Start) {
	h.mu.Lock()
	_, busy := h.reg.Lookup(c)
	if !busy {
		// a fresh start supersedes any queued matchmaking request;
		// a surviving entry would pair the player into a second session
		h.reg.DropWaiting(c)
	}
	h.mu.Unlock()
	if busy {
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "already in a match"})
		return
	}

	switch m.Vs {
	case protocol.VsLocal:
		h.startLocal(c)
	case protocol.VsBot:
		difficulty := 0.5
		if m.Difficulty != nil {
			difficulty = *m.Difficulty
		}
		h.startBot(c, difficulty)
	case protocol.VsOnline:
		h.RequestOnlineMatch(c)
	case protocol.VsRanked:
		h.RequestRankedMatch(c)
	default:
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "unknown game mode: " + m.Vs})
	}
}

// startLocal runs both paddles over one connection; input frames carry the
// player field to pick the seat.
func (h *Hub) startLocal(c *Conn) {
	s := newSession(h, KindLocal, protocol.CasualWinScore)
	s.conns[RoleLeft] = c
	s.players[RoleLeft] = Participant{ID: c.ID, Name: c.Name}
	s.players[RoleRight] = Participant{Name: "Player 2"}

	h.register(s)
	sendJSON(c, protocol.TypeMatchFound, protocol.MatchFound{
		MatchID: s.ID, Role: RoleLeft.String(), Opponent: s.players[RoleRight].Name,
	})
	h.log.Info().Str("match", s.ID).Int64("player", c.ID).Msg("local match started")
	s.start(0)
}

func (h *Hub) startBot(c *Conn, difficulty float64) {
	s := newSession(h, KindBot, protocol.CasualWinScore)
	s.conns[RoleLeft] = c
	s.players[RoleLeft] = Participant{ID: c.ID, Name: c.Name}
	s.players[RoleRight] = Participant{Name: "Bot"}

	h.register(s)
	sendJSON(c, protocol.TypeMatchFound, protocol.MatchFound{
		MatchID: s.ID, Role: RoleLeft.String(), Opponent: "Bot",
	})
	h.log.Info().Str("match", s.ID).Int64("player", c.ID).
		Float64("difficulty", difficulty).Msg("bot match started")
	s.start(0)
	newBotController(s, RoleRight, difficulty).start()
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.reg.Add(s)
	h.mu.Unlock()
}

// routeInput forwards a direction to the owning session. A frame with no
// session behind it is expected during disconnect races and is dropped.
func (h *Hub) routeInput(c *Conn, m protocol.Input) {
	h.mu.Lock()
	s, ok := h.reg.Lookup(c)
	h.mu.Unlock()
	if !ok {
		return
	}
	d, ok := ParseDir(m.Direction)
	if !ok {
		sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "bad direction: " + m.Direction})
		return
	}
	var role Role
	if s.Kind == KindLocal {
		r, ok := ParseRole(m.Player)
		if !ok {
			sendJSON(c, protocol.TypeError, protocol.ErrorMsg{Message: "bad player: " + m.Player})
			return
		}
		role = r
	} else {
		r, ok := s.roleOf(c)
		if !ok {
			return
		}
		role = r
	}
	s.SetIntent(role, d)
}

// EndByStop ends the caller's match. A live ranked match counts this as a
// forfeit against the stopper; a live casual match keeps its score as-is.
func (h *Hub) EndByStop(c *Conn) {
	h.mu.Lock()
	s, ok := h.reg.Lookup(c)
	h.mu.Unlock()
	if !ok {
		return
	}
	role, seated := s.roleOf(c)
	if !seated {
		return
	}
	if s.Kind == KindRanked {
		// early exit from a live ranked match is a forfeit, not a draw
		winner := role.Other()
		h.finishSession(s, "forfeit", &winner)
		return
	}
	h.finishSession(s, "stop", nil)
}

// EndByForfeit applies forfeit scoring for the caller's opponent on every
// session kind, then runs the shared terminal path.
func (h *Hub) EndByForfeit(c *Conn) {
	h.mu.Lock()
	s, ok := h.reg.Lookup(c)
	h.mu.Unlock()
	if !ok {
		return
	}
	role, seated := s.roleOf(c)
	if !seated {
		return
	}
	winner := role.Other()
	h.finishSession(s, "forfeit", &winner)
}

// HandleDisconnect is the cleanup path for a dead connection: drop any
// waiting entry and terminate the session the survivor's way.
func (h *Hub) HandleDisconnect(c *Conn) {
	h.mu.Lock()
	h.reg.DropWaiting(c)
	s, ok := h.reg.Lookup(c)
	h.mu.Unlock()
	if !ok {
		return
	}
	role, seated := s.roleOf(c)
	if !seated {
		return
	}
	winner := role.Other()
	h.finishSession(s, "disconnect", &winner)
}

// finishSession is the single terminal-processing entry point. The CAS in
// TryBeginTermination lets exactly one trigger through; every later call
// only re-runs the idempotent registry cleanup. forfeitWinner, when set,
// applies forfeit scoring *after* the claim so a racing natural finish is
// never overwritten.
func (h *Hub) finishSession(s *Session, reason string, forfeitWinner *Role) {
	if !s.TryBeginTermination() {
		s.cancel()
		h.detachSession(s)
		return
	}
	s.cancel()

	s.mu.Lock()
	alreadyOver := s.game.GameOver
	if !alreadyOver && forfeitWinner != nil {
		s.game.Forfeit(*forfeitWinner)
	}
	s.mu.Unlock()
	if alreadyOver {
		// the trigger only drives final accounting for a finished game
		reason = ""
	}

	snap := s.snapshot()
	if reason != "" {
		s.broadcast(protocol.TypeStopNotice, protocol.StopNotice{Reason: reason, Score: snap.Score})
	}

	switch s.Kind {
	case KindRanked:
		h.settleRanked(s, reason, snap)
	default:
		s.broadcast(protocol.TypeMatchOver, protocol.MatchOver{
			Score:  snap.Score,
			Winner: casualWinner(snap),
			Reason: reason,
		})
	}

	h.detachSession(s)
	s.markEnded()
	h.log.Info().Str("match", s.ID).Str("kind", s.Kind.String()).
		Str("reason", reason).Ints("score", snap.Score[:]).Msg("match ended")
}

// casualWinner names the leading side, or nobody on a tied early stop.
func casualWinner(snap protocol.State) string {
	if snap.GameOver {
		return snap.Winner
	}
	switch {
	case snap.Score[RoleLeft] > snap.Score[RoleRight]:
		return RoleLeft.String()
	case snap.Score[RoleRight] > snap.Score[RoleLeft]:
		return RoleRight.String()
	}
	return ""
}

// detachSession removes every registry trace of the session. Safe to call
// from racing cleanup paths.
func (h *Hub) detachSession(s *Session) {
	h.mu.Lock()
	h.reg.Remove(s)
	for _, c := range s.conns {
		if c != nil {
			h.reg.DropWaiting(c)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) buildLeaderboard() protocol.Leaderboard {
	profs, err := h.dir.Leaderboard(50)
	if err != nil {
		h.log.Error().Err(err).Msg("leaderboard query failed")
		return protocol.Leaderboard{GeneratedAt: time.Now().UnixMilli()}
	}
	items := make([]protocol.LeaderboardEntry, 0, len(profs))
	for _, p := range profs {
		items = append(items, protocol.LeaderboardEntry{
			Name:   p.Name,
			Rating: p.Rating,
			Rank:   rankName(p.Rating),
			Wins:   p.Wins,
			Losses: p.Losses,
		})
	}
	return protocol.Leaderboard{Items: items, GeneratedAt: time.Now().UnixMilli()}
}
