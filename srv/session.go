package srv

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// SessionState is the per-session lifecycle. Termination is gated by a
// single compare-and-set Active -> Ending, which is what makes end-of-match
// side effects run at most once no matter how many triggers fire.
type SessionState int32

const (
	StateWaiting SessionState = iota
	StateActive
	StateEnding
	StateEnded
)

// Participant is a referenced player identity; the session never owns it.
type Participant struct {
	ID      int64
	Name    string
	Rating  int // snapshot at pairing time, ranked only
	Address string
}

// Session is one live match: simulation, participants, tick driver.
type Session struct {
	ID        string
	Kind      SessionKind
	CreatedAt time.Time

	mu      sync.Mutex // guards game
	game    *MatchState
	conns   [2]*Conn // indexed by Role; nil slots for bot/local seats
	players [2]Participant

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once

	hub *Hub
}

func newSession(hub *Hub, kind SessionKind, winScore int) *Session {
	s := &Session{
		ID:        protocol.NewMatchID(),
		Kind:      kind,
		CreatedAt: time.Now(),
		game:      NewMatchState(winScore),
		stop:      make(chan struct{}),
		hub:       hub,
	}
	s.state.Store(int32(StateWaiting))
	return s
}

func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

// TryBeginTermination claims the terminal-processing slot. Exactly one
// caller per session ever gets true.
func (s *Session) TryBeginTermination() bool {
	return s.state.CompareAndSwap(int32(StateActive), int32(StateEnding))
}

func (s *Session) markEnded() {
	s.state.Store(int32(StateEnded))
}

// cancel stops the tick driver and any AI loops. Idempotent.
func (s *Session) cancel() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// roleOf maps a connection to its seat; ok is false for strangers.
func (s *Session) roleOf(c *Conn) (Role, bool) {
	for r := RoleLeft; r <= RoleRight; r++ {
		if c != nil && s.conns[r] == c {
			return r, true
		}
	}
	return RoleLeft, false
}

// SetIntent records a direction for one paddle.
func (s *Session) SetIntent(r Role, d Dir) {
	s.mu.Lock()
	s.game.SetIntent(r, d)
	s.mu.Unlock()
}

func (s *Session) snapshot() protocol.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// broadcast sends one notification to every distinct seat.
func (s *Session) broadcast(typ string, v any) {
	sent := map[*Conn]bool{}
	for _, c := range s.conns {
		if c != nil && !sent[c] {
			sent[c] = true
			sendJSON(c, typ, v)
		}
	}
}

// start flips the session live and launches the tick driver after delay.
// Ranked pairs use a small delay so both matchFound notifications are on
// the wire before the first state frame.
func (s *Session) start(delay time.Duration) {
	s.state.Store(int32(StateActive))
	go s.run(delay)
}

func (s *Session) run(delay time.Duration) {
	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-s.stop:
			t.Stop()
			return
		case <-t.C:
		}
	}
	tick := time.NewTicker(protocol.TickInterval)
	defer tick.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			if !s.tick() {
				return
			}
		}
	}
}

// tick advances one frame and broadcasts it; returns false once the
// session should stop driving the simulation.
func (s *Session) tick() bool {
	if s.State() != StateActive {
		return false
	}
	s.mu.Lock()
	s.game.Step()
	snap := s.game.Snapshot()
	s.mu.Unlock()

	s.broadcast(protocol.TypeState, snap)

	if snap.GameOver {
		s.hub.finishSession(s, "", nil)
		return false
	}
	return true
}
