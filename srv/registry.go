package srv

import "time"

// SessionKind tags what a connection's session is, so dispatch is one
// lookup instead of probing several maps.
type SessionKind int

const (
	KindLocal SessionKind = iota
	KindBot
	KindCasual
	KindRanked
)

func (k SessionKind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindBot:
		return "bot"
	case KindCasual:
		return "casual"
	default:
		return "ranked"
	}
}

// WaitingEntry is one unpaired matchmaking request.
type WaitingEntry struct {
	Conn   *Conn
	Player Participant
	Since  time.Time
}

// Registry owns every process-wide lookup table: sessions by id, the
// connection -> session binding, and both waiting lists. It has no
// locking of its own; the hub's mutex serializes all access. No entry
// outlives its session.
type Registry struct {
	sessions map[string]*Session
	byConn   map[*Conn]*Session
	casualQ  []*WaitingEntry
	rankedQ  []*WaitingEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byConn:   make(map[*Conn]*Session),
	}
}

func (r *Registry) Add(s *Session) {
	r.sessions[s.ID] = s
	for _, c := range s.conns {
		if c != nil {
			r.byConn[c] = s
		}
	}
}

// Remove detaches a session from every table. Safe to call twice.
func (r *Registry) Remove(s *Session) {
	delete(r.sessions, s.ID)
	for _, c := range s.conns {
		if c != nil && r.byConn[c] == s {
			delete(r.byConn, c)
		}
	}
}

// Lookup resolves a connection to its active session, if any.
func (r *Registry) Lookup(c *Conn) (*Session, bool) {
	s, ok := r.byConn[c]
	return s, ok
}

func (r *Registry) SessionByID(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) SessionCount() int { return len(r.sessions) }

// ---- casual queue (FIFO)

func (r *Registry) EnqueueCasual(e *WaitingEntry) {
	r.casualQ = append(r.casualQ, e)
}

// PopCasual returns the earliest waiter not on the given connection.
// Entries whose connection already sits in a session are stale and
// never returned.
func (r *Registry) PopCasual(exclude *Conn) *WaitingEntry {
	for i, e := range r.casualQ {
		if e.Conn == exclude {
			continue
		}
		if _, bound := r.byConn[e.Conn]; bound {
			continue
		}
		r.casualQ = append(r.casualQ[:i], r.casualQ[i+1:]...)
		return e
	}
	return nil
}

// ---- ranked queue

func (r *Registry) EnqueueRanked(e *WaitingEntry) {
	r.rankedQ = append(r.rankedQ, e)
}

// TakeRanked picks the waiter whose rating is closest to rating, accepting
// it only inside the window unless the waiter has aged past maxWait.
func (r *Registry) TakeRanked(rating int, exclude *Conn, window int, maxWait time.Duration, now time.Time) *WaitingEntry {
	best := -1
	bestGap := 0
	for i, e := range r.rankedQ {
		if e.Conn == exclude {
			continue
		}
		if _, bound := r.byConn[e.Conn]; bound {
			continue
		}
		gap := e.Player.Rating - rating
		if gap < 0 {
			gap = -gap
		}
		if best == -1 || gap < bestGap {
			best, bestGap = i, gap
		}
	}
	if best == -1 {
		return nil
	}
	e := r.rankedQ[best]
	if bestGap > window && now.Sub(e.Since) <= maxWait {
		return nil
	}
	r.rankedQ = append(r.rankedQ[:best], r.rankedQ[best+1:]...)
	return e
}

// DropWaiting removes any queue entry held by the connection, casual or
// ranked. No-op when the connection is not queued.
func (r *Registry) DropWaiting(c *Conn) bool {
	var d1, d2 bool
	r.casualQ, d1 = dropConn(r.casualQ, c)
	r.rankedQ, d2 = dropConn(r.rankedQ, c)
	return d1 || d2
}

func dropConn(q []*WaitingEntry, c *Conn) ([]*WaitingEntry, bool) {
	for i, e := range q {
		if e.Conn == c {
			return append(q[:i], q[i+1:]...), true
		}
	}
	return q, false
}

func (r *Registry) CasualWaiting() int { return len(r.casualQ) }
func (r *Registry) RankedWaiting() int { return len(r.rankedQ) }
