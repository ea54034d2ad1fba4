package srv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/directory"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// fakeDirectory records every write so tests can assert exactly-once
// terminal processing.
type fakeDirectory struct {
	mu       sync.Mutex
	profiles map[int64]directory.RatingProfile
	saves    int
	records  []directory.MatchRecord
	failGet  bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{profiles: map[int64]directory.RatingProfile{}}
}

func (f *fakeDirectory) GetRatingProfile(playerID int64) (directory.RatingProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return directory.RatingProfile{}, context.DeadlineExceeded
	}
	if p, ok := f.profiles[playerID]; ok {
		return p, nil
	}
	return directory.RatingProfile{PlayerID: playerID, Rating: protocol.RatingSeed}, nil
}

func (f *fakeDirectory) SaveRatingProfile(p directory.RatingProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.PlayerID] = p
	f.saves++
	return nil
}

func (f *fakeDirectory) RecordMatch(rec directory.MatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeDirectory) Leaderboard(limit int) ([]directory.RatingProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]directory.RatingProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeDirectory) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeDirectory) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeDirectory) profile(id int64) directory.RatingProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id]
}

type fakeLedger struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeLedger) SubmitScore(_ context.Context, _, _ string, _ int, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "tx-test", nil
}

func (f *fakeLedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestHub() (*Hub, *fakeDirectory, *fakeLedger) {
	dir := newFakeDirectory()
	led := &fakeLedger{}
	return NewHub(dir, led, zerolog.Nop()), dir, led
}

func newTestConn(id int64, name string) *Conn {
	return &Conn{send: make(chan []byte, 256), ID: id, Name: name}
}

// waitFor drains a connection's send queue until a notification of the
// wanted type shows up.
func waitFor(t *testing.T, c *Conn, typ string) json.RawMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b := <-c.send:
			var env protocol.MsgEnvelope
			require.NoError(t, json.Unmarshal(b, &env))
			if env.Type == typ {
				return env.Data
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", typ)
			return nil
		}
	}
}

// recvNow pops the next queued notification without waiting.
func recvNow(t *testing.T, c *Conn) (string, json.RawMessage) {
	t.Helper()
	select {
	case b := <-c.send:
		var env protocol.MsgEnvelope
		require.NoError(t, json.Unmarshal(b, &env))
		return env.Type, env.Data
	default:
		t.Fatal("no queued notification")
		return "", nil
	}
}

func decodeAs[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// activeRankedSession builds a registered, active ranked session without
// going through matchmaking timing.
func activeRankedSession(h *Hub, a, b *Conn) *Session {
	s := newSession(h, KindRanked, protocol.RankedWinScore)
	s.conns[RoleLeft] = a
	s.conns[RoleRight] = b
	s.players[RoleLeft] = Participant{ID: a.ID, Name: a.Name, Rating: protocol.RatingSeed}
	s.players[RoleRight] = Participant{ID: b.ID, Name: b.Name, Rating: protocol.RatingSeed}
	h.register(s)
	s.state.Store(int32(StateActive))
	return s
}
