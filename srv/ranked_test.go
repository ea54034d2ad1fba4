package srv

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/directory"
	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

func TestRankedWaitingReportsRatingAndRank(t *testing.T) {
	h, dir, _ := newTestHub()
	dir.profiles[1] = directory.RatingProfile{PlayerID: 1, Name: "ada", Rating: 1450}
	c := newTestConn(1, "ada")

	h.RequestRankedMatch(c)

	w := decodeAs[protocol.Waiting](t, waitFor(t, c, protocol.TypeWaiting))
	assert.True(t, w.Ranked)
	assert.Equal(t, 1450, w.Rating)
	assert.Equal(t, "Silver", w.Rank)
}

func TestRankedSkipsWaiterOutsideWindow(t *testing.T) {
	h, dir, _ := newTestHub()
	dir.profiles[1] = directory.RatingProfile{PlayerID: 1, Rating: 1200}
	dir.profiles[2] = directory.RatingProfile{PlayerID: 2, Rating: 1200 + protocol.RatingWindow + 50}
	a := newTestConn(1, "ada")
	b := newTestConn(2, "bob")

	h.RequestRankedMatch(a)
	h.RequestRankedMatch(b)

	waitFor(t, a, protocol.TypeWaiting)
	waitFor(t, b, protocol.TypeWaiting)
	h.mu.Lock()
	assert.Equal(t, 2, h.reg.RankedWaiting(), "gap above window must not pair fresh waiters")
	h.mu.Unlock()
}

func TestRankedRelaxesAfterMaxWait(t *testing.T) {
	h, dir, _ := newTestHub()
	dir.profiles[1] = directory.RatingProfile{PlayerID: 1, Rating: 1200}
	dir.profiles[2] = directory.RatingProfile{PlayerID: 2, Rating: 2000}
	a := newTestConn(1, "ada")
	b := newTestConn(2, "bob")

	h.RequestRankedMatch(a)
	waitFor(t, a, protocol.TypeWaiting)

	// age a's entry past the relaxation timeout
	h.mu.Lock()
	h.reg.rankedQ[0].Since = time.Now().Add(-protocol.MaxQueueWait - time.Second)
	h.mu.Unlock()

	h.RequestRankedMatch(b)

	found := decodeAs[protocol.RankedMatchFound](t, waitFor(t, b, protocol.TypeRankedMatchFound))
	assert.Equal(t, "ada", found.Opponent)
	assert.Equal(t, 1200, found.OpponentRating)

	h.mu.Lock()
	s, ok := h.reg.SessionByID(found.MatchID)
	h.mu.Unlock()
	require.True(t, ok)
	h.finishSession(s, "stop", nil)
}

func TestRankedPicksClosestRating(t *testing.T) {
	reg := NewRegistry()
	low := newTestConn(1, "low")
	high := newTestConn(2, "high")
	now := time.Now()
	reg.EnqueueRanked(&WaitingEntry{Conn: low, Player: Participant{ID: 1, Rating: 1100}, Since: now})
	reg.EnqueueRanked(&WaitingEntry{Conn: high, Player: Participant{ID: 2, Rating: 1300}, Since: now})

	got := reg.TakeRanked(1290, nil, protocol.RatingWindow, protocol.MaxQueueWait, now)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Player.ID, "closest rating wins even when both fit the window")
	assert.Equal(t, 1, reg.RankedWaiting())
}

func TestRankedSettleExampleScenario(t *testing.T) {
	// two 1200-rated players finish 10-3; winner lands on 1216, loser 1184
	h, dir, led := newTestHub()
	a := newTestConn(1, "ada")
	b := newTestConn(2, "bob")
	s := activeRankedSession(h, a, b)

	s.mu.Lock()
	s.game.Score = [2]int{10, 3}
	s.game.GameOver = true
	s.game.Winner = RoleLeft
	s.mu.Unlock()

	h.finishSession(s, "", nil)

	overA := decodeAs[protocol.RankedMatchOver](t, waitFor(t, a, protocol.TypeRankedMatchOver))
	overB := decodeAs[protocol.RankedMatchOver](t, waitFor(t, b, protocol.TypeRankedMatchOver))

	assert.Equal(t, 1216, overA.You.NewRating)
	assert.Equal(t, 16, overA.You.Delta)
	assert.Equal(t, 1184, overB.You.NewRating)
	assert.Equal(t, -16, overB.You.Delta)
	assert.Equal(t, overA.You, overB.Opponent)
	assert.Equal(t, "left", overA.Winner)

	// persistence: both profiles, one match record, two ledger posts
	assert.Equal(t, 2, dir.saveCount())
	require.Equal(t, 1, dir.recordCount())
	assert.Equal(t, 2, led.callCount())

	pa := dir.profile(1)
	pb := dir.profile(2)
	assert.Equal(t, 1216, pa.Rating)
	assert.Equal(t, 1, pa.Wins)
	assert.Equal(t, 0, pa.Losses)
	assert.Equal(t, 1184, pb.Rating)
	assert.Equal(t, 1, pb.Losses)
	assert.Equal(t, 1, pa.Games)

	rec := dir.records[0]
	assert.Equal(t, s.ID, rec.MatchID)
	assert.Equal(t, 16, rec.Sides[0].RatingDelta)
	assert.Equal(t, -16, rec.Sides[1].RatingDelta)
}

func TestRankedStopForfeitsTheStopper(t *testing.T) {
	h, dir, _ := newTestHub()
	a := newTestConn(1, "ada")
	b := newTestConn(2, "bob")
	s := activeRankedSession(h, a, b)

	s.mu.Lock()
	s.game.Score = [2]int{4, 2} // live match
	s.mu.Unlock()

	h.EndByStop(a)

	over := decodeAs[protocol.RankedMatchOver](t, waitFor(t, b, protocol.TypeRankedMatchOver))
	assert.Equal(t, "right", over.Winner, "stopping a live ranked match forfeits it")
	assert.Equal(t, "forfeit", over.Reason)
	assert.Equal(t, [2]int{0, protocol.RankedWinScore}, over.Score)
	assert.Greater(t, dir.profile(2).Rating, dir.profile(1).Rating)
}

func TestRankedUndecidedGameSettlesAsDraw(t *testing.T) {
	h, dir, _ := newTestHub()
	a := newTestConn(1, "ada")
	b := newTestConn(2, "bob")
	s := activeRankedSession(h, a, b)

	s.mu.Lock()
	s.game.Score = [2]int{4, 2} // live, nobody reached the ceiling
	s.mu.Unlock()

	// no forfeit winner: nothing must arbitrarily award the left seat
	h.finishSession(s, "stop", nil)

	over := decodeAs[protocol.RankedMatchOver](t, waitFor(t, a, protocol.TypeRankedMatchOver))
	assert.Empty(t, over.Winner)
	assert.Equal(t, 0, over.You.Delta, "equal ratings drawing must not move")

	pa := dir.profile(1)
	pb := dir.profile(2)
	assert.Equal(t, protocol.RatingSeed, pa.Rating)
	assert.Equal(t, protocol.RatingSeed, pb.Rating)
	assert.Zero(t, pa.Wins+pa.Losses+pb.Wins+pb.Losses)
	assert.Equal(t, 1, pa.Games)
	assert.Equal(t, 1, pb.Games)
}

func TestRankedTerminationRunsExactlyOnce(t *testing.T) {
	h, dir, led := newTestHub()
	a := newTestConn(1, "ada")
	b := newTestConn(2, "bob")
	s := activeRankedSession(h, a, b)

	// a stop and a disconnect race for the same session
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.EndByStop(a)
	}()
	go func() {
		defer wg.Done()
		h.HandleDisconnect(a)
	}()
	wg.Wait()

	assert.Equal(t, 2, dir.saveCount(), "one save per participant, once")
	assert.Equal(t, 1, dir.recordCount())
	assert.Equal(t, 2, led.callCount())
	assert.Equal(t, StateEnded, s.State())

	h.mu.Lock()
	_, stillThere := h.reg.SessionByID(s.ID)
	_, bound := h.reg.Lookup(a)
	h.mu.Unlock()
	assert.False(t, stillThere)
	assert.False(t, bound)
}
