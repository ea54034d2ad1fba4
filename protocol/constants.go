package protocol

import "time"

// Playfield geometry. The client renders whatever we send, but physics
// and AI both assume these dimensions, so they live in one place.
const (
	FieldW  = 800.0
	FieldH  = 600.0
	PaddleW = 10.0
	PaddleH = 100.0
	BallR   = 8.0
)

// Gameplay tuning.
const (
	PaddleSpeed = 6.0 // px per tick
	BallSpeed   = 5.0 // initial horizontal speed, px per tick
	BallAccel   = 0.4 // added to |vx| on every paddle hit
	MaxBounceVY = 4.5 // cap on the deflection heuristic

	CasualWinScore = 5
	RankedWinScore = 10
)

// Net/update cadence.
const (
	TickRate     = 60
	TickInterval = time.Second / TickRate

	// Ranked ticks start after the matchFound notifications so a client
	// never sees a state frame before it knows its role.
	RankedStartDelay = 250 * time.Millisecond
)

// Matchmaking.
const (
	RatingSeed   = 1200
	RatingWindow = 200             // max rating gap for a fresh pairing
	MaxQueueWait = 30 * time.Second // after this, any gap is accepted
)
