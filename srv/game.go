package srv

import (
	"math/rand"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// Role picks a side of the field.
type Role int

const (
	RoleLeft Role = iota
	RoleRight
)

func (r Role) String() string {
	if r == RoleLeft {
		return "left"
	}
	return "right"
}

func (r Role) Other() Role {
	if r == RoleLeft {
		return RoleRight
	}
	return RoleLeft
}

// ParseRole maps a wire role string; second result is false on junk.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "left":
		return RoleLeft, true
	case "right":
		return RoleRight, true
	}
	return RoleLeft, false
}

// Dir is a paddle's last commanded direction. Overwritten, never queued.
type Dir int8

const (
	DirStop Dir = iota
	DirUp
	DirDown
)

func ParseDir(s string) (Dir, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "stop":
		return DirStop, true
	}
	return DirStop, false
}

// MatchState is one match's physics snapshot. Pure: Step does no I/O and
// knows nothing about connections or timers. Callers serialize access.
type MatchState struct {
	PaddleY  [2]float64 // top edge per role, clamped to the field
	BallX    float64
	BallY    float64
	BallVX   float64
	BallVY   float64
	Score    [2]int
	WinScore int
	GameOver bool
	Winner   Role // valid only when GameOver

	intents [2]Dir
}

func NewMatchState(winScore int) *MatchState {
	m := &MatchState{WinScore: winScore}
	mid := (protocol.FieldH - protocol.PaddleH) / 2
	m.PaddleY[RoleLeft] = mid
	m.PaddleY[RoleRight] = mid
	m.resetBall(rand.Intn(2) == 0)
	return m
}

func (m *MatchState) SetIntent(r Role, d Dir) {
	m.intents[r] = d
}

// resetBall centers the ball; toLeft picks the serve direction.
func (m *MatchState) resetBall(toLeft bool) {
	m.BallX = protocol.FieldW / 2
	m.BallY = protocol.FieldH / 2
	m.BallVX = protocol.BallSpeed
	if toLeft {
		m.BallVX = -protocol.BallSpeed
	}
	m.BallVY = (rand.Float64()*2 - 1) * protocol.MaxBounceVY * 0.6
}

// Step advances the simulation by one tick. No-op once the match is over;
// the session stops ticking on its own, this is the backstop.
func (m *MatchState) Step() {
	if m.GameOver {
		return
	}

	// paddles
	for r := RoleLeft; r <= RoleRight; r++ {
		switch m.intents[r] {
		case DirUp:
			m.PaddleY[r] -= protocol.PaddleSpeed
		case DirDown:
			m.PaddleY[r] += protocol.PaddleSpeed
		}
		m.PaddleY[r] = clamp(m.PaddleY[r], 0, protocol.FieldH-protocol.PaddleH)
	}

	// ball
	m.BallX += m.BallVX
	m.BallY += m.BallVY

	// wall bounce
	if m.BallY < 0 {
		m.BallY = -m.BallY
		m.BallVY = -m.BallVY
	} else if m.BallY > protocol.FieldH {
		m.BallY = 2*protocol.FieldH - m.BallY
		m.BallVY = -m.BallVY
	}

	// paddle collision. Deflection angle comes from the hit offset rather
	// than real reflection physics; deliberate, keeps rallies playable.
	if m.BallVX < 0 && m.BallX-protocol.BallR <= protocol.PaddleW {
		if m.hit(RoleLeft) {
			m.BallX = protocol.PaddleW + protocol.BallR
			m.BallVX = -(m.BallVX - protocol.BallAccel) // reverse + speed up
			m.BallVY = m.deflect(RoleLeft)
		}
	} else if m.BallVX > 0 && m.BallX+protocol.BallR >= protocol.FieldW-protocol.PaddleW {
		if m.hit(RoleRight) {
			m.BallX = protocol.FieldW - protocol.PaddleW - protocol.BallR
			m.BallVX = -(m.BallVX + protocol.BallAccel)
			m.BallVY = m.deflect(RoleRight)
		}
	}

	// scoring
	if m.BallX < 0 {
		m.goalAgainst(RoleLeft)
	} else if m.BallX > protocol.FieldW {
		m.goalAgainst(RoleRight)
	}
}

func (m *MatchState) hit(r Role) bool {
	top := m.PaddleY[r]
	return m.BallY >= top && m.BallY <= top+protocol.PaddleH
}

func (m *MatchState) deflect(r Role) float64 {
	center := m.PaddleY[r] + protocol.PaddleH/2
	off := (m.BallY - center) / (protocol.PaddleH / 2) // [-1, 1]
	return clamp(off, -1, 1) * protocol.MaxBounceVY
}

func (m *MatchState) goalAgainst(conceder Role) {
	scorer := conceder.Other()
	m.Score[scorer]++
	if m.Score[scorer] >= m.WinScore {
		m.GameOver = true
		m.Winner = scorer
		return
	}
	// serve flips: horizontal direction reverses from its pre-reset sign
	m.resetBall(m.BallVX > 0)
}

// Forfeit force-scores the match for winner, bypassing normal play.
// It may run even after GameOver (disconnect racing a natural finish).
func (m *MatchState) Forfeit(winner Role) {
	m.Score[winner] = m.WinScore
	m.Score[winner.Other()] = 0
	m.GameOver = true
	m.Winner = winner
}

// Snapshot renders the state for the wire.
func (m *MatchState) Snapshot() protocol.State {
	s := protocol.State{
		LeftY:    m.PaddleY[RoleLeft],
		RightY:   m.PaddleY[RoleRight],
		BallX:    m.BallX,
		BallY:    m.BallY,
		Score:    m.Score,
		GameOver: m.GameOver,
	}
	if m.GameOver {
		s.Winner = m.Winner.String()
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
