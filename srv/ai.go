package srv

import (
	"math/rand"
	"time"

	"github.com/42-Cursus-Ft-transcendence/Ft-transcendence-sub000/protocol"
)

// AI tuning bounds. Everything a difficulty value touches lerps between
// the easy end and the hard end of one of these pairs.
const (
	aiObserveEvery = time.Second
	aiMoveEvery    = 50 * time.Millisecond

	aiErrEasy = 70.0 // px of prediction noise at difficulty 0
	aiErrHard = 6.0

	aiReactEasy = 400 * time.Millisecond
	aiReactHard = 80 * time.Millisecond

	aiDeadzoneEasy = 28.0 // "close enough" stop threshold
	aiDeadzoneHard = 6.0

	aiPredictMaxSteps = 400
)

// botController drives one paddle of a session. It observes the ball on a
// deliberately coarse cadence (reaction latency) and moves on a fine one.
type botController struct {
	session    *Session
	role       Role
	difficulty float64

	targetY   float64 // desired paddle center
	actFrom   time.Time
	hasTarget bool
}

func newBotController(s *Session, role Role, difficulty float64) *botController {
	if difficulty < 0 {
		difficulty = 0
	}
	if difficulty > 1 {
		difficulty = 1
	}
	return &botController{
		session:    s,
		role:       role,
		difficulty: difficulty,
		targetY:    protocol.FieldH / 2,
	}
}

// start runs both cadences in one goroutine, cancelled by the session's
// stop channel like any other session timer.
func (b *botController) start() {
	go func() {
		observe := time.NewTicker(aiObserveEvery)
		move := time.NewTicker(aiMoveEvery)
		defer observe.Stop()
		defer move.Stop()
		b.observe()
		for {
			select {
			case <-b.session.stop:
				return
			case <-observe.C:
				b.observe()
			case <-move.C:
				b.move()
			}
		}
	}()
}

func (b *botController) lerp(easy, hard float64) float64 {
	return easy + (hard-easy)*b.difficulty
}

func (b *botController) observe() {
	s := b.session
	s.mu.Lock()
	ballY := s.game.BallY
	ballX := s.game.BallX
	vx := s.game.BallVX
	vy := s.game.BallVY
	s.mu.Unlock()

	towardUs := (b.role == RoleRight && vx > 0) || (b.role == RoleLeft && vx < 0)
	if !towardUs {
		// ball leaving: drift back to center with a little wobble
		b.targetY = protocol.FieldH/2 + (rand.Float64()*2-1)*20
	} else {
		y := predictIntercept(ballX, ballY, vx, vy, b.paddlePlane())
		errMag := b.lerp(aiErrEasy, aiErrHard)
		b.targetY = y + (rand.Float64()*2-1)*errMag
	}
	delay := time.Duration(b.lerp(float64(aiReactEasy), float64(aiReactHard)))
	b.actFrom = time.Now().Add(delay)
	b.hasTarget = true
}

func (b *botController) paddlePlane() float64 {
	if b.role == RoleLeft {
		return protocol.PaddleW + protocol.BallR
	}
	return protocol.FieldW - protocol.PaddleW - protocol.BallR
}

func (b *botController) move() {
	if !b.hasTarget || time.Now().Before(b.actFrom) {
		b.session.SetIntent(b.role, DirStop)
		return
	}
	s := b.session
	s.mu.Lock()
	center := s.game.PaddleY[b.role] + protocol.PaddleH/2
	s.mu.Unlock()

	deadzone := b.lerp(aiDeadzoneEasy, aiDeadzoneHard)
	switch {
	case center > b.targetY+deadzone:
		b.session.SetIntent(b.role, DirUp)
	case center < b.targetY-deadzone:
		b.session.SetIntent(b.role, DirDown)
	default:
		b.session.SetIntent(b.role, DirStop)
	}
}

// predictIntercept walks the ball forward, reflecting off the walls, until
// it reaches planeX. Iteration is bounded so a near-horizontal vx can't
// spin forever; on bailout it returns the last simulated y.
func predictIntercept(x, y, vx, vy, planeX float64) float64 {
	if vx == 0 {
		return y
	}
	for i := 0; i < aiPredictMaxSteps; i++ {
		x += vx
		y += vy
		if y < 0 {
			y = -y
			vy = -vy
		} else if y > protocol.FieldH {
			y = 2*protocol.FieldH - y
			vy = -vy
		}
		if (vx > 0 && x >= planeX) || (vx < 0 && x <= planeX) {
			break
		}
	}
	return clamp(y, 0, protocol.FieldH)
}
