package srv

import "math"

const eloK = 32

func eloExpected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/400))
}

// eloApply returns a's new rating and the signed delta.
// score is the actual result for a: 1 win, 0.5 draw, 0 loss.
func eloApply(ra, rb int, score float64) (newA, delta int) {
	d := int(math.Round(eloK * (score - eloExpected(ra, rb))))
	nr := ra + d
	if nr < 0 {
		nr = 0
	}
	if nr > 9999 {
		nr = 9999
	}
	return nr, d
}

func rankName(r int) string {
	switch {
	case r >= 2400:
		return "Grandmaster"
	case r >= 2200:
		return "Master"
	case r >= 2000:
		return "Diamond"
	case r >= 1800:
		return "Platinum"
	case r >= 1600:
		return "Gold"
	case r >= 1400:
		return "Silver"
	case r >= 1200:
		return "Bronze"
	default:
		return "Rookie"
	}
}
