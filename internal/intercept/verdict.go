package intercept

import (
	"math"

	"github.com/verte-zerg/intercept/internal/model"
)

// Verdict is the finer-grained outcome behind the valid/invalid flag.
type Verdict string

const (
	VerdictHit              Verdict = "hit"
	VerdictNonPositiveTime  Verdict = "non-positive-time"
	VerdictResidualExceeded Verdict = "residual-exceeded"
	VerdictNoConvergence    Verdict = "no-convergence"
)

// Valid reports whether the verdict is a hit.
func (v Verdict) Valid() bool {
	return v == VerdictHit
}

// Describe returns a short human-readable explanation.
func (v Verdict) Describe() string {
	switch v {
	case VerdictHit:
		return "projectile meets the target"
	case VerdictNonPositiveTime:
		return "root lies at or before launch time"
	case VerdictResidualExceeded:
		return "positions differ by more than the hit tolerance"
	case VerdictNoConvergence:
		return "root finder did not converge"
	default:
		return string(v)
	}
}

// Diagnose classifies (theta, t). The time check comes first, so a root at
// t <= 0 is reported as such even when its residual is within tolerance.
func Diagnose(thetaDeg, t float64, sc model.Scenario, tolerance float64) Verdict {
	if !(t > 0) {
		return VerdictNonPositiveTime
	}
	rx, ry := Residual(thetaDeg, t, sc)
	if !(math.Abs(rx) < tolerance) || !(math.Abs(ry) < tolerance) {
		return VerdictResidualExceeded
	}
	return VerdictHit
}

// ParseVerdict maps a stored verdict string back to a Verdict.
func ParseVerdict(s string) (Verdict, bool) {
	switch v := Verdict(s); v {
	case VerdictHit, VerdictNonPositiveTime, VerdictResidualExceeded, VerdictNoConvergence:
		return v, true
	default:
		return "", false
	}
}
