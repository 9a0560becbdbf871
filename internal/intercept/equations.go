// Package intercept formulates and solves the projectile interception
// problem.
//
// A projectile leaves the origin with speed u at angle theta (degrees) and
// falls under gravity g. A target starts at (a, b) and moves with constant
// velocity (vx, vy), unaffected by gravity. A hit is a pair (theta, t) at
// which both bodies occupy the same point.
package intercept

import (
	"math"

	"github.com/verte-zerg/intercept/internal/model"
)

// ProjectilePosition returns the projectile position at time t for a launch
// at thetaDeg degrees with speed u under gravity g.
func ProjectilePosition(thetaDeg, t, u, g float64) (x, y float64) {
	theta := toRadians(thetaDeg)
	x = u * math.Cos(theta) * t
	y = u*math.Sin(theta)*t - 0.5*g*t*t
	return x, y
}

// TargetPosition returns the target position at time t.
func TargetPosition(t, a, b, vx, vy float64) (x, y float64) {
	return a + vx*t, b + vy*t
}

// Residual returns projectile position minus target position. It is defined
// for every real theta and t, including t <= 0.
func Residual(thetaDeg, t float64, sc model.Scenario) (rx, ry float64) {
	px, py := ProjectilePosition(thetaDeg, t, sc.Speed, sc.Gravity)
	tx, ty := TargetPosition(t, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY)
	return px - tx, py - ty
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
