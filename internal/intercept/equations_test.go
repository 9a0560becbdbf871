package intercept

import (
	"math"
	"testing"

	"github.com/verte-zerg/intercept/internal/model"
)

func TestProjectilePositionHorizontalAndVertical(t *testing.T) {
	x, y := ProjectilePosition(0, 2, 10, 9.81)
	if math.Abs(x-20) > 1e-12 {
		t.Fatalf("expected x=20 for horizontal launch, got %v", x)
	}
	if math.Abs(y-(-0.5*9.81*4)) > 1e-12 {
		t.Fatalf("expected free-fall drop, got y=%v", y)
	}

	x, y = ProjectilePosition(90, 1, 10, 10)
	if math.Abs(x) > 1e-12 {
		t.Fatalf("expected x=0 for vertical launch, got %v", x)
	}
	if math.Abs(y-5) > 1e-12 {
		t.Fatalf("expected y=5, got %v", y)
	}
}

func TestTargetPosition(t *testing.T) {
	x, y := TargetPosition(2, 10, 8, 8, -5)
	if x != 26 || y != -2 {
		t.Fatalf("unexpected target position (%v, %v)", x, y)
	}
}

func TestResidualIsProjectileMinusTarget(t *testing.T) {
	sc := model.Scenario{Speed: 15, TargetX: 10, TargetY: 8, TargetVX: 8, TargetVY: -5, Gravity: 9.81}
	thetas := []float64{-400, -90, 0, 12.5, 45, 85, 90, 181, 725}
	times := []float64{-3, -0.5, 0, 0.25, 1, 7.5}
	for _, theta := range thetas {
		for _, tt := range times {
			px, py := ProjectilePosition(theta, tt, sc.Speed, sc.Gravity)
			tx, ty := TargetPosition(tt, sc.TargetX, sc.TargetY, sc.TargetVX, sc.TargetVY)
			rx, ry := Residual(theta, tt, sc)
			if rx != px-tx || ry != py-ty {
				t.Fatalf("residual mismatch at theta=%v t=%v: got (%v, %v), want (%v, %v)", theta, tt, rx, ry, px-tx, py-ty)
			}
		}
	}
}

func TestResidualAtLaunchIsTargetOffset(t *testing.T) {
	sc := model.Scenario{Speed: 15, TargetX: 10, TargetY: 8, TargetVX: 8, TargetVY: -5, Gravity: 9.81}
	rx, ry := Residual(85, 0, sc)
	if rx != -10 || ry != -8 {
		t.Fatalf("expected (-10, -8) at t=0, got (%v, %v)", rx, ry)
	}
}
