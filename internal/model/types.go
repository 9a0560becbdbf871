// Package model defines shared data structures.
package model

import "time"

// Scenario holds the fixed parameters of one interception problem.
// Distances are in metres, velocities in m/s and acceleration in m/s².
type Scenario struct {
	Speed    float64 // projectile launch speed u
	TargetX  float64 // target start position a
	TargetY  float64 // target start position b
	TargetVX float64
	TargetVY float64
	Gravity  float64 // acts on the projectile only
}

// Guess is the starting point of the root finder.
type Guess struct {
	ThetaDeg float64
	T        float64
}

// Solution is the raw output of a solve. ThetaDeg is not normalized and T
// is not clamped; Valid reports whether the pair is a physical hit.
type Solution struct {
	ThetaDeg float64
	T        float64
	Valid    bool
}

// Sample is a single point on a sampled path.
type Sample struct {
	T float64
	X float64
	Y float64
}

// Trajectory holds sampled paths for both bodies over [0, TEnd].
type Trajectory struct {
	Projectile []Sample
	Target     []Sample
	TEnd       float64
	Fallback   bool // TEnd is the ballistic flight time, not the hit time
}

// Iteration records one step of the root finder.
type Iteration struct {
	Index    int
	ThetaDeg float64
	T        float64
	Norm     float64 // residual norm before the step
	Damping  float64 // line search factor applied to the Newton step
}

// Config defines solve settings after merging flags and the config file.
type Config struct {
	Scenario      Scenario
	Guess         Guess
	Tolerance     float64
	MaxIterations int
	Samples       int
	Strict        bool
}

// HistoryConfig defines filters for listing stored runs.
type HistoryConfig struct {
	Verdict string
	Since   *time.Time
	Last    int
}

// RunRecord is a persisted solve.
type RunRecord struct {
	ID         int64
	Ref        string
	SolvedAt   time.Time
	Scenario   Scenario
	Guess      Guess
	Tolerance  float64
	ThetaDeg   float64
	T          float64
	Valid      bool
	Verdict    string
	Iterations int
	ResidualX  float64
	ResidualY  float64
}
