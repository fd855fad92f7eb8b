package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/components"
)

const eps = 1e-9

func defaultBehavior() components.Behavior {
	return components.Behavior{
		Alignment:          0.2,
		Cohesion:           0.01,
		Separation:         0.1,
		PerceptionRadius:   60,
		SeparationDistance: 20,
		MaxSpeed:           1.0,
		MinSpeed:           0.5,
	}
}

func defaultStepParams() StepParams {
	return StepParams{
		HalfExtent: 200,
		Damping:    DefaultDamping,
		Attractor:  components.Attractor{Strength: 0.3, ForceCap: 0.02},
	}
}

func randomFlock(rng *rand.Rand, n int, half float64, b components.Behavior) []AgentState {
	agents := make([]AgentState, n)
	for i := range agents {
		agents[i] = AgentState{
			Pos: r3.Vec{
				X: (rng.Float64()*2 - 1) * half,
				Y: (rng.Float64()*2 - 1) * half,
				Z: (rng.Float64()*2 - 1) * half,
			},
			Vel: r3.Vec{
				X: rng.Float64() - 0.5,
				Y: rng.Float64() - 0.5,
				Z: rng.Float64() - 0.5,
			},
			Behavior: b,
		}
	}
	return agents
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func vecClose(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestUpdateAgentSpeedBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	// Dense flock so every rule fires
	agents := randomFlock(rng, 80, 40, defaultBehavior())
	p := defaultStepParams()
	all := allIndices(len(agents))

	for i := range agents {
		vel, pos := UpdateAgent(i, agents, all, p)
		speed := r3.Norm(vel)
		if speed < 0.5-eps || speed > 1.0+eps {
			t.Errorf("agent %d: speed %v outside [0.5, 1.0]", i, speed)
		}
		for _, c := range []float64{pos.X, pos.Y, pos.Z} {
			if c < -p.HalfExtent || c > p.HalfExtent {
				t.Errorf("agent %d: position %v outside world", i, pos)
			}
		}
	}
}

func TestUpdateAgentSpeedBoundNearAttractor(t *testing.T) {
	b := defaultBehavior()
	agents := []AgentState{
		{Pos: r3.Vec{X: 0.01}, Vel: r3.Vec{X: 1}, Behavior: b},
	}
	p := defaultStepParams()
	p.Attractor.Strength = 50

	vel, _ := UpdateAgent(0, agents, nil, p)
	if speed := r3.Norm(vel); speed > b.MaxSpeed+eps {
		t.Errorf("attractor pushed speed to %v, max is %v", speed, b.MaxSpeed)
	}
}

func TestWrapAxis(t *testing.T) {
	const half = 200.0
	const e = 0.25

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 12.5, 12.5},
		{"on positive face", half, half},
		{"on negative face", -half, -half},
		{"just past positive face", half + e, -half + e},
		{"just past negative face", -half - e, half - e},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapAxis(tt.in, half)
			if math.Abs(got-tt.want) > eps {
				t.Errorf("wrapAxis(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapPositionStaysInside(t *testing.T) {
	const half = 200.0
	for _, v := range []float64{-1e6, -1000.3, -401, -200.0001, 0, 200.0001, 401, 1000.3, 1e6} {
		got := WrapPosition(r3.Vec{X: v, Y: -v, Z: v / 2}, half)
		for _, c := range []float64{got.X, got.Y, got.Z} {
			if c < -half || c > half {
				t.Errorf("WrapPosition(%v) = %v, component outside [-%v, %v]", v, got, half, half)
			}
		}
	}
}

func TestLoneAgentMovesStraight(t *testing.T) {
	b := defaultBehavior()
	start := r3.Vec{X: 0.6, Y: 0.48, Z: 0} // speed 0.768...
	agents := []AgentState{{Pos: r3.Vec{X: 10, Y: 10, Z: 10}, Vel: start, Behavior: b}}
	p := defaultStepParams()
	p.Attractor.Strength = 0
	p.HalfExtent = 1e6

	dir := r3.Unit(start)
	speed := r3.Norm(start)

	for tick := 0; tick < 40; tick++ {
		vel, pos := UpdateAgent(0, agents, allIndices(1), p)

		want := math.Max(speed*p.Damping, b.MinSpeed)
		if got := r3.Norm(vel); math.Abs(got-want) > eps {
			t.Fatalf("tick %d: speed %v, want %v", tick, got, want)
		}
		if !vecClose(r3.Unit(vel), dir, 1e-12) {
			t.Fatalf("tick %d: direction changed to %v", tick, r3.Unit(vel))
		}
		if !vecClose(pos, r3.Add(agents[0].Pos, vel), eps) {
			t.Fatalf("tick %d: position %v did not advance by velocity", tick, pos)
		}

		speed = want
		agents[0].Pos, agents[0].Vel = pos, vel
	}

	if math.Abs(speed-b.MinSpeed) > eps {
		t.Errorf("expected speed to settle at min speed %v, got %v", b.MinSpeed, speed)
	}
}

func TestCoincidentAgentsStayFinite(t *testing.T) {
	b := defaultBehavior()
	same := r3.Vec{X: 5, Y: -3, Z: 1}
	agents := []AgentState{
		{Pos: same, Vel: r3.Vec{X: 0.5, Y: 0.1}, Behavior: b},
		{Pos: same, Vel: r3.Vec{X: -0.2, Y: 0.6}, Behavior: b},
	}

	for i := range agents {
		s := ComputeSteering(i, agents, allIndices(2))
		if s.SepCount != 0 {
			t.Errorf("agent %d: coincident pair counted for separation", i)
		}
		if s.Count != 1 {
			t.Errorf("agent %d: expected 1 neighbour, got %d", i, s.Count)
		}

		vel, pos := UpdateAgent(i, agents, allIndices(2), defaultStepParams())
		if !isFinite(vel) || !isFinite(pos) {
			t.Errorf("agent %d: non-finite result vel=%v pos=%v", i, vel, pos)
		}
	}
}

func TestSeparationAveragesOverSeparationCount(t *testing.T) {
	b := defaultBehavior()
	b.Alignment, b.Cohesion = 0, 0
	agents := []AgentState{
		{Pos: r3.Vec{}, Behavior: b},
		{Pos: r3.Vec{X: 10}, Behavior: b},  // inside separation distance
		{Pos: r3.Vec{X: -50}, Behavior: b}, // perceived but too far to separate
	}

	s := ComputeSteering(0, agents, allIndices(3))
	if s.Count != 2 || s.SepCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", s.Count, s.SepCount)
	}
	want := r3.Vec{X: -b.Separation}
	if !vecClose(s.Separation, want, eps) {
		t.Errorf("separation = %v, want %v", s.Separation, want)
	}
}

func TestNoNeighboursNoSteering(t *testing.T) {
	b := defaultBehavior()
	agents := []AgentState{
		{Pos: r3.Vec{}, Vel: r3.Vec{X: 1}, Behavior: b},
		{Pos: r3.Vec{X: 100}, Vel: r3.Vec{Y: 1}, Behavior: b},
	}
	s := ComputeSteering(0, agents, allIndices(2))
	if s.Count != 0 || s.SepCount != 0 {
		t.Fatalf("expected no neighbours, got %d/%d", s.Count, s.SepCount)
	}
	zero := r3.Vec{}
	if s.Alignment != zero || s.Cohesion != zero || s.Separation != zero {
		t.Errorf("expected zero steering, got %+v", s)
	}
}

func TestThreeAgentExactUpdate(t *testing.T) {
	b := components.Behavior{
		Alignment:          0.3,
		Cohesion:           0.05,
		Separation:         0.7,
		PerceptionRadius:   1000,
		SeparationDistance: 0,
		MaxSpeed:           100,
		MinSpeed:           0,
	}
	agents := []AgentState{
		{Pos: r3.Vec{X: 1, Y: 2, Z: 3}, Vel: r3.Vec{X: 0.5, Y: 0, Z: -0.1}, Behavior: b},
		{Pos: r3.Vec{X: -4, Y: 0, Z: 6}, Vel: r3.Vec{X: 0, Y: 0.3, Z: 0.2}, Behavior: b},
		{Pos: r3.Vec{X: 10, Y: -7, Z: 0}, Vel: r3.Vec{X: -0.4, Y: 0.1, Z: 0}, Behavior: b},
	}
	p := StepParams{
		HalfExtent: 1000,
		Damping:    1.0,
		Attractor:  components.Attractor{Strength: 0, ForceCap: 0.02},
	}

	for i := range agents {
		var meanVel, meanPos r3.Vec
		for j := range agents {
			if j == i {
				continue
			}
			meanVel = r3.Add(meanVel, r3.Scale(0.5, agents[j].Vel))
			meanPos = r3.Add(meanPos, r3.Scale(0.5, agents[j].Pos))
		}
		want := r3.Add(agents[i].Vel, r3.Add(
			r3.Scale(b.Alignment, r3.Sub(meanVel, agents[i].Vel)),
			r3.Scale(b.Cohesion, r3.Sub(meanPos, agents[i].Pos)),
		))

		vel, pos := UpdateAgent(i, agents, allIndices(3), p)
		if !vecClose(vel, want, 1e-12) {
			t.Errorf("agent %d: velocity %v, want %v", i, vel, want)
		}
		if !vecClose(pos, r3.Add(agents[i].Pos, want), 1e-12) {
			t.Errorf("agent %d: position %v, want %v", i, pos, r3.Add(agents[i].Pos, want))
		}
	}
}

func TestAttractorSingularity(t *testing.T) {
	a := components.Attractor{Position: r3.Vec{X: 1, Y: 2, Z: 3}, Strength: 0.3, ForceCap: 0.02}
	if f := AttractorForce(a, a.Position); f != (r3.Vec{}) {
		t.Errorf("expected zero force at the attractor, got %v", f)
	}

	vel := r3.Vec{X: 0.7}
	if got := Influence(a, a.Position, vel); got != vel {
		t.Errorf("velocity changed at the singularity: %v", got)
	}
}

func TestAttractorForceCapAndFalloff(t *testing.T) {
	a := components.Attractor{Strength: 0.3, ForceCap: 0.02}

	// Close in: raw magnitude 0.3/0.5 = 0.6, capped
	near := AttractorForce(a, r3.Vec{X: 0.5})
	if got := r3.Norm(near); math.Abs(got-0.02) > eps {
		t.Errorf("near force magnitude %v, want cap 0.02", got)
	}
	if near.X >= 0 {
		t.Errorf("force should point toward the attractor, got %v", near)
	}

	// Far out: magnitude strength/distance = 0.3/100
	far := AttractorForce(a, r3.Vec{Y: 100})
	if got := r3.Norm(far); math.Abs(got-0.003) > eps {
		t.Errorf("far force magnitude %v, want 0.003", got)
	}

	// Negative strength repels
	a.Strength = -0.3
	rep := AttractorForce(a, r3.Vec{Y: 100})
	if rep.Y <= 0 {
		t.Errorf("negative strength should push away, got %v", rep)
	}
}

func TestClampLength(t *testing.T) {
	tests := []struct {
		name     string
		in       r3.Vec
		min, max float64
		wantLen  float64
	}{
		{"too fast", r3.Vec{X: 3, Y: 4}, 0.5, 1, 1},
		{"too slow", r3.Vec{X: 0.03, Y: 0.04}, 0.5, 1, 0.5},
		{"in range", r3.Vec{X: 0.6}, 0.5, 1, 0.6},
		{"zero stays zero", r3.Vec{}, 0.5, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampLength(tt.in, tt.min, tt.max)
			if l := r3.Norm(got); math.Abs(l-tt.wantLen) > eps {
				t.Errorf("length %v, want %v", l, tt.wantLen)
			}
		})
	}
}

func TestNonFiniteSteeringFallsBack(t *testing.T) {
	b := defaultBehavior()
	b.Cohesion = math.MaxFloat64
	b.PerceptionRadius = 1e308
	agents := []AgentState{
		{Pos: r3.Vec{X: -1e300}, Vel: r3.Vec{X: 0.7}, Behavior: b},
		{Pos: r3.Vec{X: 1e300}, Vel: r3.Vec{X: 0.7}, Behavior: b},
	}
	p := defaultStepParams()
	p.Attractor.Strength = 0

	vel, _ := UpdateAgent(0, agents, allIndices(2), p)
	if !isFinite(vel) {
		t.Errorf("expected finite velocity, got %v", vel)
	}
}

func TestAttractorExtremeInputsStayFinite(t *testing.T) {
	strengths := []float64{1e308, -1e308, 0.3, -0.3, math.SmallestNonzeroFloat64}
	offsets := []float64{0.5, 4e-155, 1e-300, math.SmallestNonzeroFloat64, 1e300}

	for _, s := range strengths {
		for _, d := range offsets {
			a := components.Attractor{Position: r3.Vec{X: d}, Strength: s, ForceCap: 0.02}
			f := AttractorForce(a, r3.Vec{})
			if !isFinite(f) {
				t.Fatalf("strength %g offset %g: force %v not finite", s, d, f)
			}
			if n := r3.Norm(f); n > a.ForceCap+eps {
				t.Errorf("strength %g offset %g: force magnitude %v above cap", s, d, n)
			}
			if s > 0 && f.X < 0 || s < 0 && f.X > 0 {
				t.Errorf("strength %g offset %g: force %v points the wrong way", s, d, f)
			}
		}
	}
}

func TestUpdateAgentExtremeAttractor(t *testing.T) {
	tests := []struct {
		name     string
		strength float64
		offset   float64
	}{
		{"huge pull close", 1e308, 0.5},
		{"huge push close", -1e308, 0.5},
		{"huge pull denormal", 1e308, 4e-155},
		{"huge push tiny", -1e308, 1e-300},
		{"default denormal", 0.3, 4e-155},
		{"default tiny", 0.3, 1e-300},
	}

	for _, tt := range tests {
		for _, start := range []r3.Vec{{}, {X: 0.7}, {Y: -0.6, Z: 0.2}} {
			t.Run(tt.name, func(t *testing.T) {
				b := defaultBehavior()
				agents := []AgentState{{Vel: start, Behavior: b}}
				p := defaultStepParams()
				p.Attractor.Strength = tt.strength
				// The lone agent moves by its damped velocity; put the
				// attractor just beside where it lands.
				landing := WrapPosition(ClampLength(r3.Scale(p.Damping, start), b.MinSpeed, b.MaxSpeed), p.HalfExtent)
				p.Attractor.Position = r3.Add(landing, r3.Vec{X: tt.offset})

				vel, pos := UpdateAgent(0, agents, allIndices(1), p)
				if !isFinite(vel) || !isFinite(pos) {
					t.Fatalf("start %v: vel %v pos %v not finite", start, vel, pos)
				}
				speed := r3.Norm(vel)
				if speed < b.MinSpeed-eps || speed > b.MaxSpeed+eps {
					t.Errorf("start %v: speed %v outside [%v, %v]", start, speed, b.MinSpeed, b.MaxSpeed)
				}
			})
		}
	}
}

func TestCorruptAgentRecovers(t *testing.T) {
	b := defaultBehavior()
	nan := math.NaN()
	agents := []AgentState{{
		Pos:      r3.Vec{X: nan, Y: 1, Z: 2},
		Vel:      r3.Vec{X: math.Inf(1), Y: nan},
		Behavior: b,
	}}
	p := defaultStepParams()
	p.Attractor.Position = r3.Vec{X: 50}

	vel, pos := UpdateAgent(0, agents, allIndices(1), p)
	if !isFinite(vel) || !isFinite(pos) {
		t.Fatalf("vel %v pos %v not finite", vel, pos)
	}
	if speed := r3.Norm(vel); speed > b.MaxSpeed+eps {
		t.Errorf("speed %v above max %v", speed, b.MaxSpeed)
	}
}
