package motion

import (
	"math"
	"testing"

	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/jakecoffman/cp"
)

type node struct {
	name   string
	kind   physics.BodyKind
	t      physics.Transform
	cfg    physics.BodyConfig
	shapes []physics.ShapeDecl
}

func (n *node) NodeName() string                   { return n.name }
func (n *node) BodyKind() (physics.BodyKind, bool) { return n.kind, true }
func (n *node) Transform() physics.Transform       { return n.t }
func (n *node) SetTransform(t physics.Transform)   { n.t = t }
func (n *node) BodyConfig() physics.BodyConfig     { return n.cfg }
func (n *node) ShapeDecls() []physics.ShapeDecl    { return n.shapes }

func add(t *testing.T, w *physics.World, name string, kind physics.BodyKind, pos cp.Vector, shape physics.ShapeDecl) physics.Handle {
	t.Helper()
	h, err := w.AddNode(&node{
		name:   name,
		kind:   kind,
		t:      physics.Transform{Position: pos, Scale: cp.Vector{X: 1, Y: 1}},
		cfg:    physics.DefaultBodyConfig(),
		shapes: []physics.ShapeDecl{shape},
	})
	if err != nil {
		t.Fatalf("AddNode(%s): %v", name, err)
	}
	return h
}

// room is a floor whose top is y=0 and a wall whose left face is x=90.
func room(t *testing.T) *physics.World {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	add(t, w, "floor", physics.BodyStatic, cp.Vector{Y: -10}, physics.Rect(400, 20))
	add(t, w, "wall", physics.BodyStatic, cp.Vector{X: 100, Y: 100}, physics.Rect(20, 200))
	return w
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestFallingOntoFloor(t *testing.T) {
	w := room(t)
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{Y: 50}, physics.Rect(16, 16))
	c := New(w, h)

	const dt = 1.0 / 60
	gravity := w.Gravity()
	var vel cp.Vector
	var res SlideResult
	for i := 0; i < 120; i++ {
		vel = vel.Add(gravity.Mult(dt))
		res = c.MoveAndSlide(vel, dt)
		vel = res.Velocity
	}

	if !res.OnFloor || !c.IsOnFloor() {
		t.Fatalf("expected on_floor after landing")
	}
	if res.OnWall || res.OnCeiling {
		t.Fatalf("unexpected flags wall=%v ceiling=%v", res.OnWall, res.OnCeiling)
	}
	if !near(res.Velocity.Y, 0, 1e-3) || !near(res.Remaining.Y, 0, 1e-3) {
		t.Fatalf("vertical velocity should be absorbed, got velocity %v remaining %v", res.Velocity, res.Remaining)
	}
	if !near(c.FloorNormal().Y, 1, 1e-3) {
		t.Fatalf("floor normal = %v", c.FloorNormal())
	}
	pos := c.Position()
	if pos.Y < 8 || pos.Y > 8.2 {
		t.Fatalf("player should rest a safe margin above the floor, at %v", pos)
	}
}

func TestMoveAndCollideKeepsMargin(t *testing.T) {
	w := room(t)
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{Y: 50}, physics.Rect(16, 16))
	c := New(w, h)

	col, hit := c.MoveAndCollide(cp.Vector{X: 200})
	if !hit {
		t.Fatalf("expected to hit the wall")
	}
	if !near(col.Normal.X, -1, 1e-3) {
		t.Fatalf("normal = %v", col.Normal)
	}
	pos := c.Position()
	// right edge stops safe_margin short of x=90
	if !near(pos.X, 82-0.08, 1e-2) {
		t.Fatalf("stopped at %v", pos)
	}
	if !near(col.Remainder.X, 118, 1e-2) {
		t.Fatalf("remainder = %v", col.Remainder)
	}
	if _, stuck := w.TestOverlap(h, pos); stuck {
		t.Fatalf("body ended inside the wall")
	}

	if _, hit := c.MoveAndCollide(cp.Vector{X: -20}); hit {
		t.Fatalf("moving away from the wall should be free")
	}
}

func TestConcaveCornerTerminates(t *testing.T) {
	w := room(t)
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{X: 80, Y: 10}, physics.Rect(16, 16))
	c := New(w, h)

	for i := 0; i < 10; i++ {
		res := c.MoveAndSlide(cp.Vector{X: 600, Y: -600}, 1.0/60)
		if res.Slides > c.Config().MaxSlides {
			t.Fatalf("slides %d exceeded max %d", res.Slides, c.Config().MaxSlides)
		}
	}
	if !c.IsOnFloor() || !c.IsOnWall() {
		t.Fatalf("expected floor and wall contact, floor=%v wall=%v", c.IsOnFloor(), c.IsOnWall())
	}
	if !near(c.WallNormal().X, -1, 1e-3) {
		t.Fatalf("wall normal = %v", c.WallNormal())
	}
	pos := c.Position()
	if pos.X > 82 || pos.Y < 8 {
		t.Fatalf("player pushed into the corner at %v", pos)
	}
	if _, stuck := w.TestOverlap(h, pos); stuck {
		t.Fatalf("player overlaps the corner")
	}
}

func TestCeilingAndWallClassification(t *testing.T) {
	w, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	add(t, w, "ceiling", physics.BodyStatic, cp.Vector{Y: 110}, physics.Rect(400, 20))
	// 30 degree ramp rising to the right
	add(t, w, "ramp", physics.BodyStatic, cp.Vector{}, physics.Polygon(
		cp.Vector{X: -200, Y: -100},
		cp.Vector{X: 200, Y: -100},
		cp.Vector{X: 200, Y: -100 + 400*math.Tan(math.Pi/6)},
	))
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{Y: 80}, physics.Circle(8))
	c := New(w, h)

	res := c.MoveAndSlide(cp.Vector{Y: 1200}, 1.0/60)
	if !res.OnCeiling || res.OnFloor || res.OnWall {
		t.Fatalf("expected ceiling only, got %+v", res)
	}

	cfg := c.Config()
	cfg.FloorMaxAngle = 20 * math.Pi / 180
	c.SetConfig(cfg)
	for i := 0; i < 20 && !c.IsOnWall(); i++ {
		c.MoveAndSlide(cp.Vector{Y: -1200}, 1.0/60)
	}
	if !c.IsOnWall() || c.IsOnFloor() {
		t.Fatalf("30 degree slope should be a wall under a 20 degree floor limit")
	}
}

func TestApplyFloorSnap(t *testing.T) {
	w := room(t)
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{Y: 8.5}, physics.Rect(16, 16))
	c := New(w, h)

	if c.ApplyFloorSnap(4) {
		t.Fatalf("snap must not act before a slide reports the floor")
	}
	res := c.MoveAndSlide(cp.Vector{Y: -60}, 1.0/60)
	if !res.OnFloor {
		t.Fatalf("expected to land")
	}

	w.Translate(h, cp.Vector{Y: 2})
	vel := c.Velocity()
	if !c.ApplyFloorSnap(4) {
		t.Fatalf("expected snap to close a 2px gap")
	}
	if got := c.Position().Y; !near(got, 8.08, 1e-2) {
		t.Fatalf("snapped to y=%v, want about 8.08", got)
	}
	settled := c.Position()
	for i := 0; i < 4; i++ {
		if c.ApplyFloorSnap(4) {
			t.Fatalf("snap %d after settling moved the body", i+2)
		}
	}
	if c.Position() != settled {
		t.Fatalf("repeated snaps drifted from %v to %v", settled, c.Position())
	}
	if c.Velocity() != vel || !c.IsOnFloor() {
		t.Fatalf("snap must not change velocity or flags")
	}

	w.Translate(h, cp.Vector{Y: 10})
	if c.ApplyFloorSnap(4) {
		t.Fatalf("snap must not reach a floor beyond the snap distance")
	}
}

func TestRecoversFromStartingOverlap(t *testing.T) {
	w := room(t)
	// sunk 2px into the floor
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{Y: 6}, physics.Rect(16, 16))
	c := New(w, h)

	if _, hit := c.MoveAndCollide(cp.Vector{X: 5}); hit {
		t.Fatalf("sideways move after recovery should be free")
	}
	pos := c.Position()
	if !near(pos.Y, 8.08, 1e-2) || !near(pos.X, 5, 1e-6) {
		t.Fatalf("expected recovery out of the floor, at %v", pos)
	}
}

func TestNonKinematicAndMissing(t *testing.T) {
	w := room(t)
	crate := add(t, w, "crate", physics.BodyDynamic, cp.Vector{Y: 50}, physics.Rect(16, 16))

	cases := []struct {
		name string
		c    *Controller
	}{
		{"dynamic_body", New(w, crate)},
		{"stale_handle", New(w, physics.Handle(999))},
		{"nil_world", New(nil, crate)},
		{"nil_controller", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, hit := tc.c.MoveAndCollide(cp.Vector{X: 10}); hit {
				t.Fatalf("MoveAndCollide should be a no-op")
			}
			if res := tc.c.MoveAndSlide(cp.Vector{X: 10}, 1.0/60); res.Slides != 0 || res.Velocity != (cp.Vector{}) {
				t.Fatalf("MoveAndSlide should return a zero result, got %+v", res)
			}
			if tc.c.ApplyFloorSnap(4) {
				t.Fatalf("ApplyFloorSnap should be a no-op")
			}
		})
	}
	if pos, _ := w.Position(crate); pos.X != 0 || pos.Y != 50 {
		t.Fatalf("dynamic body moved to %v", pos)
	}
}

func TestSet(t *testing.T) {
	w := room(t)
	h := add(t, w, "player", physics.BodyKinematic, cp.Vector{Y: 50}, physics.Rect(16, 16))
	wall := w.Bodies()[1]
	s := NewSet(w)

	a, ok := s.Get(h)
	if !ok {
		t.Fatalf("Get failed for kinematic body")
	}
	b, _ := s.Get(h)
	if a != b {
		t.Fatalf("Get should return the same controller")
	}
	if _, ok := s.Get(wall); ok {
		t.Fatalf("static bodies have no controller")
	}
	if err := w.RemoveNode(h); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if n := s.Prune(); n != 1 || s.Len() != 0 {
		t.Fatalf("Prune = %d, Len = %d", n, s.Len())
	}
}
