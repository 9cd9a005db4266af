package motion

import (
	"math"

	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/jakecoffman/cp"
)

const epsilon = 1e-9

// floorTolerance widens the floor and ceiling cones slightly so a surface at
// exactly the threshold angle still counts.
const floorTolerance = 0.01

// Config tunes one controller. FloorMaxAngle is in radians.
type Config struct {
	SafeMargin    float64
	FloorMaxAngle float64
	MaxSlides     int
	SnapDistance  float64
	Up            cp.Vector
}

// ConfigFor derives a controller config from a body's configuration, with
// up pointing along +Y.
func ConfigFor(bc physics.BodyConfig) Config {
	return Config{
		SafeMargin:    bc.SafeMargin,
		FloorMaxAngle: bc.FloorMaxAngleRadians(),
		MaxSlides:     bc.MaxSlides,
		SnapDistance:  bc.SnapDistance,
		Up:            cp.Vector{X: 0, Y: 1},
	}
}

func (c Config) normalized() Config {
	def := ConfigFor(physics.DefaultBodyConfig())
	if !(c.SafeMargin >= 0) {
		c.SafeMargin = def.SafeMargin
	}
	if !(c.FloorMaxAngle >= 0) || c.FloorMaxAngle > math.Pi/2 {
		c.FloorMaxAngle = def.FloorMaxAngle
	}
	if c.MaxSlides < 1 {
		c.MaxSlides = def.MaxSlides
	}
	if !(c.SnapDistance >= 0) {
		c.SnapDistance = def.SnapDistance
	}
	l := c.Up.Length()
	if !(l > epsilon) || math.IsInf(l, 0) {
		c.Up = def.Up
	} else {
		c.Up = c.Up.Mult(1 / l)
	}
	return c
}

// Collision is the result of a blocked move. Normal points away from the
// struck surface.
type Collision struct {
	Body      physics.Handle
	Shape     int
	Point     cp.Vector
	Normal    cp.Vector
	Travel    cp.Vector
	Remainder cp.Vector
}

// SlideResult is what MoveAndSlide computed. Remaining is the unconsumed
// motion as a per-second rate; Velocity is the input velocity with every
// component driving into a struck surface removed.
type SlideResult struct {
	Remaining   cp.Vector
	Velocity    cp.Vector
	OnFloor     bool
	OnWall      bool
	OnCeiling   bool
	FloorNormal cp.Vector
	WallNormal  cp.Vector
	Slides      int
	Collisions  []Collision
}

// Controller resolves motion for one Kinematic body. Only the contact flags
// and normals persist between calls.
type Controller struct {
	world  *physics.World
	handle physics.Handle
	cfg    Config

	onFloor, onWall, onCeiling bool
	floorNormal, wallNormal    cp.Vector
	collisions                 []Collision
}

// New returns a controller configured from the body's own settings. A
// missing world or body yields a controller whose calls are no-ops.
func New(world *physics.World, h physics.Handle) *Controller {
	bc, ok := world.BodyConfig(h)
	if !ok {
		bc = physics.DefaultBodyConfig()
	}
	return NewWithConfig(world, h, ConfigFor(bc))
}

// NewWithConfig returns a controller with an explicit config.
func NewWithConfig(world *physics.World, h physics.Handle, cfg Config) *Controller {
	return &Controller{world: world, handle: h, cfg: cfg.normalized()}
}

func (c *Controller) Handle() physics.Handle { return c.handle }
func (c *Controller) Config() Config         { return c.cfg }

// SetConfig replaces the controller's tuning.
func (c *Controller) SetConfig(cfg Config) {
	c.cfg = cfg.normalized()
}

func (c *Controller) IsOnFloor() bool          { return c.onFloor }
func (c *Controller) IsOnWall() bool           { return c.onWall }
func (c *Controller) IsOnCeiling() bool        { return c.onCeiling }
func (c *Controller) FloorNormal() cp.Vector   { return c.floorNormal }
func (c *Controller) WallNormal() cp.Vector    { return c.wallNormal }
func (c *Controller) Collisions() []Collision { return c.collisions }

// Valid reports whether motion calls will act on a live Kinematic body.
func (c *Controller) Valid() bool {
	if c == nil || c.world == nil {
		return false
	}
	kind, ok := c.world.Kind(c.handle)
	return ok && kind == physics.BodyKinematic
}

// Velocity returns the body's stored velocity.
func (c *Controller) Velocity() cp.Vector {
	if c == nil || c.world == nil {
		return cp.Vector{}
	}
	v, _ := c.world.Velocity(c.handle)
	return v
}

// SetVelocity stores a velocity on the body.
func (c *Controller) SetVelocity(v cp.Vector) bool {
	if !c.Valid() {
		return false
	}
	return c.world.SetVelocity(c.handle, v)
}

// Position returns the body's position.
func (c *Controller) Position() cp.Vector {
	if c == nil || c.world == nil {
		return cp.Vector{}
	}
	p, _ := c.world.Position(c.handle)
	return p
}

// MoveAndCollide moves the body by delta, stopping at the first obstacle and
// keeping the configured safe margin from it.
func (c *Controller) MoveAndCollide(delta cp.Vector) (Collision, bool) {
	if !c.Valid() {
		return Collision{}, false
	}
	return c.moveAndCollide(delta, c.cfg.SafeMargin)
}

func (c *Controller) moveAndCollide(delta cp.Vector, margin float64) (Collision, bool) {
	if !finiteVec(delta) {
		return Collision{}, false
	}
	recovered := c.recover(margin)
	if delta.LengthSq() < epsilon*epsilon {
		return Collision{}, false
	}

	hit, ok := c.world.TestMove(c.handle, delta)
	if !ok {
		c.world.Translate(c.handle, delta)
		return Collision{}, false
	}

	travel := delta.Mult(hit.Distance)
	if margin > 0 {
		pulled := travel.Add(hit.Normal.Mult(margin))
		if c.free(c.Position().Add(pulled)) {
			travel = pulled
		}
	}
	c.world.Translate(c.handle, travel)
	return c.collision(hit, recovered.Add(travel), delta.Mult(1-hit.Distance)), true
}

// recover pushes the body out of an overlap it starts in, when the spot
// depth+margin along the overlap normal is free.
func (c *Controller) recover(margin float64) cp.Vector {
	pos := c.Position()
	over, stuck := c.world.TestOverlap(c.handle, pos)
	if !stuck || !(over.Depth > 0) {
		return cp.Vector{}
	}
	push := over.Normal.Mult(over.Depth + margin)
	if !c.free(pos.Add(push)) {
		return cp.Vector{}
	}
	c.world.Translate(c.handle, push)
	return push
}

func (c *Controller) collision(hit physics.Hit, travel, remainder cp.Vector) Collision {
	return Collision{
		Body:      hit.Body,
		Shape:     hit.Shape,
		Point:     hit.Point,
		Normal:    hit.Normal,
		Travel:    travel,
		Remainder: remainder,
	}
}

func (c *Controller) free(pos cp.Vector) bool {
	_, blocked := c.world.TestOverlap(c.handle, pos)
	return !blocked
}

// MoveAndSlide moves the body by velocity*dt, sliding along every surface it
// meets for at most MaxSlides iterations. The floor, wall and ceiling flags
// are recomputed from scratch on every call.
func (c *Controller) MoveAndSlide(velocity cp.Vector, dt float64) SlideResult {
	if c == nil {
		return SlideResult{}
	}
	c.onFloor, c.onWall, c.onCeiling = false, false, false
	c.floorNormal, c.wallNormal = cp.Vector{}, cp.Vector{}
	c.collisions = nil
	if !c.Valid() || !(dt > 0) || math.IsInf(dt, 0) || !finiteVec(velocity) {
		return SlideResult{}
	}

	res := SlideResult{Velocity: velocity}
	remaining := velocity.Mult(dt)
	for res.Slides < c.cfg.MaxSlides {
		if remaining.LengthSq() < epsilon*epsilon {
			remaining = cp.Vector{}
			break
		}
		res.Slides++
		col, hit := c.moveAndCollide(remaining, c.cfg.SafeMargin)
		if !hit {
			remaining = cp.Vector{}
			break
		}
		c.collisions = append(c.collisions, col)
		c.classify(col.Normal)

		n := col.Normal
		remaining = col.Remainder.Sub(n.Mult(col.Remainder.Dot(n)))
		if d := res.Velocity.Dot(n); d < 0 {
			res.Velocity = res.Velocity.Sub(n.Mult(d))
		}
	}

	res.Remaining = remaining.Mult(1 / dt)
	res.OnFloor, res.OnWall, res.OnCeiling = c.onFloor, c.onWall, c.onCeiling
	res.FloorNormal, res.WallNormal = c.floorNormal, c.wallNormal
	res.Collisions = c.collisions
	return res
}

// MoveAndSlideStored slides with the body's stored velocity and stores the
// slid velocity back.
func (c *Controller) MoveAndSlideStored(dt float64) SlideResult {
	res := c.MoveAndSlide(c.Velocity(), dt)
	if c.Valid() && dt > 0 {
		c.world.SetVelocity(c.handle, res.Velocity)
	}
	return res
}

func (c *Controller) classify(n cp.Vector) {
	switch {
	case c.isFloor(n):
		c.onFloor = true
		c.floorNormal = n
	case angleBetween(n, c.cfg.Up.Neg()) <= c.cfg.FloorMaxAngle+floorTolerance:
		c.onCeiling = true
	default:
		c.onWall = true
		c.wallNormal = n
	}
}

func (c *Controller) isFloor(n cp.Vector) bool {
	return angleBetween(n, c.cfg.Up) <= c.cfg.FloorMaxAngle+floorTolerance
}

// ApplyFloorSnap closes a small gap between the body and the floor below it.
// It acts only when the last MoveAndSlide ended on the floor, and never
// changes velocity or flags.
func (c *Controller) ApplyFloorSnap(snapDistance float64) bool {
	if !c.Valid() || !c.onFloor || !(snapDistance > 0) || math.IsInf(snapDistance, 0) {
		return false
	}
	down := c.cfg.Up.Neg().Mult(snapDistance)
	hit, ok := c.world.TestMove(c.handle, down)
	if !ok || !c.isFloor(hit.Normal) {
		return false
	}
	// the cast only locates the floor to within its resolution, so a
	// body already at the margin must not creep further down
	move := hit.Distance*snapDistance - c.cfg.SafeMargin
	if move <= c.world.CastResolution(snapDistance) {
		return false
	}
	return c.world.Translate(c.handle, c.cfg.Up.Neg().Mult(move))
}

// Snap applies ApplyFloorSnap with the configured snap distance.
func (c *Controller) Snap() bool {
	return c.ApplyFloorSnap(c.cfg.SnapDistance)
}

func angleBetween(a, b cp.Vector) float64 {
	la, lb := a.Length(), b.Length()
	if la < epsilon || lb < epsilon {
		return math.Pi
	}
	return math.Acos(cp.Clamp(a.Dot(b)/(la*lb), -1, 1))
}

func finiteVec(v cp.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
