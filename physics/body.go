package physics

import (
	"strings"

	"github.com/jakecoffman/cp"
)

// BodyKind is the closed set of body kinds. It is resolved once when a node is
// bound and stored on the body.
type BodyKind uint8

const (
	BodyDynamic BodyKind = iota + 1
	BodyStatic
	BodyKinematic
	BodyArea
)

func (k BodyKind) String() string {
	switch k {
	case BodyDynamic:
		return "dynamic"
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	case BodyArea:
		return "area"
	}
	return "none"
}

// ParseBodyKind maps an authored body-kind override to a BodyKind.
func ParseBodyKind(s string) (BodyKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic", "rigid":
		return BodyDynamic, true
	case "static":
		return BodyStatic, true
	case "kinematic", "character":
		return BodyKinematic, true
	case "area", "sensor":
		return BodyArea, true
	}
	return 0, false
}

// Transform is a node's placement. A zero Scale component reads as 1.
type Transform struct {
	Position cp.Vector
	Rotation float64
	Scale    cp.Vector
}

// Node is what the scene layer hands the World when binding.
type Node interface {
	NodeName() string
	// BodyKind reports the node's body kind, or false when the node is not
	// physics-eligible.
	BodyKind() (BodyKind, bool)
	Transform() Transform
	SetTransform(Transform)
	BodyConfig() BodyConfig
	ShapeDecls() []ShapeDecl
}

type body struct {
	handle Handle
	kind   BodyKind
	node   Node
	name   string
	cfg    BodyConfig
	cp     *cp.Body
	shapes []*shapeEntry

	// last transform read from or written to the node
	synced Transform

	contactFns []ContactFunc
	overlaps   map[Handle]int
}

type shapeEntry struct {
	id     uint64
	owner  *body
	index  int
	geom   geometry
	shape  *cp.Shape
	layer  uint32
	mask   uint32
	sensor bool
}

func (b *body) setTransform(pos cp.Vector, angle float64) {
	b.cp.SetPosition(pos)
	b.cp.SetAngle(angle)
	for _, s := range b.shapes {
		s.shape.CacheBB()
	}
}

func (b *body) transform() cp.Transform {
	return cp.NewTransformRigid(b.cp.Position(), b.cp.Angle())
}

// minExtent is the smallest extent across the body's shapes.
func (b *body) minExtent() float64 {
	ext := 0.0
	for i, s := range b.shapes {
		if i == 0 || s.geom.extent < ext {
			ext = s.geom.extent
		}
	}
	return ext
}

// Kind returns the kind of a live body.
func (w *World) Kind(h Handle) (BodyKind, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return 0, false
	}
	return b.kind, true
}

// Name returns the bound node's name.
func (w *World) Name(h Handle) (string, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return "", false
	}
	return b.name, true
}

// NodeOf returns the node a body is bound to.
func (w *World) NodeOf(h Handle) (Node, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return nil, false
	}
	return b.node, true
}

// BodyConfig returns the normalized configuration a body was built with.
func (w *World) BodyConfig(h Handle) (BodyConfig, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return BodyConfig{}, false
	}
	return b.cfg, true
}

// Position returns a body's world position.
func (w *World) Position(h Handle) (cp.Vector, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return cp.Vector{}, false
	}
	return b.cp.Position(), true
}

// Rotation returns a body's angle in radians.
func (w *World) Rotation(h Handle) (float64, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return 0, false
	}
	return b.cp.Angle(), true
}

// Velocity returns a body's linear velocity. Static bodies report zero.
func (w *World) Velocity(h Handle) (cp.Vector, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return cp.Vector{}, false
	}
	return b.cp.Velocity(), true
}

// SetVelocity sets the linear velocity of a Dynamic or Kinematic body. A
// Kinematic body keeps the value for scripts and the contact solver; it is
// not integrated into its position.
func (w *World) SetVelocity(h Handle, v cp.Vector) bool {
	b, ok := w.lookup(h)
	if !ok || !finiteVec(v) {
		return false
	}
	if b.kind != BodyDynamic && b.kind != BodyKinematic {
		return false
	}
	b.cp.SetVelocityVector(v)
	return true
}

// AngularVelocity returns a body's angular velocity.
func (w *World) AngularVelocity(h Handle) (float64, bool) {
	b, ok := w.lookup(h)
	if !ok {
		return 0, false
	}
	return b.cp.AngularVelocity(), true
}

// SetAngularVelocity sets the angular velocity of a Dynamic or Kinematic body.
func (w *World) SetAngularVelocity(h Handle, av float64) bool {
	b, ok := w.lookup(h)
	if !ok || !finite(av) || (b.kind != BodyDynamic && b.kind != BodyKinematic) {
		return false
	}
	b.cp.SetAngularVelocity(av)
	return true
}

// ApplyForce applies a world-space force at the centre of a Dynamic body.
func (w *World) ApplyForce(h Handle, force cp.Vector) bool {
	b, ok := w.dynamic(h)
	if !ok || !finiteVec(force) {
		return false
	}
	b.cp.ApplyForceAtWorldPoint(force, b.cp.Position())
	return true
}

// ApplyForceAt applies a world-space force at a world point.
func (w *World) ApplyForceAt(h Handle, force, point cp.Vector) bool {
	b, ok := w.dynamic(h)
	if !ok || !finiteVec(force) || !finiteVec(point) {
		return false
	}
	b.cp.ApplyForceAtWorldPoint(force, point)
	return true
}

// ApplyImpulse applies a world-space impulse at the centre of a Dynamic body.
func (w *World) ApplyImpulse(h Handle, impulse cp.Vector) bool {
	b, ok := w.dynamic(h)
	if !ok || !finiteVec(impulse) {
		return false
	}
	b.cp.ApplyImpulseAtWorldPoint(impulse, b.cp.Position())
	return true
}

// ApplyImpulseAt applies a world-space impulse at a world point.
func (w *World) ApplyImpulseAt(h Handle, impulse, point cp.Vector) bool {
	b, ok := w.dynamic(h)
	if !ok || !finiteVec(impulse) || !finiteVec(point) {
		return false
	}
	b.cp.ApplyImpulseAtWorldPoint(impulse, point)
	return true
}

// ApplyTorque adds torque to a Dynamic body for the next step.
func (w *World) ApplyTorque(h Handle, torque float64) bool {
	b, ok := w.dynamic(h)
	if !ok || !finite(torque) {
		return false
	}
	b.cp.SetTorque(b.cp.Torque() + torque)
	return true
}

func (w *World) dynamic(h Handle) (*body, bool) {
	b, ok := w.lookup(h)
	if !ok || b.kind != BodyDynamic {
		return nil, false
	}
	return b, true
}

// SetCollisionLayer replaces the layer and mask of a body and all its shapes.
func (w *World) SetCollisionLayer(h Handle, layer, mask uint32) bool {
	b, ok := w.lookup(h)
	if !ok {
		return false
	}
	b.cfg.Layer, b.cfg.Mask = layer, mask
	for _, s := range b.shapes {
		s.layer, s.mask = layer, mask
	}
	return true
}

// SetShapeLayer lets one shape diverge from its body's layer and mask.
func (w *World) SetShapeLayer(h Handle, shape int, layer, mask uint32) bool {
	b, ok := w.lookup(h)
	if !ok || shape < 0 || shape >= len(b.shapes) {
		return false
	}
	b.shapes[shape].layer, b.shapes[shape].mask = layer, mask
	return true
}

// ShapeLayer returns the layer and mask of one shape.
func (w *World) ShapeLayer(h Handle, shape int) (layer, mask uint32, ok bool) {
	b, found := w.lookup(h)
	if !found || shape < 0 || shape >= len(b.shapes) {
		return 0, 0, false
	}
	return b.shapes[shape].layer, b.shapes[shape].mask, true
}

// ShapeCount returns the number of shapes a body owns.
func (w *World) ShapeCount(h Handle) int {
	b, ok := w.lookup(h)
	if !ok {
		return 0
	}
	return len(b.shapes)
}

// Outlines returns world-space outlines of a body's shapes.
func (w *World) Outlines(h Handle) []Outline {
	b, ok := w.lookup(h)
	if !ok {
		return nil
	}
	t := b.transform()
	out := make([]Outline, 0, len(b.shapes))
	for _, s := range b.shapes {
		o := s.geom.outline(t)
		o.Sensor = s.sensor
		out = append(out, o)
	}
	return out
}
