package physics

import (
	"fmt"
	"log"
	"math"

	"github.com/jakecoffman/cp"
)

const collisionTypeBody cp.CollisionType = 1

// World owns the simulation space and the registry of bound bodies.
type World struct {
	cfg   Config
	space *cp.Space

	handles handleStore
	slots   []*body
	order   []*body

	nextShapeID uint64
	accepted    map[pairKey]struct{}

	contactFns []ContactFunc
	areaFns    []AreaFunc

	deferred []func(*World)
	warnings []ConstructionWarning
	locked   int
}

// NewWorld creates a world. It fails only when cfg is unusable.
func NewWorld(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	space := cp.NewSpace()
	if space == nil {
		return nil, fmt.Errorf("%w: could not create space", ErrMissingWorld)
	}
	space.Iterations = uint(cfg.Iterations)
	space.SetGravity(cfg.Gravity)
	space.SetDamping(cfg.Damping)

	w := &World{
		cfg:      cfg,
		space:    space,
		accepted: make(map[pairKey]struct{}),
	}
	w.setupHandlers()
	return w, nil
}

// Config returns the settings the world was created with, with the current gravity.
func (w *World) Config() Config {
	if w == nil {
		return Config{}
	}
	cfg := w.cfg
	cfg.Gravity = w.space.Gravity()
	return cfg
}

// SetGravity replaces the world gravity.
func (w *World) SetGravity(g cp.Vector) {
	if w == nil || !finiteVec(g) {
		return
	}
	w.space.SetGravity(g)
}

// Gravity returns the world gravity.
func (w *World) Gravity() cp.Vector {
	if w == nil {
		return cp.Vector{}
	}
	return w.space.Gravity()
}

// Stepping reports whether the world is inside Step or a callback dispatch.
func (w *World) Stepping() bool {
	return w != nil && w.locked > 0
}

// AddNode builds and registers a body for n. Nodes that are not
// physics-eligible return a zero handle and no error.
func (w *World) AddNode(n Node) (Handle, error) {
	if w == nil {
		return 0, ErrMissingWorld
	}
	if n == nil {
		return 0, nil
	}
	if w.locked > 0 {
		return 0, ErrWorldLocked
	}
	kind, ok := n.BodyKind()
	if !ok {
		return 0, nil
	}
	name := n.NodeName()

	cfg, notes := n.BodyConfig().Normalize()
	for _, note := range notes {
		w.warn(ConstructionWarning{Node: name, Shape: -1, Message: note})
	}

	t := n.Transform()
	if !finiteVec(t.Position) {
		w.warn(ConstructionWarning{Node: name, Shape: -1, Message: "non-finite position reset to origin"})
		t.Position = cp.Vector{}
	}
	if !finite(t.Rotation) {
		t.Rotation = 0
	}

	decls := n.ShapeDecls()
	geoms := make([]geometry, 0, len(decls))
	for i, decl := range decls {
		g, msg := resolveShape(decl, t.Scale)
		if msg != "" {
			w.warn(ConstructionWarning{Node: name, Shape: i, Message: msg})
		}
		geoms = append(geoms, g)
	}

	var cpBody *cp.Body
	switch kind {
	case BodyDynamic:
		cpBody = cp.NewBody(cfg.Mass, bodyMoment(cfg, geoms))
		if cfg.GravityScale != 1 {
			scale := cfg.GravityScale
			cpBody.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
				cp.BodyUpdateVelocity(body, gravity.Mult(scale), damping, dt)
			})
		}
	case BodyStatic:
		cpBody = cp.NewStaticBody()
	default:
		cpBody = cp.NewKinematicBody()
		cpBody.SetPositionUpdateFunc(func(body *cp.Body, dt float64) {})
	}
	cpBody.SetPosition(t.Position)
	cpBody.SetAngle(t.Rotation)

	h := w.handles.create()
	b := &body{
		handle: h,
		kind:   kind,
		node:   n,
		name:   name,
		cfg:    cfg,
		cp:     cpBody,
		synced: t,
	}
	cpBody.UserData = b
	if kind == BodyArea {
		b.overlaps = make(map[Handle]int)
	}

	w.space.AddBody(cpBody)
	for i, g := range geoms {
		shape := g.build(cpBody)
		shape.SetFriction(cfg.Friction)
		shape.SetElasticity(cfg.Restitution)
		shape.SetCollisionType(collisionTypeBody)
		shape.SetSensor(kind == BodyArea)
		w.nextShapeID++
		entry := &shapeEntry{
			id:     w.nextShapeID,
			owner:  b,
			index:  i,
			geom:   g,
			shape:  shape,
			layer:  cfg.Layer,
			mask:   cfg.Mask,
			sensor: kind == BodyArea,
		}
		shape.UserData = entry
		w.space.AddShape(shape)
		b.shapes = append(b.shapes, entry)
	}

	idx := int(h.index())
	for len(w.slots) < idx {
		w.slots = append(w.slots, nil)
	}
	w.slots[idx-1] = b
	w.order = append(w.order, b)
	return h, nil
}

func bodyMoment(cfg BodyConfig, geoms []geometry) float64 {
	if cfg.FixedRotation {
		return math.Inf(1)
	}
	if len(geoms) == 0 {
		return cp.MomentForBox(cfg.Mass, DefaultBoxSize, DefaultBoxSize)
	}
	share := cfg.Mass / float64(len(geoms))
	moment := 0.0
	for _, g := range geoms {
		moment += g.moment(share)
	}
	if !(moment > 0) || math.IsInf(moment, 0) {
		return cp.MomentForBox(cfg.Mass, DefaultBoxSize, DefaultBoxSize)
	}
	return moment
}

// RemoveNode destroys a body and all its shapes. Unknown or stale handles are
// ignored.
func (w *World) RemoveNode(h Handle) error {
	if w == nil {
		return nil
	}
	if w.locked > 0 {
		return ErrWorldLocked
	}
	b, ok := w.lookup(h)
	if !ok {
		return nil
	}

	w.locked++
	func() {
		defer func() { w.locked-- }()
		for _, s := range b.shapes {
			w.space.RemoveShape(s.shape)
			s.shape.UserData = nil
		}
		w.space.RemoveBody(b.cp)
	}()

	for k := range w.accepted {
		if k.a == b.handle || k.b == b.handle {
			delete(w.accepted, k)
		}
	}
	for _, other := range w.order {
		if other.overlaps != nil {
			delete(other.overlaps, h)
		}
	}

	w.slots[h.index()-1] = nil
	w.handles.destroy(h)
	for i, o := range w.order {
		if o == b {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.flushDeferred()
	return nil
}

// Has reports whether h names a live body.
func (w *World) Has(h Handle) bool {
	_, ok := w.lookup(h)
	return ok
}

// Bodies returns live handles in registration order.
func (w *World) Bodies() []Handle {
	if w == nil {
		return nil
	}
	out := make([]Handle, 0, len(w.order))
	for _, b := range w.order {
		out = append(out, b.handle)
	}
	return out
}

// Len returns the number of live bodies.
func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return len(w.order)
}

func (w *World) lookup(h Handle) (*body, bool) {
	if w == nil || !w.handles.alive(h) {
		return nil, false
	}
	b := w.slots[h.index()-1]
	return b, b != nil
}

// Step advances the simulation by dt seconds. Non-positive or non-finite dt
// is ignored and dt is capped at Config.MaxStepDelta. Contact and area
// callbacks run inside Step; registry changes they need go through Defer.
func (w *World) Step(dt float64) error {
	if w == nil {
		return ErrMissingWorld
	}
	if w.locked > 0 {
		return ErrWorldLocked
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil
	}
	if dt > w.cfg.MaxStepDelta {
		dt = w.cfg.MaxStepDelta
	}

	w.pullFromNodes()

	w.locked++
	func() {
		defer func() { w.locked-- }()
		w.space.Step(dt)
	}()

	w.pushToNodes()
	w.flushDeferred()
	return nil
}

// pullFromNodes reads edited node transforms into Kinematic and Area bodies.
func (w *World) pullFromNodes() {
	for _, b := range w.order {
		if b.kind != BodyKinematic && b.kind != BodyArea {
			continue
		}
		t := b.node.Transform()
		if !finiteVec(t.Position) || !finite(t.Rotation) {
			continue
		}
		if t.Position == b.synced.Position && t.Rotation == b.synced.Rotation {
			continue
		}
		b.setTransform(t.Position, t.Rotation)
		b.synced = t
	}
}

// pushToNodes writes Dynamic body transforms back to their nodes.
func (w *World) pushToNodes() {
	for _, b := range w.order {
		if b.kind != BodyDynamic {
			continue
		}
		w.writeNode(b)
	}
}

func (w *World) writeNode(b *body) {
	t := Transform{Position: b.cp.Position(), Rotation: b.cp.Angle(), Scale: b.synced.Scale}
	b.synced = t
	b.node.SetTransform(t)
}

// Defer queues fn to run once the current Step returns. Outside Step fn runs
// immediately.
func (w *World) Defer(fn func(*World)) {
	if w == nil || fn == nil {
		return
	}
	if w.locked > 0 {
		w.deferred = append(w.deferred, fn)
		return
	}
	fn(w)
}

func (w *World) flushDeferred() {
	for len(w.deferred) > 0 {
		queued := w.deferred
		w.deferred = nil
		for _, fn := range queued {
			fn(w)
		}
	}
}

// Translate moves a body by delta and writes the result to its node. This is
// the explicit write-back path motion calls use.
func (w *World) Translate(h Handle, delta cp.Vector) bool {
	b, ok := w.lookup(h)
	if !ok || !finiteVec(delta) {
		return false
	}
	return w.place(b, b.cp.Position().Add(delta), b.cp.Angle())
}

// SetPosition teleports a body and writes the result to its node.
func (w *World) SetPosition(h Handle, p cp.Vector) bool {
	b, ok := w.lookup(h)
	if !ok || !finiteVec(p) {
		return false
	}
	return w.place(b, p, b.cp.Angle())
}

// SetRotation sets a body's angle and writes the result to its node.
func (w *World) SetRotation(h Handle, angle float64) bool {
	b, ok := w.lookup(h)
	if !ok || !finite(angle) {
		return false
	}
	return w.place(b, b.cp.Position(), angle)
}

func (w *World) place(b *body, pos cp.Vector, angle float64) bool {
	if b.kind == BodyStatic {
		// static shapes live in a separate index that is only rebuilt on add
		if w.locked > 0 {
			return false
		}
		for _, s := range b.shapes {
			w.space.RemoveShape(s.shape)
		}
		b.setTransform(pos, angle)
		for _, s := range b.shapes {
			w.space.AddShape(s.shape)
		}
	} else {
		b.setTransform(pos, angle)
	}
	w.writeNode(b)
	return true
}

// Warnings returns and clears the construction warnings emitted so far.
func (w *World) Warnings() []ConstructionWarning {
	if w == nil {
		return nil
	}
	out := w.warnings
	w.warnings = nil
	return out
}

func (w *World) warn(cw ConstructionWarning) {
	log.Println(cw.Error())
	w.warnings = append(w.warnings, cw)
}
