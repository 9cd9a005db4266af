package physics

import "github.com/jakecoffman/cp"

// Contact describes a new touching shape pair found during Step. Normal points
// from B into A.
type Contact struct {
	A, B           Handle
	ShapeA, ShapeB int
	Point          cp.Vector // on A's surface
	Normal         cp.Vector
	Depth          float64 // penetration, positive when overlapping
}

// Swap returns the same contact seen from B.
func (c Contact) Swap() Contact {
	return Contact{
		A:      c.B,
		B:      c.A,
		ShapeA: c.ShapeB,
		ShapeB: c.ShapeA,
		Point:  c.Point.Add(c.Normal.Mult(c.Depth)),
		Normal: c.Normal.Neg(),
		Depth:  c.Depth,
	}
}

// ContactFunc receives contacts during Step. It must not add, remove, or step;
// use World.Defer for that.
type ContactFunc func(Contact)

// AreaEvent reports a body or area entering or leaving an Area body.
type AreaEvent struct {
	Area        Handle
	Other       Handle
	OtherIsArea bool
	Entered     bool
}

// Signal names the event the way scene scripts refer to it.
func (e AreaEvent) Signal() string {
	switch {
	case e.OtherIsArea && e.Entered:
		return "area_entered"
	case e.OtherIsArea:
		return "area_exited"
	case e.Entered:
		return "body_entered"
	}
	return "body_exited"
}

// AreaFunc receives area overlap changes.
type AreaFunc func(AreaEvent)

type pairKey struct {
	a, b   Handle
	sa, sb uint64
}

func pairOf(x, y *shapeEntry) pairKey {
	if x.id > y.id {
		x, y = y, x
	}
	return pairKey{a: x.owner.handle, b: y.owner.handle, sa: x.id, sb: y.id}
}

// OnContact registers fn for every contact in the world.
func (w *World) OnContact(fn ContactFunc) {
	if w == nil || fn == nil {
		return
	}
	w.contactFns = append(w.contactFns, fn)
}

// OnBodyContact registers fn for contacts involving h. Contacts are oriented
// so that A is h.
func (w *World) OnBodyContact(h Handle, fn ContactFunc) bool {
	b, ok := w.lookup(h)
	if !ok || fn == nil {
		return false
	}
	b.contactFns = append(b.contactFns, fn)
	return true
}

// OnAreaEvent registers fn for area enter and exit events.
func (w *World) OnAreaEvent(fn AreaFunc) {
	if w == nil || fn == nil {
		return
	}
	w.areaFns = append(w.areaFns, fn)
}

// OverlappingBodies lists the non-area bodies currently inside an Area.
func (w *World) OverlappingBodies(area Handle) []Handle {
	return w.overlapping(area, false)
}

// OverlappingAreas lists the areas currently overlapping an Area.
func (w *World) OverlappingAreas(area Handle) []Handle {
	return w.overlapping(area, true)
}

func (w *World) overlapping(area Handle, areas bool) []Handle {
	b, ok := w.lookup(area)
	if !ok || b.kind != BodyArea {
		return nil
	}
	var out []Handle
	for _, other := range w.order {
		if b.overlaps[other.handle] == 0 {
			continue
		}
		if (other.kind == BodyArea) == areas {
			out = append(out, other.handle)
		}
	}
	return out
}

func (w *World) setupHandlers() {
	handler := w.space.NewCollisionHandler(collisionTypeBody, collisionTypeBody)
	handler.UserData = w
	handler.BeginFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return true
		}
		return world.begin(arb)
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return
		}
		world.separate(arb)
	}
}

func arbiterEntries(arb *cp.Arbiter) (*shapeEntry, *shapeEntry, bool) {
	sa, sb := arb.Shapes()
	ea, okA := sa.UserData.(*shapeEntry)
	eb, okB := sb.UserData.(*shapeEntry)
	return ea, eb, okA && okB
}

func (w *World) begin(arb *cp.Arbiter) bool {
	ea, eb, ok := arbiterEntries(arb)
	if !ok {
		return true
	}
	if !CheckCollisionLayers(ea.layer, ea.mask, eb.layer, eb.mask) {
		return false
	}
	w.accepted[pairOf(ea, eb)] = struct{}{}

	if ea.sensor || eb.sensor {
		w.overlapChanged(ea.owner, eb.owner, true)
		return true
	}

	set := arb.ContactPointSet()
	c := Contact{
		A:      ea.owner.handle,
		B:      eb.owner.handle,
		ShapeA: ea.index,
		ShapeB: eb.index,
		Normal: set.Normal.Neg(),
	}
	for i := 0; i < set.Count; i++ {
		depth := -set.Points[i].Distance
		if i == 0 || depth > c.Depth {
			c.Depth = depth
			c.Point = set.Points[i].PointA
		}
	}
	w.dispatchContact(c, ea.owner, eb.owner)
	return true
}

func (w *World) separate(arb *cp.Arbiter) {
	ea, eb, ok := arbiterEntries(arb)
	if !ok {
		return
	}
	key := pairOf(ea, eb)
	if _, ok := w.accepted[key]; !ok {
		return
	}
	delete(w.accepted, key)
	if ea.sensor || eb.sensor {
		w.overlapChanged(ea.owner, eb.owner, false)
	}
}

func (w *World) dispatchContact(c Contact, a, b *body) {
	for _, fn := range w.contactFns {
		fn(c)
	}
	for _, fn := range a.contactFns {
		fn(c)
	}
	if len(b.contactFns) > 0 {
		swapped := c.Swap()
		for _, fn := range b.contactFns {
			fn(swapped)
		}
	}
}

// overlapChanged counts shape pairs per body pair so multi-shape bodies enter
// and exit once.
func (w *World) overlapChanged(a, b *body, entered bool) {
	for _, pair := range [2][2]*body{{a, b}, {b, a}} {
		area, other := pair[0], pair[1]
		if area.kind != BodyArea {
			continue
		}
		before := area.overlaps[other.handle]
		after := before
		if entered {
			after++
		} else if before > 0 {
			after--
		}
		if after == 0 {
			delete(area.overlaps, other.handle)
		} else {
			area.overlaps[other.handle] = after
		}
		if (before == 0) == (after == 0) {
			continue
		}
		evt := AreaEvent{
			Area:        area.handle,
			Other:       other.handle,
			OtherIsArea: other.kind == BodyArea,
			Entered:     after > 0,
		}
		for _, fn := range w.areaFns {
			fn(evt)
		}
	}
}
