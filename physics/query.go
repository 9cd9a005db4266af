package physics

import (
	"math"
	"sort"

	"github.com/jakecoffman/cp"
)

const castEpsilon = 1e-9

// maxCastSteps bounds the sub-step count of a single cast.
const maxCastSteps = 4096

// QueryFilter narrows which shapes a query may report. The zero value matches
// every non-sensor shape.
type QueryFilter struct {
	Exclude Handle
	// Mask selects shape layers; zero means AllLayers. When Layer is non-zero
	// the either-direction pair rule applies against (Layer, Mask) instead.
	Mask           uint32
	Layer          uint32
	IncludeSensors bool
}

func (f QueryFilter) mask() uint32 {
	if f.Mask == 0 {
		return AllLayers
	}
	return f.Mask
}

func (f QueryFilter) admits(s *shapeEntry) bool {
	if f.Exclude.Valid() && s.owner.handle == f.Exclude {
		return false
	}
	if s.sensor && !f.IncludeSensors {
		return false
	}
	if f.Layer != 0 {
		return CheckCollisionLayers(f.Layer, f.mask(), s.layer, s.mask)
	}
	return s.layer&f.mask() != 0
}

// Hit is a query result. Normal points away from the struck surface, back
// toward the query origin. Distance is a fraction of the query segment in
// [0,1]; Position is the query origin advanced by that fraction.
type Hit struct {
	Body     Handle
	Shape    int
	Point    cp.Vector
	Normal   cp.Vector
	Position cp.Vector
	Distance float64
	// Depth is the penetration at the reported contact, positive when overlapping.
	Depth float64
}

// QueryPoint returns every body with a shape containing p, in registration order.
func (w *World) QueryPoint(p cp.Vector, f QueryFilter) []Handle {
	if w == nil || !finiteVec(p) {
		return nil
	}
	var out []Handle
	for _, b := range w.order {
		for _, s := range b.shapes {
			if !f.admits(s) || !s.shape.BB().ContainsVect(p) {
				continue
			}
			if s.shape.PointQuery(p).Distance <= 0 {
				out = append(out, b.handle)
				break
			}
		}
	}
	return out
}

// Raycast returns the first shape hit by the segment a-b.
func (w *World) Raycast(a, b cp.Vector, f QueryFilter) (Hit, bool) {
	hits := w.raycast(a, b, f, false)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// RaycastAll returns every shape hit by the segment a-b, nearest first.
func (w *World) RaycastAll(a, b cp.Vector, f QueryFilter) []Hit {
	return w.raycast(a, b, f, true)
}

func (w *World) raycast(a, b cp.Vector, f QueryFilter, all bool) []Hit {
	if w == nil || !finiteVec(a) || !finiteVec(b) {
		return nil
	}
	dir := b.Sub(a)
	var hits []Hit
	for _, body := range w.order {
		for _, s := range body.shapes {
			if !f.admits(s) {
				continue
			}
			hit, ok := raycastShape(s, a, b, dir)
			if !ok {
				continue
			}
			hits = append(hits, hit)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if !all && len(hits) > 1 {
		hits = hits[:1]
	}
	return hits
}

func raycastShape(s *shapeEntry, a, b, dir cp.Vector) (Hit, bool) {
	if inside := s.shape.PointQuery(a); inside.Distance < 0 {
		n := inside.Gradient
		if !finiteVec(n) || n.LengthSq() == 0 {
			n = normalizeOr(dir.Neg(), cp.Vector{Y: 1})
		}
		return Hit{
			Body:     s.owner.handle,
			Shape:    s.index,
			Point:    a,
			Normal:   n,
			Position: a,
			Depth:    -inside.Distance,
		}, true
	}
	var info cp.SegmentQueryInfo
	if !s.shape.SegmentQuery(a, b, 0, &info) {
		return Hit{}, false
	}
	return Hit{
		Body:     s.owner.handle,
		Shape:    s.index,
		Point:    info.Point,
		Normal:   info.Normal,
		Position: a.Lerp(b, info.Alpha),
		Distance: info.Alpha,
	}, true
}

// probe is a detached body carrying copies of a cast shape.
type probe struct {
	body   *cp.Body
	shapes []probeShape
	extent float64
}

type probeShape struct {
	shape *cp.Shape
	// source entry when casting a registered body; its layer and mask apply
	// through the pair rule
	src *shapeEntry
}

func newProbe(geoms []geometry, srcs []*shapeEntry) *probe {
	p := &probe{body: cp.NewKinematicBody()}
	for i, g := range geoms {
		ps := probeShape{shape: g.build(p.body)}
		if srcs != nil {
			ps.src = srcs[i]
		}
		p.shapes = append(p.shapes, ps)
		if i == 0 || g.extent < p.extent {
			p.extent = g.extent
		}
	}
	return p
}

func (b *body) probe() *probe {
	geoms := make([]geometry, len(b.shapes))
	for i, s := range b.shapes {
		geoms[i] = s.geom
	}
	return newProbe(geoms, b.shapes)
}

func (p *probe) place(pos cp.Vector, angle float64) cp.BB {
	p.body.SetPosition(pos)
	p.body.SetAngle(angle)
	var bb cp.BB
	for i, ps := range p.shapes {
		sbb := ps.shape.CacheBB()
		if i == 0 {
			bb = sbb
		} else {
			bb = bb.Merge(sbb)
		}
	}
	return bb
}

func (ps probeShape) accepts(s *shapeEntry, f QueryFilter) bool {
	if f.Exclude.Valid() && s.owner.handle == f.Exclude {
		return false
	}
	if s.sensor && !f.IncludeSensors {
		return false
	}
	if ps.src != nil {
		return CheckCollisionLayers(ps.src.layer, ps.src.mask, s.layer, s.mask)
	}
	return f.admits(s)
}

type overlap struct {
	target *shapeEntry
	point  cp.Vector
	normal cp.Vector
	depth  float64
}

// sweep holds one cast's probe, path and candidate obstacles.
type sweep struct {
	probe      *probe
	angle      float64
	from       cp.Vector
	delta      cp.Vector
	candidates []*shapeEntry
	filter     QueryFilter
	// separating lets a body leave a shape it starts in contact with. Plain
	// shape casts report such a shape at distance 0.
	separating bool
}

func (w *World) newSweep(p *probe, angle float64, from, to cp.Vector, f QueryFilter) *sweep {
	bb := p.place(from, angle).Merge(p.place(to, angle))
	s := &sweep{probe: p, angle: angle, from: from, delta: to.Sub(from), filter: f}
	for _, b := range w.order {
		for _, e := range b.shapes {
			if !p.anyAccepts(e, f) {
				continue
			}
			if e.shape.BB().Intersects(bb) {
				s.candidates = append(s.candidates, e)
			}
		}
	}
	return s
}

func (p *probe) anyAccepts(s *shapeEntry, f QueryFilter) bool {
	for _, ps := range p.shapes {
		if ps.accepts(s, f) {
			return true
		}
	}
	return false
}

func (s *sweep) drop(target *shapeEntry) {
	for i, c := range s.candidates {
		if c == target {
			s.candidates = append(s.candidates[:i], s.candidates[i+1:]...)
			return
		}
	}
}

func (s *sweep) at(t float64) cp.Vector {
	return s.from.Add(s.delta.Mult(t))
}

// collide tests the probe at fraction t against one obstacle.
func (s *sweep) collide(t float64, target *shapeEntry) (overlap, bool) {
	s.probe.place(s.at(t), s.angle)
	return s.collidePlaced(target)
}

func (s *sweep) collidePlaced(target *shapeEntry) (overlap, bool) {
	best := overlap{depth: math.Inf(-1)}
	found := false
	for _, ps := range s.probe.shapes {
		if !ps.accepts(target, s.filter) || !ps.shape.BB().Intersects(target.shape.BB()) {
			continue
		}
		set := cp.ShapesCollide(ps.shape, target.shape)
		for i := 0; i < set.Count; i++ {
			depth := -set.Points[i].Distance
			if depth > best.depth {
				best = overlap{
					target: target,
					point:  set.Points[i].PointB,
					normal: set.Normal.Neg(),
					depth:  depth,
				}
				found = true
			}
		}
	}
	return best, found
}

// overlaps tests the probe at fraction t against every candidate.
func (s *sweep) overlaps(t float64) []overlap {
	s.probe.place(s.at(t), s.angle)
	var out []overlap
	for _, target := range s.candidates {
		if o, ok := s.collidePlaced(target); ok {
			out = append(out, o)
		}
	}
	return out
}

func deepest(os []overlap) overlap {
	best := os[0]
	for _, o := range os[1:] {
		if o.depth > best.depth {
			best = o
		}
	}
	return best
}

func (s *sweep) hit(o overlap, t float64) Hit {
	n := o.normal
	if !finiteVec(n) || n.LengthSq() == 0 {
		n = normalizeOr(s.delta.Neg(), cp.Vector{Y: 1})
	}
	return Hit{
		Body:     o.target.owner.handle,
		Shape:    o.target.index,
		Point:    o.point,
		Normal:   n,
		Position: s.at(t),
		Distance: t,
		Depth:    o.depth,
	}
}

func (w *World) steps(length, extent float64) int {
	maxStep := math.Max(extent*w.cfg.CastStepRatio, w.cfg.MinCastStep)
	n := int(math.Ceil(length / maxStep))
	if n < 1 {
		n = 1
	}
	if n > maxCastSteps {
		n = maxCastSteps
	}
	return n
}

// first returns the earliest hit along the sweep. Distance is the last
// fraction found free of overlap, refined by bisection inside the first
// sub-step that hits.
func (w *World) first(s *sweep) (Hit, bool) {
	if len(s.candidates) == 0 {
		return Hit{}, false
	}
	length := s.delta.Length()
	if ov := s.overlaps(0); len(ov) > 0 {
		var blocking []overlap
		for _, o := range ov {
			if !s.separating || length < castEpsilon || s.delta.Dot(o.normal) < 0 {
				blocking = append(blocking, o)
			} else {
				s.drop(o.target)
			}
		}
		if len(blocking) > 0 {
			return s.hit(deepest(blocking), 0), true
		}
	}
	if length < castEpsilon {
		return Hit{}, false
	}
	n := w.steps(length, s.probe.extent)
	prev := 0.0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		ov := s.overlaps(t)
		if len(ov) == 0 {
			prev = t
			continue
		}
		lo, hi := prev, t
		for k := 0; k < w.cfg.CastIterations; k++ {
			mid := (lo + hi) / 2
			if o := s.overlaps(mid); len(o) > 0 {
				hi, ov = mid, o
			} else {
				lo = mid
			}
		}
		h := s.hit(deepest(ov), lo)
		return h, true
	}
	return Hit{}, false
}

// all returns one hit per obstacle shape the sweep touches, in the order they
// are first reached.
func (w *World) all(s *sweep) []Hit {
	if len(s.candidates) == 0 {
		return nil
	}
	seen := make(map[*shapeEntry]bool)
	var hits []Hit
	for _, o := range s.overlaps(0) {
		seen[o.target] = true
		hits = append(hits, s.hit(o, 0))
	}
	length := s.delta.Length()
	if length < castEpsilon {
		return hits
	}
	n := w.steps(length, s.probe.extent)
	prev := 0.0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		for _, o := range s.overlaps(t) {
			if seen[o.target] {
				continue
			}
			seen[o.target] = true
			lo, hi, best := prev, t, o
			for k := 0; k < w.cfg.CastIterations; k++ {
				mid := (lo + hi) / 2
				if ro, ok := s.collide(mid, o.target); ok {
					hi, best = mid, ro
				} else {
					lo = mid
				}
			}
			hits = append(hits, s.hit(best, lo))
		}
		prev = t
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// CastDecl builds the shape a ShapeCast with kind and size sweeps. Rectangles
// use size as width and height, circles size.X as radius, capsules size.X as
// radius and size.Y as height, and segments span size.X horizontally with
// thickness size.Y. Polygons need vertices; use ShapeCastDecl for them.
func CastDecl(kind ShapeKind, size cp.Vector) ShapeDecl {
	switch kind {
	case ShapeCircle:
		return Circle(size.X)
	case ShapeCapsule:
		return Capsule(size.X, size.Y)
	case ShapeSegment:
		return Segment(cp.Vector{X: -size.X / 2}, cp.Vector{X: size.X / 2}, size.Y)
	case ShapePolygon:
		return ShapeDecl{Kind: ShapePolygon}
	}
	return Rect(size.X, size.Y)
}

// ShapeCast sweeps a shape of the given kind and size from from to to and
// returns the earliest hit, ignoring exclude.
func (w *World) ShapeCast(kind ShapeKind, size, from, to cp.Vector, exclude Handle) (Hit, bool) {
	return w.ShapeCastDecl(CastDecl(kind, size), from, to, QueryFilter{Exclude: exclude})
}

// ShapeCastAll is ShapeCast without early exit: every touched shape is reported.
func (w *World) ShapeCastAll(kind ShapeKind, size, from, to cp.Vector, exclude Handle) []Hit {
	return w.ShapeCastAllDecl(CastDecl(kind, size), from, to, QueryFilter{Exclude: exclude})
}

// ShapeCastDecl sweeps an arbitrary declared shape.
func (w *World) ShapeCastDecl(decl ShapeDecl, from, to cp.Vector, f QueryFilter) (Hit, bool) {
	s, ok := w.declSweep(decl, from, to, f)
	if !ok {
		return Hit{}, false
	}
	return w.first(s)
}

// ShapeCastAllDecl is ShapeCastDecl without early exit.
func (w *World) ShapeCastAllDecl(decl ShapeDecl, from, to cp.Vector, f QueryFilter) []Hit {
	s, ok := w.declSweep(decl, from, to, f)
	if !ok {
		return nil
	}
	return w.all(s)
}

func (w *World) declSweep(decl ShapeDecl, from, to cp.Vector, f QueryFilter) (*sweep, bool) {
	if w == nil || !finiteVec(from) || !finiteVec(to) {
		return nil, false
	}
	g, _ := resolveShape(decl, cp.Vector{X: 1, Y: 1})
	p := newProbe([]geometry{g}, nil)
	return w.newSweep(p, 0, from, to, f), true
}

// CastResolution is the largest error of a hit distance, in world units, for a
// cast of the given length.
func (w *World) CastResolution(length float64) float64 {
	if w == nil || !(length > 0) {
		return 0
	}
	return math.Ldexp(length, -w.cfg.CastIterations)
}

// TestMove casts a body's own shapes from its current position by delta,
// excluding the body itself. A shape the body already touches only blocks
// motion into it. Bodies without shapes never hit.
func (w *World) TestMove(h Handle, delta cp.Vector) (Hit, bool) {
	b, ok := w.lookup(h)
	if !ok || len(b.shapes) == 0 || !finiteVec(delta) {
		return Hit{}, false
	}
	from := b.cp.Position()
	s := w.newSweep(b.probe(), b.cp.Angle(), from, from.Add(delta), QueryFilter{Exclude: h})
	s.separating = true
	return w.first(s)
}

// TestOverlap reports the deepest overlap of a body's shapes if the body
// stood at pos.
func (w *World) TestOverlap(h Handle, pos cp.Vector) (Hit, bool) {
	b, ok := w.lookup(h)
	if !ok || len(b.shapes) == 0 || !finiteVec(pos) {
		return Hit{}, false
	}
	s := w.newSweep(b.probe(), b.cp.Angle(), pos, pos, QueryFilter{Exclude: h})
	if len(s.candidates) == 0 {
		return Hit{}, false
	}
	ov := s.overlaps(0)
	if len(ov) == 0 {
		return Hit{}, false
	}
	return s.hit(deepest(ov), 0), true
}

func normalizeOr(v, fallback cp.Vector) cp.Vector {
	l := v.Length()
	if l < castEpsilon || !finite(l) {
		return fallback
	}
	return v.Mult(1 / l)
}
