package physics

import (
	"fmt"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
)

// ShapeKind selects the geometry of a ShapeDecl.
type ShapeKind uint8

const (
	ShapeRectangle ShapeKind = iota + 1
	ShapeCircle
	ShapeCapsule
	ShapeSegment
	ShapePolygon
)

// DefaultBoxSize is the edge length of the box substituted for malformed shapes.
const DefaultBoxSize = 32

func (k ShapeKind) String() string {
	switch k {
	case ShapeRectangle:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	case ShapeCapsule:
		return "capsule"
	case ShapeSegment:
		return "segment"
	case ShapePolygon:
		return "polygon"
	}
	return "unknown"
}

// ParseShapeKind maps an authored shape name to a ShapeKind.
func ParseShapeKind(s string) (ShapeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangle", "rect", "box":
		return ShapeRectangle, true
	case "circle":
		return ShapeCircle, true
	case "capsule":
		return ShapeCapsule, true
	case "segment", "line":
		return ShapeSegment, true
	case "polygon", "poly":
		return ShapePolygon, true
	}
	return 0, false
}

// ShapeDecl declares one collider in body-local coordinates. Only the fields
// that belong to Kind are read.
type ShapeDecl struct {
	Kind ShapeKind

	HalfExtents cp.Vector   // rectangle
	Radius      float64     // circle, capsule
	Height      float64     // capsule, end to end along local Y
	A, B        cp.Vector   // segment
	Thickness   float64     // segment radius
	Vertices    []cp.Vector // polygon

	Offset   cp.Vector
	Rotation float64
}

// Rect declares a w by h rectangle centred on the body.
func Rect(w, h float64) ShapeDecl {
	return ShapeDecl{Kind: ShapeRectangle, HalfExtents: cp.Vector{X: w / 2, Y: h / 2}}
}

// Circle declares a circle centred on the body.
func Circle(radius float64) ShapeDecl {
	return ShapeDecl{Kind: ShapeCircle, Radius: radius}
}

// Capsule declares an upright capsule of total height h.
func Capsule(radius, h float64) ShapeDecl {
	return ShapeDecl{Kind: ShapeCapsule, Radius: radius, Height: h}
}

// Segment declares a line from a to b with the given thickness radius.
func Segment(a, b cp.Vector, thickness float64) ShapeDecl {
	return ShapeDecl{Kind: ShapeSegment, A: a, B: b, Thickness: thickness}
}

// Polygon declares a convex polygon. Concave input is replaced by its hull.
func Polygon(verts ...cp.Vector) ShapeDecl {
	return ShapeDecl{Kind: ShapePolygon, Vertices: verts}
}

// geometry is a validated collider in body-local space with scale applied.
// Rectangles and polygons resolve to a hull, capsules to a thick segment.
type geometry struct {
	kind   ShapeKind
	verts  []cp.Vector
	center cp.Vector
	a, b   cp.Vector
	radius float64
	extent float64
}

// resolveShape validates decl and applies scale. A non-empty warning means decl
// was replaced by a default box or a simpler shape.
func resolveShape(decl ShapeDecl, scale cp.Vector) (geometry, string) {
	sx, sy := scaleComponent(scale.X), scaleComponent(scale.Y)
	rot := cp.ForAngle(decl.Rotation)
	if !finite(decl.Rotation) {
		rot = cp.Vector{X: 1}
	}
	offset := decl.Offset
	if !finite(offset.X) || !finite(offset.Y) {
		offset = cp.Vector{}
	}
	place := func(p cp.Vector) cp.Vector {
		p = p.Rotate(rot).Add(offset)
		return cp.Vector{X: p.X * sx, Y: p.Y * sy}
	}
	radiusScale := math.Max(sx, sy)
	fallback := func(msg string) (geometry, string) {
		return defaultBox(place), msg
	}

	switch decl.Kind {
	case ShapeRectangle:
		hx, hy := decl.HalfExtents.X, decl.HalfExtents.Y
		if !(hx > 0 && hy > 0) || !finite(hx) || !finite(hy) {
			return fallback(fmt.Sprintf("rectangle half extents %v,%v must be positive; using default box", hx, hy))
		}
		return polygonGeometry([]cp.Vector{
			place(cp.Vector{X: hx, Y: -hy}),
			place(cp.Vector{X: hx, Y: hy}),
			place(cp.Vector{X: -hx, Y: hy}),
			place(cp.Vector{X: -hx, Y: -hy}),
		}), ""

	case ShapeCircle:
		if !(decl.Radius > 0) || !finite(decl.Radius) {
			return fallback(fmt.Sprintf("circle radius %v must be positive; using default box", decl.Radius))
		}
		return circleGeometry(place(cp.Vector{}), decl.Radius*radiusScale), ""

	case ShapeCapsule:
		r := decl.Radius
		if !(r > 0) || !finite(r) || !finite(decl.Height) {
			return fallback(fmt.Sprintf("capsule radius %v must be positive; using default box", r))
		}
		half := decl.Height/2 - r
		if half <= 0 {
			return circleGeometry(place(cp.Vector{}), r*radiusScale), ""
		}
		return segmentGeometry(place(cp.Vector{Y: -half}), place(cp.Vector{Y: half}), r*radiusScale), ""

	case ShapeSegment:
		t := decl.Thickness
		if !(t > 0) || !finite(t) {
			t = 0
		}
		if !finiteVec(decl.A) || !finiteVec(decl.B) {
			return fallback("segment endpoints must be finite; using default box")
		}
		a, b := place(decl.A), place(decl.B)
		if a.Near(b, 1e-9) {
			if t > 0 {
				return circleGeometry(a, t*radiusScale), "segment has zero length; using circle"
			}
			return fallback("segment has zero length and thickness; using default box")
		}
		return segmentGeometry(a, b, t*radiusScale), ""

	case ShapePolygon:
		if len(decl.Vertices) < 3 {
			return fallback(fmt.Sprintf("polygon needs at least 3 vertices, got %d; using default box", len(decl.Vertices)))
		}
		verts := make([]cp.Vector, 0, len(decl.Vertices))
		for _, v := range decl.Vertices {
			if !finiteVec(v) {
				return fallback("polygon vertices must be finite; using default box")
			}
			verts = append(verts, place(v))
		}
		n := cp.ConvexHull(len(verts), verts, nil, 0)
		if n < 3 || math.Abs(cp.AreaForPoly(n, verts[:n], 0)) <= 1e-9 {
			return fallback("polygon is degenerate; using default box")
		}
		return polygonGeometry(verts[:n]), ""
	}
	return fallback(fmt.Sprintf("unknown shape kind %d; using default box", decl.Kind))
}

func defaultBox(place func(cp.Vector) cp.Vector) geometry {
	h := DefaultBoxSize / 2.0
	c := place(cp.Vector{})
	return polygonGeometry([]cp.Vector{
		{X: c.X + h, Y: c.Y - h},
		{X: c.X + h, Y: c.Y + h},
		{X: c.X - h, Y: c.Y + h},
		{X: c.X - h, Y: c.Y - h},
	})
}

func polygonGeometry(verts []cp.Vector) geometry {
	hull := append([]cp.Vector(nil), verts...)
	n := cp.ConvexHull(len(hull), hull, nil, 0)
	hull = hull[:n]
	return geometry{kind: ShapePolygon, verts: hull, extent: polygonWidth(hull)}
}

func circleGeometry(center cp.Vector, r float64) geometry {
	return geometry{kind: ShapeCircle, center: center, radius: r, extent: 2 * r}
}

func segmentGeometry(a, b cp.Vector, r float64) geometry {
	return geometry{kind: ShapeSegment, a: a, b: b, radius: r, extent: 2 * r}
}

// polygonWidth is the smallest distance between a hull edge and the vertex
// farthest from it.
func polygonWidth(hull []cp.Vector) float64 {
	width := math.Inf(1)
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		edge := b.Sub(a)
		if edge.LengthSq() == 0 {
			continue
		}
		n := edge.Perp().Normalize()
		far := 0.0
		for _, v := range hull {
			far = math.Max(far, math.Abs(v.Sub(a).Dot(n)))
		}
		width = math.Min(width, far)
	}
	if math.IsInf(width, 1) {
		return 0
	}
	return width
}

func (g geometry) build(body *cp.Body) *cp.Shape {
	switch g.kind {
	case ShapeCircle:
		return cp.NewCircle(body, g.radius, g.center)
	case ShapeSegment:
		return cp.NewSegment(body, g.a, g.b, g.radius)
	}
	verts := append([]cp.Vector(nil), g.verts...)
	return cp.NewPolyShapeRaw(body, len(verts), verts, 0)
}

func (g geometry) moment(mass float64) float64 {
	switch g.kind {
	case ShapeCircle:
		return cp.MomentForCircle(mass, 0, g.radius, g.center)
	case ShapeSegment:
		return cp.MomentForSegment(mass, g.a, g.b, g.radius)
	}
	return cp.MomentForPoly(mass, len(g.verts), g.verts, cp.Vector{}, 0)
}

// Outline is world-space shape data for debug drawing. Circles carry their
// centre as the single point; segments carry both endpoints.
type Outline struct {
	Kind   ShapeKind
	Points []cp.Vector
	Radius float64
	Sensor bool
}

func (g geometry) outline(t cp.Transform) Outline {
	switch g.kind {
	case ShapeCircle:
		return Outline{Kind: ShapeCircle, Points: []cp.Vector{t.Point(g.center)}, Radius: g.radius}
	case ShapeSegment:
		return Outline{Kind: ShapeSegment, Points: []cp.Vector{t.Point(g.a), t.Point(g.b)}, Radius: g.radius}
	}
	pts := make([]cp.Vector, len(g.verts))
	for i, v := range g.verts {
		pts[i] = t.Point(v)
	}
	return Outline{Kind: ShapePolygon, Points: pts}
}

func scaleComponent(v float64) float64 {
	if v == 0 || !finite(v) {
		return 1
	}
	return math.Abs(v)
}

func finiteVec(v cp.Vector) bool {
	return finite(v.X) && finite(v.Y)
}
