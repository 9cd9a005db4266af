package physics

import (
	"math"
	"strings"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestResolveShape(t *testing.T) {
	one := cp.Vector{X: 1, Y: 1}
	cases := []struct {
		name     string
		decl     ShapeDecl
		scale    cp.Vector
		kind     ShapeKind
		warns    bool
		extent   float64
	}{
		{"rect", Rect(40, 20), one, ShapePolygon, false, 20},
		{"rect_scaled", Rect(40, 20), cp.Vector{X: 2, Y: 3}, ShapePolygon, false, 60},
		{"rect_zero_scale_reads_one", Rect(40, 20), cp.Vector{}, ShapePolygon, false, 20},
		{"rect_negative", Rect(-4, 10), one, ShapePolygon, true, DefaultBoxSize},
		{"circle", Circle(5), one, ShapeCircle, false, 10},
		{"circle_zero", Circle(0), one, ShapePolygon, true, DefaultBoxSize},
		{"capsule", Capsule(4, 20), one, ShapeSegment, false, 8},
		{"capsule_short_is_circle", Capsule(4, 6), one, ShapeCircle, false, 8},
		{"segment", Segment(cp.Vector{}, cp.Vector{X: 10}, 1), one, ShapeSegment, false, 2},
		{"segment_zero_length", Segment(cp.Vector{X: 1}, cp.Vector{X: 1}, 2), one, ShapeCircle, true, 4},
		{"segment_degenerate", Segment(cp.Vector{}, cp.Vector{}, 0), one, ShapePolygon, true, DefaultBoxSize},
		{"triangle", Polygon(cp.Vector{}, cp.Vector{X: 10}, cp.Vector{Y: 10}), one, ShapePolygon, false, 0},
		{"polygon_two_vertices", Polygon(cp.Vector{}, cp.Vector{X: 10}), one, ShapePolygon, true, DefaultBoxSize},
		{"polygon_collinear", Polygon(cp.Vector{}, cp.Vector{X: 1}, cp.Vector{X: 2}), one, ShapePolygon, true, DefaultBoxSize},
		{"polygon_nan", Polygon(cp.Vector{X: math.NaN()}, cp.Vector{X: 1}, cp.Vector{Y: 2}), one, ShapePolygon, true, DefaultBoxSize},
		{"unknown_kind", ShapeDecl{}, one, ShapePolygon, true, DefaultBoxSize},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g, warning := resolveShape(c.decl, c.scale)
			if g.kind != c.kind {
				t.Fatalf("kind = %v, want %v", g.kind, c.kind)
			}
			if (warning != "") != c.warns {
				t.Fatalf("warning = %q, want warning=%v", warning, c.warns)
			}
			if c.extent > 0 && !near(g.extent, c.extent, 1e-6) {
				t.Fatalf("extent = %v, want %v", g.extent, c.extent)
			}
			if g.kind == ShapePolygon && len(g.verts) < 3 {
				t.Fatalf("polygon geometry has %d vertices", len(g.verts))
			}
		})
	}
}

func TestResolveShapeConcaveUsesHull(t *testing.T) {
	// arrow head: the notch vertex is dropped
	g, warning := resolveShape(Polygon(
		cp.Vector{X: 0, Y: 0},
		cp.Vector{X: 10, Y: 5},
		cp.Vector{X: 0, Y: 10},
		cp.Vector{X: 3, Y: 5},
	), cp.Vector{X: 1, Y: 1})
	if warning != "" {
		t.Fatalf("unexpected warning %q", warning)
	}
	if len(g.verts) != 3 {
		t.Fatalf("expected 3 hull vertices, got %d", len(g.verts))
	}
}

func TestAddNodeWarnsOnMalformedPolygon(t *testing.T) {
	w := newTestWorld(t)
	n := newNode("crate", BodyStatic, cp.Vector{}, Polygon(cp.Vector{}, cp.Vector{X: 5}))
	h := mustAdd(t, w, n)

	warnings := w.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Node != "crate" || warnings[0].Shape != 0 {
		t.Fatalf("warning not attributed: %+v", warnings[0])
	}
	if !strings.Contains(warnings[0].Error(), "crate") {
		t.Fatalf("warning text %q should name the node", warnings[0].Error())
	}
	if len(w.Warnings()) != 0 {
		t.Fatalf("Warnings should drain")
	}

	outlines := w.Outlines(h)
	if len(outlines) != 1 || len(outlines[0].Points) != 4 {
		t.Fatalf("expected default box outline, got %+v", outlines)
	}
	// default box is 32x32 around the origin
	hits := w.QueryPoint(cp.Vector{X: 15, Y: 15}, QueryFilter{})
	if len(hits) != 1 || hits[0] != h {
		t.Fatalf("point inside default box not found: %v", hits)
	}
}

func TestParseShapeKind(t *testing.T) {
	cases := []struct {
		in   string
		want ShapeKind
		ok   bool
	}{
		{"rectangle", ShapeRectangle, true},
		{" Box ", ShapeRectangle, true},
		{"circle", ShapeCircle, true},
		{"capsule", ShapeCapsule, true},
		{"line", ShapeSegment, true},
		{"poly", ShapePolygon, true},
		{"star", 0, false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, ok := ParseShapeKind(c.in)
			if got != c.want || ok != c.ok {
				t.Fatalf("ParseShapeKind(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
			}
		})
	}
}
