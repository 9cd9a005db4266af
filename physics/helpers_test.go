package physics

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

type testNode struct {
	name     string
	kind     BodyKind
	eligible bool
	t        Transform
	cfg      BodyConfig
	shapes   []ShapeDecl
	writes   int
}

func (n *testNode) NodeName() string           { return n.name }
func (n *testNode) BodyKind() (BodyKind, bool) { return n.kind, n.eligible }
func (n *testNode) Transform() Transform       { return n.t }
func (n *testNode) BodyConfig() BodyConfig     { return n.cfg }
func (n *testNode) ShapeDecls() []ShapeDecl    { return n.shapes }

func (n *testNode) SetTransform(t Transform) {
	n.t = t
	n.writes++
}

func newNode(name string, kind BodyKind, pos cp.Vector, shapes ...ShapeDecl) *testNode {
	return &testNode{
		name:     name,
		kind:     kind,
		eligible: true,
		t:        Transform{Position: pos, Scale: cp.Vector{X: 1, Y: 1}},
		cfg:      DefaultBodyConfig(),
		shapes:   shapes,
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(DefaultConfig())
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func mustAdd(t *testing.T, w *World, n *testNode) Handle {
	t.Helper()
	h, err := w.AddNode(n)
	if err != nil {
		t.Fatalf("AddNode(%s): %v", n.name, err)
	}
	if !h.Valid() {
		t.Fatalf("AddNode(%s) returned invalid handle", n.name)
	}
	return h
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func nearVec(a, b cp.Vector, tol float64) bool {
	return near(a.X, b.X, tol) && near(a.Y, b.Y, tol)
}
