package scene

import (
	"math"
	"strconv"
	"strings"

	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/jakecoffman/cp"
	"gopkg.in/yaml.v3"
)

// Node types understood by the binder.
const (
	TypeNode2D             = "Node2D"
	TypeRigidBody2D        = "RigidBody2D"
	TypeStaticBody2D       = "StaticBody2D"
	TypeKinematicBody2D    = "KinematicBody2D"
	TypeArea2D             = "Area2D"
	TypeCollisionShape2D   = "CollisionShape2D"
	TypeCollisionPolygon2D = "CollisionPolygon2D"
)

var bodyKinds = map[string]physics.BodyKind{
	TypeRigidBody2D:     physics.BodyDynamic,
	"Rigidbody2D":       physics.BodyDynamic,
	TypeStaticBody2D:    physics.BodyStatic,
	TypeKinematicBody2D: physics.BodyKinematic,
	TypeArea2D:          physics.BodyArea,
}

// Vec is an authored [x, y] pair.
type Vec [2]float64

func V(x, y float64) Vec { return Vec{x, y} }

func VecOf(v cp.Vector) Vec { return Vec{v.X, v.Y} }

func (v Vec) Vector() cp.Vector { return cp.Vector{X: v[0], Y: v[1]} }

func (v Vec) IsZero() bool { return v == Vec{} }

// MarshalYAML writes the pair in flow style.
func (v Vec) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, f := range v {
		n.Content = append(n.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(f, 'g', -1, 64),
		})
	}
	return n, nil
}

// Body is the authored per-body configuration. Fields left out of the
// document keep their defaults.
type Body struct {
	physics.BodyConfig `yaml:",inline"`
}

func DefaultBody() *Body {
	return &Body{BodyConfig: physics.DefaultBodyConfig()}
}

func (b *Body) UnmarshalYAML(value *yaml.Node) error {
	cfg := physics.DefaultBodyConfig()
	if err := value.Decode(&cfg); err != nil {
		return err
	}
	b.BodyConfig = cfg
	return nil
}

// Node is one element of the authored scene tree.
type Node struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	KindOverride string `yaml:"body_kind,omitempty"`

	Position Vec     `yaml:"position,omitempty"`
	Rotation float64 `yaml:"rotation,omitempty"` // radians
	Scale    Vec     `yaml:"scale,omitempty"`

	Script string `yaml:"script,omitempty"`
	Body   *Body  `yaml:"body,omitempty"`

	// Shape declaration, read on CollisionShape2D and CollisionPolygon2D.
	Shape     string  `yaml:"shape,omitempty"`
	Size      Vec     `yaml:"size,omitempty"`
	Radius    float64 `yaml:"radius,omitempty"`
	Height    float64 `yaml:"height,omitempty"`
	Points    []Vec   `yaml:"points,omitempty"`
	Polygon   []Vec   `yaml:"polygon,omitempty"`
	LineStart Vec     `yaml:"line_start,omitempty"`
	LineEnd   Vec     `yaml:"line_end,omitempty"`
	Thickness float64 `yaml:"thickness,omitempty"`
	Disabled  bool    `yaml:"disabled,omitempty"`

	Children []*Node `yaml:"children,omitempty"`

	parent   *Node
	kind     physics.BodyKind
	eligible bool
	handle   physics.Handle
}

// Link sets parent pointers below n and resolves each node's body kind. It
// runs once when a document is loaded; call it again after editing the tree
// by hand.
func (n *Node) Link() {
	n.link(nil)
}

func (n *Node) link(parent *Node) {
	if n == nil {
		return
	}
	n.parent = parent
	n.kind, n.eligible = resolveKind(n)
	for _, c := range n.Children {
		c.link(n)
	}
}

func resolveKind(n *Node) (physics.BodyKind, bool) {
	if n.KindOverride != "" {
		if k, ok := physics.ParseBodyKind(n.KindOverride); ok {
			return k, true
		}
	}
	k, ok := bodyKinds[n.Type]
	return k, ok
}

// AddChild appends c and links it under n.
func (n *Node) AddChild(c *Node) {
	if n == nil || c == nil {
		return
	}
	n.Children = append(n.Children, c)
	c.link(n)
}

func (n *Node) Parent() *Node { return n.parent }

// Handle is the body handle assigned when the node was bound, or zero.
func (n *Node) Handle() physics.Handle { return n.handle }

// Find returns the first node named name in depth-first order.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Path is the slash-joined list of names from the root to n.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (n *Node) NodeName() string { return n.Name }

func (n *Node) BodyKind() (physics.BodyKind, bool) { return n.kind, n.eligible }

func (n *Node) BodyConfig() physics.BodyConfig {
	if n.Body == nil {
		return physics.DefaultBodyConfig()
	}
	return n.Body.BodyConfig
}

func (n *Node) localScale() cp.Vector {
	s := n.Scale.Vector()
	if n.Scale.IsZero() {
		return cp.Vector{X: 1, Y: 1}
	}
	return s
}

// Transform is n's global placement, composed through its ancestors.
func (n *Node) Transform() physics.Transform {
	t := physics.Transform{
		Position: n.Position.Vector(),
		Rotation: n.Rotation,
		Scale:    n.localScale(),
	}
	if n.parent == nil {
		return t
	}
	g := n.parent.Transform()
	local := cp.Vector{X: t.Position.X * g.Scale.X, Y: t.Position.Y * g.Scale.Y}
	return physics.Transform{
		Position: g.Position.Add(local.Rotate(cp.ForAngle(g.Rotation))),
		Rotation: g.Rotation + t.Rotation,
		Scale:    cp.Vector{X: g.Scale.X * t.Scale.X, Y: g.Scale.Y * t.Scale.Y},
	}
}

// SetTransform stores a global placement as n's local position and
// rotation. Scale is not written back.
func (n *Node) SetTransform(t physics.Transform) {
	if n.parent == nil {
		n.Position = VecOf(t.Position)
		n.Rotation = t.Rotation
		return
	}
	g := n.parent.Transform()
	local := t.Position.Sub(g.Position).Rotate(cp.ForAngle(-g.Rotation))
	if g.Scale.X != 0 {
		local.X /= g.Scale.X
	}
	if g.Scale.Y != 0 {
		local.Y /= g.Scale.Y
	}
	n.Position = VecOf(local)
	n.Rotation = t.Rotation - g.Rotation
}

// ShapeDecls collects the enabled shape children of n.
func (n *Node) ShapeDecls() []physics.ShapeDecl {
	var out []physics.ShapeDecl
	for _, c := range n.Children {
		if c.Disabled {
			continue
		}
		switch c.Type {
		case TypeCollisionShape2D:
			out = append(out, c.shapeDecl())
		case TypeCollisionPolygon2D:
			decl := physics.Polygon(vectors(c.Polygon)...)
			out = append(out, c.place(decl))
		}
	}
	return out
}

func (n *Node) shapeDecl() physics.ShapeDecl {
	size := n.Size
	if size.IsZero() {
		size = Vec{32, 32}
	}
	kind, ok := physics.ParseShapeKind(n.Shape)
	if !ok {
		// unknown names fall through to the rectangle default
		kind = physics.ShapeRectangle
	}

	var decl physics.ShapeDecl
	switch kind {
	case physics.ShapeCircle:
		r := n.Radius
		if r == 0 {
			r = math.Min(size[0], size[1]) / 2
		}
		decl = physics.Circle(r)
	case physics.ShapeCapsule:
		decl = capsuleDecl(n.Radius, n.Height, size)
	case physics.ShapeSegment:
		thickness := n.Thickness
		if thickness == 0 {
			thickness = 1
		}
		decl = physics.Segment(n.LineStart.Vector(), n.LineEnd.Vector(), thickness)
	case physics.ShapePolygon:
		decl = physics.Polygon(vectors(n.Points)...)
	default:
		decl = physics.Rect(size[0], size[1])
	}
	return n.place(decl)
}

// capsuleDecl uses radius and height when authored and otherwise fits the
// capsule to size, lying on its side when size is wider than tall.
func capsuleDecl(radius, height float64, size Vec) physics.ShapeDecl {
	if radius > 0 && height > 0 {
		return physics.Capsule(radius, height)
	}
	w, h := size[0], size[1]
	decl := physics.Capsule(math.Min(w, h)/2, math.Max(w, h))
	if w > h {
		decl.Rotation = math.Pi / 2
	}
	return decl
}

func (n *Node) place(decl physics.ShapeDecl) physics.ShapeDecl {
	decl.Offset = n.Position.Vector()
	decl.Rotation += n.Rotation
	return decl
}

func vectors(vs []Vec) []cp.Vector {
	out := make([]cp.Vector, len(vs))
	for i, v := range vs {
		out[i] = v.Vector()
	}
	return out
}
