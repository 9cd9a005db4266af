package scene

import (
	"fmt"
	"io/fs"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/jakecoffman/cp"
	"github.com/lafriks/go-tiled"
)

// LoadTiled imports the object groups of a Tiled map as a scene. Each group
// becomes a Node2D and each object a body node whose type is the object's
// class, StaticBody2D when unset. Tiled's y-down pixel space is flipped to
// y-up with the map's bottom edge at y=0.
//
// Object custom properties override the body configuration by field name
// (mass, friction, collision_layer, safe_margin and so on); "body_kind" and
// "script" set the matching node fields. A map property "gravity" sets the
// downward gravity magnitude.
func LoadTiled(fsys fs.FS, path string) (*Document, error) {
	levelMap, err := tiled.LoadFile(path, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("scene: load TMX %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := &Document{
		Name: name,
		Root: &Node{Name: name, Type: TypeNode2D},
	}
	if props := levelMap.Properties; props != nil && props.GetString("gravity") != "" {
		cfg := physics.DefaultConfig()
		cfg.Gravity = cp.Vector{Y: -props.GetFloat("gravity")}
		doc.World = &WorldSpec{Config: cfg}
	}

	mapHeight := float64(levelMap.Height * levelMap.TileHeight)
	for _, og := range levelMap.ObjectGroups {
		group := &Node{Name: og.Name, Type: TypeNode2D}
		for _, o := range og.Objects {
			n, err := tiledObject(o, mapHeight)
			if err != nil {
				return nil, fmt.Errorf("scene: load TMX %s: object %d: %w", path, o.ID, err)
			}
			group.Children = append(group.Children, n)
		}
		doc.Root.Children = append(doc.Root.Children, group)
	}
	doc.Root.Link()
	return doc, nil
}

func tiledObject(o *tiled.Object, mapHeight float64) (*Node, error) {
	class := o.Class
	if class == "" {
		class = o.Type //nolint:staticcheck
	}
	typ := class
	if typ == "" {
		typ = TypeStaticBody2D
	}
	if _, ok := bodyKinds[typ]; !ok && typ != TypeNode2D {
		log.Printf("scene: object %d class %q is not a body type; importing as %s", o.ID, class, TypeStaticBody2D)
		typ = TypeStaticBody2D
	}

	name := o.Name
	if name == "" {
		name = fmt.Sprintf("%s_%d", typ, o.ID)
	}

	// Tiled rotates clockwise in degrees about the object's top-left corner.
	origin := cp.Vector{X: o.X, Y: mapHeight - o.Y}
	rot := -o.Rotation * math.Pi / 180
	n := &Node{Name: name, Type: typ, Rotation: rot}

	var shapes []*Node
	switch {
	case len(o.Polygons) > 0 && o.Polygons[0].Points != nil:
		n.Position = VecOf(origin)
		var pts []Vec
		for _, p := range *o.Polygons[0].Points {
			pts = append(pts, Vec{p.X, -p.Y})
		}
		shapes = append(shapes, &Node{Name: "polygon", Type: TypeCollisionPolygon2D, Polygon: pts})

	case len(o.PolyLines) > 0 && o.PolyLines[0].Points != nil:
		n.Position = VecOf(origin)
		pts := *o.PolyLines[0].Points
		for i := 1; i < len(pts); i++ {
			shapes = append(shapes, &Node{
				Name:      fmt.Sprintf("segment_%d", i-1),
				Type:      TypeCollisionShape2D,
				Shape:     "line",
				LineStart: Vec{pts[i-1].X, -pts[i-1].Y},
				LineEnd:   Vec{pts[i].X, -pts[i].Y},
			})
		}

	case o.Width > 0 && o.Height > 0:
		center := cp.Vector{X: o.Width / 2, Y: -o.Height / 2}.Rotate(cp.ForAngle(rot))
		n.Position = VecOf(origin.Add(center))
		shape := &Node{Name: "shape", Type: TypeCollisionShape2D, Shape: "rectangle", Size: Vec{o.Width, o.Height}}
		if len(o.Ellipses) > 0 {
			if o.Width == o.Height {
				shape.Shape, shape.Radius = "circle", o.Width/2
			} else {
				shape.Shape = "capsule"
			}
		}
		shapes = append(shapes, shape)

	default:
		// points and zero-sized objects are markers
		n.Position = VecOf(origin)
		if class == "" {
			n.Type = TypeNode2D
		}
	}
	n.Children = shapes

	if err := applyProperties(n, o.Properties); err != nil {
		return nil, err
	}
	return n, nil
}

func applyProperties(n *Node, props tiled.Properties) error {
	var body *Body
	cfg := func() *physics.BodyConfig {
		if body == nil {
			body = DefaultBody()
		}
		return &body.BodyConfig
	}
	for _, p := range props {
		if p == nil {
			continue
		}
		var err error
		switch p.Name {
		case "script":
			n.Script = p.Value
		case "body_kind":
			n.KindOverride = p.Value
		case "mass":
			err = parseFloat(p.Value, &cfg().Mass)
		case "friction":
			err = parseFloat(p.Value, &cfg().Friction)
		case "restitution":
			err = parseFloat(p.Value, &cfg().Restitution)
		case "collision_layer":
			err = parseUint32(p.Value, &cfg().Layer)
		case "collision_mask":
			err = parseUint32(p.Value, &cfg().Mask)
		case "safe_margin":
			err = parseFloat(p.Value, &cfg().SafeMargin)
		case "floor_max_angle":
			err = parseFloat(p.Value, &cfg().FloorMaxAngle)
		case "max_slides":
			cfg().MaxSlides, err = strconv.Atoi(p.Value)
		case "snap_distance":
			err = parseFloat(p.Value, &cfg().SnapDistance)
		case "gravity_scale":
			err = parseFloat(p.Value, &cfg().GravityScale)
		case "fixed_rotation":
			cfg().FixedRotation, err = strconv.ParseBool(p.Value)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
	}
	n.Body = body
	return nil
}

func parseFloat(s string, dst *float64) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseUint32(s string, dst *uint32) error {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return err
	}
	*dst = uint32(v)
	return nil
}
