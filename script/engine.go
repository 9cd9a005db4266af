package script

import (
	"log"
	"strings"

	"github.com/abagaild/lupine-engine-sub002/motion"
	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/d5/tengo/v2"
	"github.com/jakecoffman/cp"
)

// Input answers action queries from scripts.
type Input interface {
	Pressed(action string) bool
	JustPressed(action string) bool
}

type noInput struct{}

func (noInput) Pressed(string) bool     { return false }
func (noInput) JustPressed(string) bool { return false }

// frame is what one script call can reach: the world, the body it drives
// and, for Kinematic bodies, its motion controller.
type frame struct {
	world  *physics.World
	handle physics.Handle
	ctrl   *motion.Controller
	input  Input
	dt     float64
	name   string
}

func buildEngine(f *frame) *tengo.ImmutableMap {
	values := map[string]tengo.Object{
		"dt": &tengo.Float{Value: f.dt},
	}
	fn := func(name string, impl func(args ...tengo.Object) (tengo.Object, error)) {
		values[name] = &tengo.UserFunction{Name: name, Value: impl}
	}

	fn("move_and_slide", func(args ...tengo.Object) (tengo.Object, error) {
		v, ok := vecArgs(args)
		if !ok || f.ctrl == nil {
			return tengo.FalseValue, nil
		}
		f.ctrl.SetVelocity(v)
		res := f.ctrl.MoveAndSlideStored(f.dt)
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"velocity":   vecObject(res.Velocity),
			"remaining":  vecObject(res.Remaining),
			"on_floor":   boolObject(res.OnFloor),
			"on_wall":    boolObject(res.OnWall),
			"on_ceiling": boolObject(res.OnCeiling),
			"slides":     &tengo.Int{Value: int64(res.Slides)},
		}}, nil
	})

	fn("move_and_collide", func(args ...tengo.Object) (tengo.Object, error) {
		delta, ok := vecArgs(args)
		if !ok || f.ctrl == nil {
			return tengo.FalseValue, nil
		}
		col, hit := f.ctrl.MoveAndCollide(delta)
		if !hit {
			return tengo.FalseValue, nil
		}
		other := ""
		if name, ok := f.world.Name(col.Body); ok {
			other = name
		}
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"body":      &tengo.String{Value: other},
			"point":     vecObject(col.Point),
			"normal":    vecObject(col.Normal),
			"travel":    vecObject(col.Travel),
			"remainder": vecObject(col.Remainder),
		}}, nil
	})

	fn("is_on_floor", func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(f.ctrl != nil && f.ctrl.IsOnFloor()), nil
	})
	fn("is_on_wall", func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(f.ctrl != nil && f.ctrl.IsOnWall()), nil
	})
	fn("is_on_ceiling", func(args ...tengo.Object) (tengo.Object, error) {
		return boolObject(f.ctrl != nil && f.ctrl.IsOnCeiling()), nil
	})
	fn("get_floor_normal", func(args ...tengo.Object) (tengo.Object, error) {
		if f.ctrl == nil {
			return vecObject(cp.Vector{}), nil
		}
		return vecObject(f.ctrl.FloorNormal()), nil
	})

	fn("apply_floor_snap", func(args ...tengo.Object) (tengo.Object, error) {
		if f.ctrl == nil {
			return tengo.FalseValue, nil
		}
		if len(args) > 0 {
			if d, ok := tengo.ToFloat64(args[0]); ok {
				return boolObject(f.ctrl.ApplyFloorSnap(d)), nil
			}
		}
		return boolObject(f.ctrl.Snap()), nil
	})

	fn("get_velocity", func(args ...tengo.Object) (tengo.Object, error) {
		v, _ := f.world.Velocity(f.handle)
		return vecObject(v), nil
	})
	fn("set_velocity", func(args ...tengo.Object) (tengo.Object, error) {
		v, ok := vecArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		return boolObject(f.world.SetVelocity(f.handle, v)), nil
	})
	fn("get_position", func(args ...tengo.Object) (tengo.Object, error) {
		p, _ := f.world.Position(f.handle)
		return vecObject(p), nil
	})
	fn("set_position", func(args ...tengo.Object) (tengo.Object, error) {
		p, ok := vecArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		return boolObject(f.world.SetPosition(f.handle, p)), nil
	})
	fn("apply_impulse", func(args ...tengo.Object) (tengo.Object, error) {
		v, ok := vecArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		return boolObject(f.world.ApplyImpulse(f.handle, v)), nil
	})
	fn("apply_force", func(args ...tengo.Object) (tengo.Object, error) {
		v, ok := vecArgs(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		return boolObject(f.world.ApplyForce(f.handle, v)), nil
	})
	fn("gravity", func(args ...tengo.Object) (tengo.Object, error) {
		return vecObject(f.world.Gravity()), nil
	})

	fn("raycast", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		a, okA := vecArgs(args[:1])
		b, okB := vecArgs(args[1:2])
		if !okA || !okB {
			return tengo.FalseValue, nil
		}
		hit, ok := f.world.Raycast(a, b, physics.QueryFilter{Exclude: f.handle})
		if !ok {
			return tengo.FalseValue, nil
		}
		name, _ := f.world.Name(hit.Body)
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"body":     &tengo.String{Value: name},
			"point":    vecObject(hit.Point),
			"normal":   vecObject(hit.Normal),
			"distance": &tengo.Float{Value: hit.Distance},
		}}, nil
	})

	fn("pressed", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		return boolObject(f.input.Pressed(objectAsString(args[0]))), nil
	})
	fn("just_pressed", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		return boolObject(f.input.JustPressed(objectAsString(args[0]))), nil
	})

	fn("log", func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("script: %s: %s", f.name, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	})

	return &tengo.ImmutableMap{Value: values}
}

// vecArgs accepts either two numbers or one [x, y] array.
func vecArgs(args []tengo.Object) (cp.Vector, bool) {
	switch len(args) {
	case 1:
		arr, ok := args[0].(*tengo.Array)
		if !ok || len(arr.Value) != 2 {
			return cp.Vector{}, false
		}
		return vecArgs(arr.Value)
	case 2:
		x, okX := tengo.ToFloat64(args[0])
		y, okY := tengo.ToFloat64(args[1])
		if !okX || !okY {
			return cp.Vector{}, false
		}
		return cp.Vector{X: x, Y: y}, true
	}
	return cp.Vector{}, false
}

func vecObject(v cp.Vector) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
