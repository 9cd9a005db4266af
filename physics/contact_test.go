package physics

import (
	"testing"

	"github.com/jakecoffman/cp"
)

func TestAreaEvents(t *testing.T) {
	w := newTestWorld(t)
	zone := mustAdd(t, w, newNode("zone", BodyArea, cp.Vector{}, Rect(64, 64)))
	player := mustAdd(t, w, newNode("player", BodyKinematic, cp.Vector{X: 200}, Rect(10, 10)))

	var events []AreaEvent
	w.OnAreaEvent(func(e AreaEvent) { events = append(events, e) })

	step := func() {
		t.Helper()
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	step()
	if len(events) != 0 {
		t.Fatalf("unexpected events before overlap: %+v", events)
	}

	w.SetPosition(player, cp.Vector{})
	step()
	if len(events) != 1 || events[0].Signal() != "body_entered" || events[0].Area != zone || events[0].Other != player {
		t.Fatalf("expected body_entered, got %+v", events)
	}
	if got := w.OverlappingBodies(zone); len(got) != 1 || got[0] != player {
		t.Fatalf("OverlappingBodies = %v", got)
	}

	step()
	if len(events) != 1 {
		t.Fatalf("staying inside must not re-enter: %+v", events)
	}

	w.SetPosition(player, cp.Vector{X: 200})
	step()
	if len(events) != 2 || events[1].Signal() != "body_exited" {
		t.Fatalf("expected body_exited, got %+v", events)
	}
	if got := w.OverlappingBodies(zone); len(got) != 0 {
		t.Fatalf("OverlappingBodies after exit = %v", got)
	}
}

func TestAreaOverlapsArea(t *testing.T) {
	w := newTestWorld(t)
	a := mustAdd(t, w, newNode("a", BodyArea, cp.Vector{}, Rect(20, 20)))
	b := mustAdd(t, w, newNode("b", BodyArea, cp.Vector{X: 10}, Rect(20, 20)))

	var signals []string
	w.OnAreaEvent(func(e AreaEvent) { signals = append(signals, e.Signal()) })
	if err := w.Step(1.0 / 60); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(signals) != 2 || signals[0] != "area_entered" || signals[1] != "area_entered" {
		t.Fatalf("both areas should see area_entered, got %v", signals)
	}
	if got := w.OverlappingAreas(a); len(got) != 1 || got[0] != b {
		t.Fatalf("OverlappingAreas(a) = %v", got)
	}
	if got := w.OverlappingBodies(a); len(got) != 0 {
		t.Fatalf("areas are not bodies: %v", got)
	}
}

func TestRemoveNodeEmitsExit(t *testing.T) {
	w := newTestWorld(t)
	zone := mustAdd(t, w, newNode("zone", BodyArea, cp.Vector{}, Rect(64, 64)))
	coin := mustAdd(t, w, newNode("coin", BodyKinematic, cp.Vector{}, Circle(4)))

	var events []AreaEvent
	w.OnAreaEvent(func(e AreaEvent) { events = append(events, e) })
	if err := w.Step(1.0 / 60); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if err := w.RemoveNode(coin); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if len(events) != 2 || events[1].Entered || events[1].Other != coin || events[1].Area != zone {
		t.Fatalf("expected enter then exit, got %+v", events)
	}
	if got := w.OverlappingBodies(zone); len(got) != 0 {
		t.Fatalf("removed body still overlapping: %v", got)
	}
}

func TestAreaRespectsLayers(t *testing.T) {
	w := newTestWorld(t)
	zone := newNode("zone", BodyArea, cp.Vector{}, Rect(64, 64))
	zone.cfg.Layer, zone.cfg.Mask = 0b100, 0b100
	mustAdd(t, w, zone)
	mustAdd(t, w, newNode("ghost", BodyKinematic, cp.Vector{}, Rect(10, 10)))

	fired := false
	w.OnAreaEvent(func(AreaEvent) { fired = true })
	if err := w.Step(1.0 / 60); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if fired {
		t.Fatalf("layer-filtered pair produced an area event")
	}
}

func TestOnBodyContactOrientation(t *testing.T) {
	w := newTestWorld(t)
	floor := mustAdd(t, w, newNode("floor", BodyStatic, cp.Vector{Y: -10}, Rect(400, 20)))
	crate := mustAdd(t, w, newNode("crate", BodyDynamic, cp.Vector{Y: 20}, Rect(32, 32)))

	var fromCrate, fromFloor []Contact
	w.OnBodyContact(crate, func(c Contact) { fromCrate = append(fromCrate, c) })
	w.OnBodyContact(floor, func(c Contact) { fromFloor = append(fromFloor, c) })

	for i := 0; i < 120 && len(fromCrate) == 0; i++ {
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if len(fromCrate) != 1 || len(fromFloor) != 1 {
		t.Fatalf("expected one contact per side, got crate=%d floor=%d", len(fromCrate), len(fromFloor))
	}
	if fromCrate[0].A != crate || fromCrate[0].B != floor {
		t.Fatalf("crate contact not oriented: %+v", fromCrate[0])
	}
	if !nearVec(fromCrate[0].Normal, cp.Vector{Y: 1}, 1e-6) {
		t.Fatalf("crate contact normal %v should point up out of the floor", fromCrate[0].Normal)
	}
	if fromFloor[0].A != floor || !nearVec(fromFloor[0].Normal, cp.Vector{Y: -1}, 1e-6) {
		t.Fatalf("floor contact not oriented: %+v", fromFloor[0])
	}
	if fromCrate[0].Depth < 0 {
		t.Fatalf("depth %v should not be negative", fromCrate[0].Depth)
	}
}

func TestLayerFilteredBodiesPassThrough(t *testing.T) {
	w := newTestWorld(t)
	mustAdd(t, w, newNode("floor", BodyStatic, cp.Vector{Y: -10}, Rect(400, 20)))
	ghost := newNode("ghost", BodyDynamic, cp.Vector{Y: 20}, Rect(32, 32))
	ghost.cfg.Layer, ghost.cfg.Mask = 0b10, 0b10
	h := mustAdd(t, w, ghost)

	contacts := 0
	w.OnContact(func(Contact) { contacts++ })
	for i := 0; i < 60; i++ {
		if err := w.Step(1.0 / 60); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if contacts != 0 {
		t.Fatalf("filtered pair produced %d contacts", contacts)
	}
	if pos, _ := w.Position(h); pos.Y > -20 {
		t.Fatalf("filtered body should fall through the floor, at %v", pos)
	}
}

func TestContactSwap(t *testing.T) {
	c := Contact{
		A: 1, B: 2, ShapeA: 0, ShapeB: 3,
		Point:  cp.Vector{X: 0, Y: -1},
		Normal: cp.Vector{Y: 1},
		Depth:  2,
	}
	s := c.Swap()
	if s.A != 2 || s.B != 1 || s.ShapeA != 3 || s.ShapeB != 0 {
		t.Fatalf("ids not swapped: %+v", s)
	}
	if !nearVec(s.Normal, cp.Vector{Y: -1}, 0) || !nearVec(s.Point, cp.Vector{X: 0, Y: 1}, 0) {
		t.Fatalf("geometry not swapped: %+v", s)
	}
	if s.Swap() != c {
		t.Fatalf("double swap should round trip")
	}
}
