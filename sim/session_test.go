package sim

import (
	"errors"
	"strings"
	"testing"

	"github.com/abagaild/lupine-engine-sub002/prefabs"
	"github.com/abagaild/lupine-engine-sub002/scene"
)

func find(t *testing.T, s *Session, name string) Snapshot {
	t.Helper()
	for _, snap := range s.Snapshots() {
		if snap.Name == name {
			return snap
		}
	}
	t.Fatalf("no body %q", name)
	return Snapshot{}
}

func TestSandboxPlayerLands(t *testing.T) {
	s, err := Open("sandbox.yaml", Options{Strict: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 90; i++ {
		if err := s.Step(1.0/60, nil); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if s.Frames != 90 {
		t.Fatalf("frames = %d", s.Frames)
	}

	player := find(t, s, "player")
	if !player.OnFloor || player.OnWall || player.OnCeiling {
		t.Fatalf("player flags: %v", player)
	}
	if player.Y < 24 || player.Y > 24.2 {
		t.Fatalf("player should rest on the floor, y=%v", player.Y)
	}
	if !strings.Contains(player.String(), " floor") {
		t.Fatalf("String() = %q", player.String())
	}

	platform := find(t, s, "platform")
	if platform.X == 1040 {
		t.Fatalf("platform script did not move it")
	}
	if crate := find(t, s, "crate"); crate.Y >= 300 {
		t.Fatalf("crate did not fall, y=%v", crate.Y)
	}
}

func TestSessionBody(t *testing.T) {
	s, err := Open("sandbox", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for _, c := range []struct {
		name string
		ok   bool
	}{
		{"player", true},
		{"ledge", true},
		{"sandbox", false},
		{"missing", false},
	} {
		t.Run(c.name, func(t *testing.T) {
			if _, ok := s.Body(c.name); ok != c.ok {
				t.Fatalf("Body(%q) ok = %v, want %v", c.name, ok, c.ok)
			}
		})
	}
}

const hopper = `
name: hop
root:
  name: hop
  type: Node2D
  children:
    - name: floor
      type: StaticBody2D
      children:
        - {name: shape, type: CollisionShape2D, size: [400, 20]}
    - name: hopper
      type: KinematicBody2D
      position: [0, 30]
      script: hopper
      children:
        - {name: shape, type: CollisionShape2D, size: [10, 10]}
`

func TestBuildAndReload(t *testing.T) {
	doc, err := scene.Parse([]byte(hopper))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := map[string]string{
		"hopper": "ready := func(e, s) {}\nupdate := func(e, s) { s.v = 1 }",
	}
	opts := Options{Strict: true, Loader: func(name string) ([]byte, error) {
		return []byte(src[name]), nil
	}}
	s, err := Build(doc, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h, ok := s.Body("hopper")
	if !ok {
		t.Fatalf("hopper not bound")
	}
	if err := s.Step(1.0/60, nil); err != nil {
		t.Fatalf("Step: %v", err)
	}

	src["hopper"] = "ready := func(e, s) {}\nupdate := func(e, s) { s.v = 2 }"
	next, err := s.Reload(prefabs.Change{Path: "prefabs/scripts/hopper.tengo", Script: true}, opts)
	if err != nil || next != s {
		t.Fatalf("script reload = %v, %v", next, err)
	}
	if err := s.Step(1.0/60, nil); err != nil {
		t.Fatalf("Step: %v", err)
	}
	rt, _ := s.Host.Runtime(h)
	if rt.State()["v"] != int64(2) {
		t.Fatalf("state after reload = %v", rt.State())
	}

	if _, err := s.Reload(prefabs.Change{Path: "hop.yaml"}, opts); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := Build(nil, Options{}); !errors.Is(err, scene.ErrNoRoot) {
		t.Fatalf("nil doc: %v", err)
	}

	doc, err := scene.Parse([]byte(hopper))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	missing := Options{Strict: true, Loader: func(name string) ([]byte, error) {
		return nil, errors.New("gone")
	}}
	if _, err := Build(doc, missing); err == nil {
		t.Fatalf("strict build should fail on a missing script")
	}

	doc, _ = scene.Parse([]byte(hopper))
	missing.Strict = false
	s, err := Build(doc, missing)
	if err != nil {
		t.Fatalf("lenient build: %v", err)
	}
	if s.World.Len() != 2 || s.Host.Len() != 0 {
		t.Fatalf("lenient build: bodies=%d scripts=%d", s.World.Len(), s.Host.Len())
	}
}
