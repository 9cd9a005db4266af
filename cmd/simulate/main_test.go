package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const crateScene = `
name: drop
root:
  name: drop
  type: Node2D
  children:
    - name: floor
      type: StaticBody2D
      children:
        - {name: shape, type: CollisionShape2D, size: [400, 20]}
    - name: crate
      type: RigidBody2D
      position: [0, 100]
      children:
        - {name: shape, type: CollisionShape2D, size: [10, 10]}
`

func TestRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.yaml")
	if err := os.WriteFile(path, []byte(crateScene), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}

	var out bytes.Buffer
	if err := run(&out, path, 60, 60, 30, true, ""); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{"frame 30\n", "frame 60\n", "crate", "floor"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Count(text, "frame ") != 2 {
		t.Fatalf("expected two reports:\n%s", text)
	}
}

func TestRunEmbeddedScene(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, "sandbox", 30, 60, 0, true, "right"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "player") {
		t.Fatalf("output missing player:\n%s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	cases := []struct {
		name  string
		scene string
		tps   int
	}{
		{"bad_tps", "sandbox", 0},
		{"missing_scene", "nowhere.yaml", 60},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := run(&bytes.Buffer{}, c.scene, 1, c.tps, 0, false, ""); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
