package main

import (
	"log"
	"os"

	"github.com/abagaild/lupine-engine-sub002/prefabs"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Input answers script action queries from the keyboard and the first
// gamepad.
type Input struct {
	actions map[string][]ebiten.Key
}

// NewInput maps each action to the keys named in spec. Unknown key names are
// logged and skipped.
func NewInput(spec *prefabs.InputSpec) *Input {
	in := &Input{actions: make(map[string][]ebiten.Key)}
	if spec == nil {
		return in
	}
	for action, names := range spec.Actions {
		for _, name := range names {
			var k ebiten.Key
			if err := k.UnmarshalText([]byte(name)); err != nil {
				log.Printf("input: action %s: unknown key %q", action, name)
				continue
			}
			in.actions[action] = append(in.actions[action], k)
		}
	}
	return in
}

// Update handles keys that act on the sandbox itself.
func (i *Input) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		os.Exit(0)
	}
}

func (i *Input) Pressed(action string) bool {
	for _, k := range i.actions[action] {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	ids := ebiten.AppendGamepadIDs(nil)
	if len(ids) == 0 {
		return false
	}
	gid := ids[0]
	switch action {
	case "left":
		return ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickHorizontal) < -0.3
	case "right":
		return ebiten.StandardGamepadAxisValue(gid, ebiten.StandardGamepadAxisLeftStickHorizontal) > 0.3
	case "jump":
		return ebiten.IsStandardGamepadButtonPressed(gid, ebiten.StandardGamepadButtonRightBottom)
	}
	return false
}

func (i *Input) JustPressed(action string) bool {
	for _, k := range i.actions[action] {
		if inpututil.IsKeyJustPressed(k) {
			return true
		}
	}
	ids := ebiten.AppendGamepadIDs(nil)
	if len(ids) == 0 || action != "jump" {
		return false
	}
	return inpututil.IsStandardGamepadButtonJustPressed(ids[0], ebiten.StandardGamepadButtonRightBottom)
}
