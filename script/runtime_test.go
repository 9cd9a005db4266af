package script

import (
	"strings"
	"testing"
)

func TestCompileRequiresEntryPoints(t *testing.T) {
	cases := []struct {
		name string
		src  string
		ok   bool
	}{
		{"both", "ready := func(e, s) {}\nupdate := func(e, s) {}", true},
		{"missing_ready", "update := func(e, s) {}", false},
		{"missing_update", "ready := func(e, s) {}", false},
		{"syntax", "ready := func(e, s) {", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compile(c.name, []byte(c.src))
			if (err == nil) != c.ok {
				t.Fatalf("Compile error = %v, want ok=%v", err, c.ok)
			}
		})
	}
}

func TestRuntimeReadyOnceAndState(t *testing.T) {
	src := `
ready := func(engine, state) {
	state.readies = is_undefined(state.readies) ? 1 : state.readies + 1
}
update := func(engine, state) {
	state.ticks = is_undefined(state.ticks) ? 1 : state.ticks + 1
}
`
	rt, err := Compile("counter", []byte(src))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := rt.Update(nil); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	state := rt.State()
	if state["readies"] != int64(1) || state["ticks"] != int64(3) {
		t.Fatalf("state = %v", state)
	}
}

func TestRuntimeError(t *testing.T) {
	rt, err := Compile("broken", []byte("ready := func(e, s) {}\nupdate := func(e, s) { e.nope() }"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	err = rt.Update(nil)
	if err == nil || !strings.Contains(err.Error(), "broken update") {
		t.Fatalf("expected a wrapped update error, got %v", err)
	}

	var nilRT *Runtime
	if err := nilRT.Update(nil); err != ErrNilRuntime {
		t.Fatalf("nil runtime: %v", err)
	}
}
