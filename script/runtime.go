package script

import (
	"errors"
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Scripts define ready(engine, state) and update(engine, state). The whole
// compiled program runs once per call, so top-level values are constants
// and anything that must persist between frames lives in state.
const dispatchScript = `
if __phase == "ready" {
	ready(__engine, __state)
} else if __phase == "update" {
	update(__engine, __state)
}
`

var ErrNilRuntime = errors.New("script: nil runtime")

// Runtime is one compiled controller script with its persistent state.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	ready    bool
}

// Compile builds a runtime from script source.
func Compile(name string, src []byte) (*Runtime, error) {
	full := string(src) + "\n" + dispatchScript
	s := tengo.NewScript([]byte(full))
	_ = s.Add("__phase", "")
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})

	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &Runtime{
		name:     name,
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func (rt *Runtime) Name() string { return rt.name }

// State returns the script's persistent state as Go values.
func (rt *Runtime) State() map[string]any {
	if rt == nil {
		return nil
	}
	out := make(map[string]any, len(rt.state.Value))
	for k, v := range rt.state.Value {
		out[k] = tengo.ToInterface(v)
	}
	return out
}

// Update runs ready on the first call and update on every call.
func (rt *Runtime) Update(engine *tengo.ImmutableMap) error {
	if rt == nil || rt.compiled == nil {
		return ErrNilRuntime
	}
	if !rt.ready {
		if err := rt.run("ready", engine); err != nil {
			return err
		}
		rt.ready = true
	}
	return rt.run("update", engine)
}

func (rt *Runtime) run(phase string, engine *tengo.ImmutableMap) error {
	if engine == nil {
		engine = &tengo.ImmutableMap{Value: map[string]tengo.Object{}}
	}
	if err := rt.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return err
	}
	if err := rt.compiled.Run(); err != nil {
		return fmt.Errorf("script: %s %s: %w", rt.name, phase, err)
	}
	return nil
}
