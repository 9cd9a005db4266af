package script

import (
	"errors"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"

	"github.com/abagaild/lupine-engine-sub002/motion"
	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/abagaild/lupine-engine-sub002/prefabs"
	"github.com/abagaild/lupine-engine-sub002/scene"
)

// Loader returns the source of a named script.
type Loader func(name string) ([]byte, error)

type attached struct {
	name   string
	rt     *Runtime
	failed bool
}

// Host runs one script per body. Kinematic bodies get a motion controller
// that survives between frames.
type Host struct {
	world    *physics.World
	motion   *motion.Set
	load     Loader
	attached map[physics.Handle]*attached
	order    []physics.Handle
}

// NewHost creates a host reading scripts through load, or from prefabs when
// load is nil.
func NewHost(world *physics.World, load Loader) *Host {
	if load == nil {
		load = prefabs.LoadScript
	}
	return &Host{
		world:    world,
		motion:   motion.NewSet(world),
		load:     load,
		attached: make(map[physics.Handle]*attached),
	}
}

func (h *Host) Controllers() *motion.Set { return h.motion }

func (h *Host) Len() int { return len(h.attached) }

// Attach compiles name and binds it to a body, replacing any script the
// body already had.
func (h *Host) Attach(handle physics.Handle, name string) error {
	if h == nil || h.world == nil {
		return physics.ErrMissingWorld
	}
	if !h.world.Has(handle) {
		return fmt.Errorf("script: attach %s to %v: %w", name, handle, physics.ErrInvalidHandle)
	}
	rt, err := h.compile(name)
	if err != nil {
		return err
	}
	if _, ok := h.attached[handle]; !ok {
		h.order = append(h.order, handle)
	}
	h.attached[handle] = &attached{name: name, rt: rt}
	return nil
}

func (h *Host) compile(name string) (*Runtime, error) {
	src, err := h.load(name)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", name, err)
	}
	return Compile(name, src)
}

// AttachScene attaches the script named on every bound node that has one.
// Failures are logged and joined; the other scripts still attach.
func (h *Host) AttachScene(b *scene.Binder) error {
	var errs []error
	for _, handle := range b.Handles() {
		n, ok := b.Node(handle)
		if !ok || n.Script == "" {
			continue
		}
		if err := h.Attach(handle, n.Script); err != nil {
			log.Printf("script: %s: %v", n.Path(), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Host) Detach(handle physics.Handle) {
	if _, ok := h.attached[handle]; !ok {
		return
	}
	delete(h.attached, handle)
	for i, o := range h.order {
		if o == handle {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Runtime returns the script attached to handle.
func (h *Host) Runtime(handle physics.Handle) (*Runtime, bool) {
	a, ok := h.attached[handle]
	if !ok {
		return nil, false
	}
	return a.rt, true
}

// Update runs every attached script once, in attach order. Scripts on
// removed bodies are dropped. A script that fails is logged once and skipped
// until it is reloaded.
func (h *Host) Update(dt float64, in Input) {
	if h == nil || h.world == nil {
		return
	}
	if in == nil {
		in = noInput{}
	}
	pruned := false
	for _, handle := range append([]physics.Handle(nil), h.order...) {
		a := h.attached[handle]
		if !h.world.Has(handle) {
			h.Detach(handle)
			pruned = true
			continue
		}
		if a.failed {
			continue
		}
		name, _ := h.world.Name(handle)
		ctrl, _ := h.motion.Get(handle)
		engine := buildEngine(&frame{
			world:  h.world,
			handle: handle,
			ctrl:   ctrl,
			input:  in,
			dt:     dt,
			name:   name,
		})
		if err := a.rt.Update(engine); err != nil {
			log.Printf("script: body=%v %s: %v", handle, name, err)
			a.failed = true
		}
	}
	if pruned {
		h.motion.Prune()
	}
}

// Reload recompiles every runtime loaded from the script at path and resets
// its state. It reports how many bodies were reloaded.
func (h *Host) Reload(changed string) (int, error) {
	key := scriptKey(changed)
	n := 0
	for _, handle := range h.order {
		a := h.attached[handle]
		if scriptKey(a.name) != key {
			continue
		}
		rt, err := h.compile(a.name)
		if err != nil {
			return n, err
		}
		a.rt, a.failed = rt, false
		n++
	}
	return n, nil
}

func scriptKey(name string) string {
	base := path.Base(filepath.ToSlash(name))
	return strings.TrimSuffix(base, path.Ext(base))
}
