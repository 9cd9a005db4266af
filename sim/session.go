package sim

import (
	"errors"
	"fmt"
	"log"

	"github.com/abagaild/lupine-engine-sub002/physics"
	"github.com/abagaild/lupine-engine-sub002/prefabs"
	"github.com/abagaild/lupine-engine-sub002/scene"
	"github.com/abagaild/lupine-engine-sub002/script"
)

// ErrNoSource is returned when reloading a session built from an in-memory
// document.
var ErrNoSource = errors.New("sim: session has no source")

// Options controls how a scene is turned into a running session.
type Options struct {
	// Strict aborts on the first binding problem or script error instead of
	// logging it and carrying on.
	Strict bool
	// Loader reads scripts. Nil reads them from prefabs.
	Loader script.Loader
}

// Session is one bound scene: its world, the node tree bound into it and the
// scripts driving its bodies.
type Session struct {
	// Source is the prefabs name the scene was opened from, if any.
	Source string
	Doc    *scene.Document
	World  *physics.World
	Binder *scene.Binder
	Host   *script.Host
	Frames int
}

// Open loads a scene from prefabs and builds a session from it.
func Open(name string, opts Options) (*Session, error) {
	doc, err := prefabs.LoadScene(name)
	if err != nil {
		return nil, err
	}
	s, err := Build(doc, opts)
	if err != nil {
		return nil, err
	}
	s.Source = name
	return s, nil
}

// Build binds doc into a fresh world and attaches its scripts.
func Build(doc *scene.Document, opts Options) (*Session, error) {
	if doc == nil || doc.Root == nil {
		return nil, scene.ErrNoRoot
	}
	world, err := physics.NewWorld(doc.Config())
	if err != nil {
		return nil, fmt.Errorf("sim: world %s: %w", doc.Name, err)
	}

	binder := scene.NewBinder(world)
	binder.Strict = opts.Strict
	if _, err := binder.Bind(doc.Root); err != nil {
		if opts.Strict {
			return nil, fmt.Errorf("sim: bind %s: %w", doc.Name, err)
		}
		log.Printf("sim: %s bound with problems: %v", doc.Name, err)
	}

	host := script.NewHost(world, opts.Loader)
	if err := host.AttachScene(binder); err != nil && opts.Strict {
		return nil, fmt.Errorf("sim: scripts %s: %w", doc.Name, err)
	}

	log.Printf("sim: %s ready: bodies=%d scripts=%d", doc.Name, world.Len(), host.Len())
	return &Session{Doc: doc, World: world, Binder: binder, Host: host}, nil
}

// Step runs every script once, then advances the world by dt.
func (s *Session) Step(dt float64, in script.Input) error {
	if s == nil {
		return physics.ErrMissingWorld
	}
	s.Host.Update(dt, in)
	if err := s.World.Step(dt); err != nil {
		return err
	}
	s.Frames++
	return nil
}

// Body returns the handle of the bound node called name.
func (s *Session) Body(name string) (physics.Handle, bool) {
	if s == nil || s.Doc == nil {
		return 0, false
	}
	n := s.Doc.Root.Find(name)
	if n == nil || !s.World.Has(n.Handle()) {
		return 0, false
	}
	return n.Handle(), true
}

// Close unbinds every node so the document can be bound again.
func (s *Session) Close() error {
	if s == nil || s.Binder == nil {
		return nil
	}
	return s.Binder.UnbindAll()
}

// Reload applies one watched file change. Script edits recompile in place;
// anything else rebuilds the whole session from prefabs, keeping the old
// session when the new one fails to load.
func (s *Session) Reload(change prefabs.Change, opts Options) (*Session, error) {
	if change.Script {
		n, err := s.Host.Reload(change.Path)
		if err != nil {
			return s, err
		}
		log.Printf("sim: reloaded %s on %d bodies", change.Path, n)
		return s, nil
	}
	if s.Source == "" {
		return s, fmt.Errorf("sim: reload %s: %w", s.Doc.Name, ErrNoSource)
	}
	next, err := Open(s.Source, opts)
	if err != nil {
		return s, err
	}
	if err := s.Close(); err != nil {
		log.Printf("sim: close %s: %v", s.Doc.Name, err)
	}
	return next, nil
}

// Snapshot describes one body for printing.
type Snapshot struct {
	Name      string
	Kind      physics.BodyKind
	X, Y      float64
	VX, VY    float64
	OnFloor   bool
	OnWall    bool
	OnCeiling bool
}

// Snapshots lists every bound body in registration order.
func (s *Session) Snapshots() []Snapshot {
	var out []Snapshot
	for _, h := range s.World.Bodies() {
		name, _ := s.World.Name(h)
		kind, _ := s.World.Kind(h)
		pos, _ := s.World.Position(h)
		vel, _ := s.World.Velocity(h)
		snap := Snapshot{Name: name, Kind: kind, X: pos.X, Y: pos.Y, VX: vel.X, VY: vel.Y}
		if kind == physics.BodyKinematic {
			if ctrl, ok := s.Host.Controllers().Get(h); ok {
				snap.OnFloor, snap.OnWall, snap.OnCeiling = ctrl.IsOnFloor(), ctrl.IsOnWall(), ctrl.IsOnCeiling()
			}
		}
		out = append(out, snap)
	}
	return out
}

func (sn Snapshot) String() string {
	flags := ""
	if sn.OnFloor {
		flags += " floor"
	}
	if sn.OnWall {
		flags += " wall"
	}
	if sn.OnCeiling {
		flags += " ceiling"
	}
	return fmt.Sprintf("%-12s %-9s pos=(%.2f, %.2f) vel=(%.2f, %.2f)%s", sn.Name, sn.Kind, sn.X, sn.Y, sn.VX, sn.VY, flags)
}
