package motion

import "github.com/abagaild/lupine-engine-sub002/physics"

// Set keeps one controller per Kinematic body so contact flags survive
// between frames.
type Set struct {
	world *physics.World
	byID  map[physics.Handle]*Controller
}

func NewSet(world *physics.World) *Set {
	return &Set{world: world, byID: make(map[physics.Handle]*Controller)}
}

// Get returns the controller for h, creating it on first use. It fails for
// handles that do not name a live Kinematic body.
func (s *Set) Get(h physics.Handle) (*Controller, bool) {
	if s == nil || s.world == nil {
		return nil, false
	}
	if c, ok := s.byID[h]; ok {
		if c.Valid() {
			return c, true
		}
		delete(s.byID, h)
		return nil, false
	}
	if kind, ok := s.world.Kind(h); !ok || kind != physics.BodyKinematic {
		return nil, false
	}
	c := New(s.world, h)
	s.byID[h] = c
	return c, true
}

// Prune drops controllers whose bodies were removed and reports how many.
func (s *Set) Prune() int {
	if s == nil {
		return 0
	}
	n := 0
	for h, c := range s.byID {
		if !c.Valid() {
			delete(s.byID, h)
			n++
		}
	}
	return n
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}
