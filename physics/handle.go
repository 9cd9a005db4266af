package physics

import "strconv"

// Handle identifies a body registered with a World. Handles are values: a
// handle kept after its body is removed simply stops resolving.
type Handle uint64

type handleIndex uint32
type generation uint32

const handleIndexBits = 32

func makeHandle(idx handleIndex, gen generation) Handle {
	return Handle(uint64(gen)<<handleIndexBits | uint64(idx))
}

func (h Handle) index() handleIndex {
	return handleIndex(uint32(h))
}

func (h Handle) generation() generation {
	return generation(uint32(uint64(h) >> handleIndexBits))
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h.index()), 10) + "v" + strconv.FormatUint(uint64(h.generation()), 10)
}

// Valid reports whether h could refer to a body. It does not check liveness.
func (h Handle) Valid() bool {
	return h.index() > 0
}

// handleStore tracks slot generations and free slots.
type handleStore struct {
	gen  []generation
	free []handleIndex
}

func (s *handleStore) create() Handle {
	var idx handleIndex
	if len(s.free) > 0 {
		idx = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	} else {
		s.gen = append(s.gen, 0)
		idx = handleIndex(len(s.gen))
	}
	return makeHandle(idx, s.gen[idx-1])
}

func (s *handleStore) destroy(h Handle) bool {
	if !s.alive(h) {
		return false
	}
	idx := h.index()
	s.gen[idx-1]++
	s.free = append(s.free, idx)
	return true
}

func (s *handleStore) alive(h Handle) bool {
	idx := h.index()
	if idx == 0 || int(idx) > len(s.gen) {
		return false
	}
	return s.gen[idx-1] == h.generation()
}
