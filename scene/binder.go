package scene

import (
	"errors"
	"fmt"
	"log"

	"github.com/abagaild/lupine-engine-sub002/physics"
)

// Binder registers the eligible nodes of a tree with a World and keeps the
// handle to node mapping.
type Binder struct {
	world    *physics.World
	nodes    map[physics.Handle]*Node
	warnings []physics.ConstructionWarning

	// Strict aborts a Bind on the first construction warning instead of
	// keeping the substituted shape.
	Strict bool
}

func NewBinder(world *physics.World) *Binder {
	return &Binder{world: world, nodes: make(map[physics.Handle]*Node)}
}

func (b *Binder) World() *physics.World { return b.world }

// Bind adds every eligible node under root, parents before children. In
// strict mode the first failure or warning removes what this call bound and
// is returned. Otherwise failing nodes are logged and skipped and their
// errors are joined.
func (b *Binder) Bind(root *Node) ([]physics.Handle, error) {
	if b == nil || b.world == nil {
		return nil, physics.ErrMissingWorld
	}
	var (
		bound []physics.Handle
		errs  []error
	)
	abort := func(err error) ([]physics.Handle, error) {
		for _, h := range bound {
			b.release(h)
		}
		return nil, err
	}

	var visit func(n *Node) error
	visit = func(n *Node) error {
		if err := b.bindOne(n, &bound); err != nil {
			if b.Strict {
				return err
			}
			log.Printf("scene: skipping %s: %v", n.Path(), err)
			errs = append(errs, err)
		}
		for _, c := range n.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}

	if root == nil {
		return nil, ErrNoRoot
	}
	if err := visit(root); err != nil {
		return abort(err)
	}
	return bound, errors.Join(errs...)
}

func (b *Binder) bindOne(n *Node, bound *[]physics.Handle) error {
	if n.handle.Valid() && b.world.Has(n.handle) {
		return nil
	}
	b.warnings = append(b.warnings, b.world.Warnings()...)
	h, err := b.world.AddNode(n)
	if err != nil {
		return fmt.Errorf("scene: bind %s: %w", n.Path(), err)
	}
	if !h.Valid() {
		return nil
	}
	n.handle = h
	b.nodes[h] = n
	*bound = append(*bound, h)
	warnings := b.world.Warnings()
	b.warnings = append(b.warnings, warnings...)
	if len(warnings) > 0 && b.Strict {
		return fmt.Errorf("scene: bind %s: %w", n.Path(), warnings[0])
	}
	return nil
}

// Warnings returns and clears the construction warnings seen while binding.
func (b *Binder) Warnings() []physics.ConstructionWarning {
	if b == nil {
		return nil
	}
	out := b.warnings
	b.warnings = nil
	return out
}

// Node returns the node bound to h.
func (b *Binder) Node(h physics.Handle) (*Node, bool) {
	if b == nil {
		return nil, false
	}
	n, ok := b.nodes[h]
	return n, ok
}

// Handles lists bound handles in world registration order.
func (b *Binder) Handles() []physics.Handle {
	if b == nil || b.world == nil {
		return nil
	}
	var out []physics.Handle
	for _, h := range b.world.Bodies() {
		if _, ok := b.nodes[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Unbind removes the bodies of n and its descendants.
func (b *Binder) Unbind(n *Node) error {
	if b == nil || b.world == nil {
		return physics.ErrMissingWorld
	}
	var first error
	n.Walk(func(c *Node) {
		if !c.handle.Valid() {
			return
		}
		if err := b.world.RemoveNode(c.handle); err != nil {
			if first == nil {
				first = fmt.Errorf("scene: unbind %s: %w", c.Path(), err)
			}
			return
		}
		delete(b.nodes, c.handle)
		c.handle = 0
	})
	return first
}

// Detach unbinds n and removes it from its parent.
func (b *Binder) Detach(n *Node) error {
	if n == nil {
		return nil
	}
	if err := b.Unbind(n); err != nil {
		return err
	}
	if p := n.parent; p != nil {
		for i, c := range p.Children {
			if c == n {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
		n.parent = nil
	}
	return nil
}

// UnbindAll removes every body this binder created.
func (b *Binder) UnbindAll() error {
	if b == nil || b.world == nil {
		return physics.ErrMissingWorld
	}
	for h := range b.nodes {
		if err := b.world.RemoveNode(h); err != nil {
			return fmt.Errorf("scene: unbind all: %w", err)
		}
		b.release(h)
	}
	return nil
}

func (b *Binder) release(h physics.Handle) {
	if n, ok := b.nodes[h]; ok {
		n.handle = 0
		delete(b.nodes, h)
	}
	_ = b.world.RemoveNode(h)
}
