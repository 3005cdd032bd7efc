package graph

import (
	"fmt"

	"github.com/tsawler/notula/core"
)

// maxHops bounds the reference-dereference loop. The archive encoding uses
// exactly one reference per graph edge, so one hop normally suffices; the
// limit keeps a crafted reference chain from looping forever.
const maxHops = 2

// Step is one navigation instruction: an array index or a dict key.
type Step struct {
	key   string
	index int
	byKey bool
}

// Index returns a step that indexes into an array node.
func Index(i int) Step { return Step{index: i} }

// Key returns a step that looks up a key in a dict node.
func Key(k string) Step { return Step{key: k, byKey: true} }

// String describes the step for diagnostics.
func (s Step) String() string {
	if s.byKey {
		return fmt.Sprintf("key %q", s.key)
	}
	return fmt.Sprintf("index %d", s.index)
}

// NavError reports a failed navigation, identifying the step and its
// position so unusual documents can be diagnosed against the format notes.
type NavError struct {
	Pos    int  // zero-based position within the step sequence
	Step   Step // the step that failed; zero value for terminal failures
	Reason string
}

func (e *NavError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("graph: navigation failed at step %d (%s)", e.Pos, e.Step)
	}
	return fmt.Sprintf("graph: navigation failed at step %d (%s): %s", e.Pos, e.Step, e.Reason)
}

// Resolve walks from start through the given steps and returns the final
// node. Before each step the current node is dereferenced if it is a
// reference, and the final node is dereferenced once more after the last
// step, so a UID never escapes resolution.
//
// A missing index or key yields a *NavError; callers decide whether that is
// structural damage or an optional field that is simply absent.
func (g *Graph) Resolve(start core.Node, steps ...Step) (core.Node, error) {
	current := start
	for pos, step := range steps {
		var err error
		current, err = g.deref(current, pos, step)
		if err != nil {
			return nil, err
		}

		switch node := current.(type) {
		case core.Array:
			if step.byKey {
				return nil, &NavError{Pos: pos, Step: step,
					Reason: "cannot apply a key step to an Array"}
			}
			current = node.Get(step.index)
			if current == nil {
				return nil, &NavError{Pos: pos, Step: step,
					Reason: fmt.Sprintf("index out of range (array has %d entries)", node.Len())}
			}
		case core.Dict:
			if !step.byKey {
				return nil, &NavError{Pos: pos, Step: step,
					Reason: "cannot apply an index step to a Dict"}
			}
			current = node.Get(step.key)
			if current == nil {
				return nil, &NavError{Pos: pos, Step: step, Reason: "key not present"}
			}
		default:
			return nil, &NavError{Pos: pos, Step: step,
				Reason: fmt.Sprintf("cannot navigate into %s node", nodeType(current))}
		}
	}

	return g.deref(current, len(steps), Step{})
}

// deref follows reference nodes up to maxHops times.
func (g *Graph) deref(node core.Node, pos int, step Step) (core.Node, error) {
	for hop := 0; ; hop++ {
		uid, ok := node.(core.UID)
		if !ok {
			return node, nil
		}
		if hop >= maxHops {
			return nil, &NavError{Pos: pos, Step: step,
				Reason: fmt.Sprintf("reference chain exceeds %d hops", maxHops)}
		}
		target, err := g.Deref(uid)
		if err != nil {
			return nil, &NavError{Pos: pos, Step: step, Reason: err.Error()}
		}
		node = target
	}
}

// ResolveReal resolves a path ending in a floating-point leaf. An archived
// unsigned integer is accepted and widened, matching how the encoder stores
// whole-number reals.
func (g *Graph) ResolveReal(start core.Node, steps ...Step) (float64, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return 0, err
	}
	switch v := node.(type) {
	case core.Real:
		return float64(v), nil
	case core.UInt:
		return float64(v), nil
	}
	return 0, typeMismatch(len(steps), "Real", node)
}

// ResolveString resolves a path ending in a string leaf.
func (g *Graph) ResolveString(start core.Node, steps ...Step) (string, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return "", err
	}
	s, ok := node.(core.String)
	if !ok {
		return "", typeMismatch(len(steps), "String", node)
	}
	return string(s), nil
}

// ResolveData resolves a path ending in a raw data leaf.
func (g *Graph) ResolveData(start core.Node, steps ...Step) ([]byte, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return nil, err
	}
	d, ok := node.(core.Data)
	if !ok {
		return nil, typeMismatch(len(steps), "Data", node)
	}
	return d, nil
}

// ResolveUInt resolves a path ending in an unsigned integer leaf.
func (g *Graph) ResolveUInt(start core.Node, steps ...Step) (uint64, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return 0, err
	}
	u, ok := node.(core.UInt)
	if !ok {
		return 0, typeMismatch(len(steps), "UInt", node)
	}
	return uint64(u), nil
}

// ResolveBool resolves a path ending in a boolean leaf.
func (g *Graph) ResolveBool(start core.Node, steps ...Step) (bool, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return false, err
	}
	b, ok := node.(core.Bool)
	if !ok {
		return false, typeMismatch(len(steps), "Bool", node)
	}
	return bool(b), nil
}

// ResolveDict resolves a path ending in a dict node.
func (g *Graph) ResolveDict(start core.Node, steps ...Step) (core.Dict, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return nil, err
	}
	d, ok := node.(core.Dict)
	if !ok {
		return nil, typeMismatch(len(steps), "Dict", node)
	}
	return d, nil
}

// ResolveArray resolves a path ending in an array node.
func (g *Graph) ResolveArray(start core.Node, steps ...Step) (core.Array, error) {
	node, err := g.Resolve(start, steps...)
	if err != nil {
		return nil, err
	}
	a, ok := node.(core.Array)
	if !ok {
		return nil, typeMismatch(len(steps), "Array", node)
	}
	return a, nil
}

func typeMismatch(pos int, want string, got core.Node) *NavError {
	return &NavError{Pos: pos,
		Reason: fmt.Sprintf("expected %s leaf, got %s", want, nodeType(got))}
}
