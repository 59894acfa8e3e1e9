// Package extract recovers structured data from free-form model output.
//
// Extraction never fails: every input yields either Some(tree) or None().
package extract

// Candidate is the optional JSON tree recovered from model output. The zero
// value is None.
type Candidate struct {
	tree    any
	present bool
}

// Some wraps a decoded JSON tree (object, array or scalar). Trees produced by
// Extract hold numbers as json.Number.
func Some(tree any) Candidate {
	return Candidate{tree: tree, present: true}
}

// None is the explicit "no candidate found" outcome.
func None() Candidate {
	return Candidate{}
}

// Present reports whether a tree was recovered.
func (c Candidate) Present() bool { return c.present }

// Value returns the recovered tree.
func (c Candidate) Value() (any, bool) {
	return c.tree, c.present
}

// Object returns the tree when it is a JSON object.
func (c Candidate) Object() (map[string]any, bool) {
	if !c.present {
		return nil, false
	}
	obj, ok := c.tree.(map[string]any)
	return obj, ok
}
