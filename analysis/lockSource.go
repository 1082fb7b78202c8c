package analysis

import (
	"fmt"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// mutexSource is the structural key identifying "the same logical lock"
// across functions: the owning named type plus the ordered field-index path
// from it to the lock. Equality is purely structural (type name + index
// sequence), never value identity, so it is stable across functions. A
// package-level lock is its own source with an empty path.
type mutexSource struct {
	typeName string
	path     []int
}

func (s *mutexSource) key() string {
	return fmt.Sprintf("%s#%v", s.typeName, s.path)
}

func (s *mutexSource) equal(o *mutexSource) bool {
	if s == nil || o == nil {
		return false
	}
	if s.typeName != o.typeName || len(s.path) != len(o.path) {
		return false
	}
	for i := range s.path {
		if s.path[i] != o.path[i] {
			return false
		}
	}
	return true
}

// traceMutexSource attempts to express a lock receiver as a fixed field
// access from a structured object. It walks backward through the first
// matching projection or cast per step; if multiple patterns apply only
// the first is taken, a documented approximation. Returns nil when the
// receiver cannot be expressed that way, in which case the acquire is
// grouped locally by declared type and the must-alias oracle.
func traceMutexSource(v ssa.Value) *mutexSource {
	var path []int
	seen := make(map[ssa.Value]bool)
	for v != nil && !seen[v] {
		seen[v] = true
		switch x := v.(type) {
		case *ssa.FieldAddr:
			path = append([]int{x.Field}, path...)
			v = x.X
		case *ssa.Field:
			path = append([]int{x.Field}, path...)
			v = x.X
		case *ssa.UnOp:
			if x.Op != token.MUL {
				return nil
			}
			v = x.X
		case *ssa.ChangeType:
			v = x.X
		case *ssa.Convert:
			v = x.X
		case *ssa.MakeInterface:
			v = x.X
		case *ssa.ChangeInterface:
			v = x.X
		case *ssa.Phi:
			v = uniformPhi(x)
		case *ssa.Global:
			return &mutexSource{typeName: x.String(), path: path}
		case *ssa.Alloc, *ssa.Parameter, *ssa.FreeVar:
			if len(path) == 0 {
				return nil // direct value, intra-procedural grouping only
			}
			name := baseTypeName(v.Type())
			if name == "" {
				return nil
			}
			return &mutexSource{typeName: name, path: path}
		default:
			return nil
		}
	}
	return nil
}

// uniformPhi unwraps a phi whose edges all agree on one value.
func uniformPhi(phi *ssa.Phi) ssa.Value {
	var agreed ssa.Value
	for _, e := range phi.Edges {
		if e == phi {
			continue
		}
		if agreed == nil {
			agreed = e
		} else if e != agreed {
			return nil
		}
	}
	return agreed
}

// baseTypeName names the struct type owning the traced field path.
func baseTypeName(t types.Type) string {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if n, ok := t.(*types.Named); ok {
		return n.String()
	}
	return ""
}

// mustAlias is the alias-analysis oracle for the intra-procedural fallback:
// two receivers must alias when the pointer analysis resolved both to the
// same singleton object. Without a solved pointer analysis it degrades to
// false, losing findings but never inventing them.
func (a *analysis) mustAlias(x, y ssa.Value) bool {
	if x == y {
		return true
	}
	if a.ptaResult == nil {
		return false
	}
	px, ok := a.ptaResult.Queries[x]
	if !ok {
		return false
	}
	py, ok := a.ptaResult.Queries[y]
	if !ok {
		return false
	}
	lx := px.PointsTo().Labels()
	ly := py.PointsTo().Labels()
	if len(lx) != 1 || len(ly) != 1 {
		return false
	}
	return lx[0].Value() == ly[0].Value()
}

// canQuery reports whether the pointer analysis accepts v as a query;
// only pointer-like values may be queried.
func canQuery(v ssa.Value) bool {
	if v == nil {
		return false
	}
	switch v.Type().Underlying().(type) {
	case *types.Pointer, *types.Interface, *types.Map, *types.Chan, *types.Signature, *types.Slice:
		return true
	}
	return false
}
