package analysis

import (
	"go/token"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"

	"github.com/o2lab/golock/stats"
)

// walkCallGraph continues a path past a call site: breadth-first over the
// call graph from the callee, checking every visited function for acquires
// whose mutex source equals the first lock's. The visited set only grows,
// so traversal terminates on cyclic call graphs. Returns whether a finding
// was reported, which stops the enclosing intra-procedural path.
//
// Acquires whose source tracing failed never match here; they are visible
// to the intra-procedural walker only.
func (d *detection) walkCallGraph(first *lockInfo, site callSite) bool {
	if first.source == nil {
		return false
	}
	visited := make(map[*ssa.Function]bool)
	parent := make(map[*ssa.Function]ssa.CallInstruction)
	queue := []*ssa.Function{site.callee}
	parent[site.callee] = site.ins
	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		if visited[fn] {
			continue
		}
		visited[fn] = true
		stats.IncStat(stats.NWalkedFn)
		if excludedFn(fn) {
			// Narrow carve-out for known non-terminating maintenance loops
			// that never re-enter locking logic.
			log.Debug("skipping excluded function ", fn.String())
			continue
		}

		var seconds []*lockInfo
		for _, lj := range d.bySource[first.source.key()] {
			if lj.acquire.Parent() != fn {
				continue
			}
			if first.kind == opReadLock && lj.kind == opReadLock {
				continue // recursive read acquisition is safe
			}
			seconds = append(seconds, lj)
		}
		if len(seconds) > 0 {
			d.reportInter(first, seconds, fn, parent)
			return true
		}

		for _, cs := range d.a.callIndex.callees[fn] {
			if visited[cs.callee] {
				continue
			}
			if _, ok := parent[cs.callee]; !ok {
				parent[cs.callee] = cs.ins
			}
			queue = append(queue, cs.callee)
		}
	}
	return false
}

// backtrace reconstructs the call chain from the second lock's function
// back toward the first acquisition by walking the parent-call map. A
// repeated function ends the walk, guarding against call-graph cycles.
func (d *detection) backtrace(first *lockInfo, fn *ssa.Function, parent map[*ssa.Function]ssa.CallInstruction) []token.Position {
	var chain []token.Position
	root := first.acquire.Parent()
	seen := make(map[*ssa.Function]bool)
	cur := fn
	for cur != nil && cur != root && !seen[cur] {
		seen[cur] = true
		callIns, ok := parent[cur]
		if !ok {
			break
		}
		chain = append(chain, d.a.prog.Fset.Position(callIns.Pos()))
		cur = callIns.Parent()
	}
	return chain
}

// excludedFn reports whether fn matches the configured denylist, by exact
// relative name.
func excludedFn(fn *ssa.Function) bool {
	return sliceContainsStr(ExcludedFns, fn.String())
}
