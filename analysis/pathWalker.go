package analysis

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"

	"github.com/o2lab/golock/stats"
)

// walkState is the per-path state machine of the intra-procedural walker.
type walkState int

const (
	walkActive walkState = iota
	walkStoppedByAlias
	walkStoppedByDrop
)

type blockFrame struct {
	block *ssa.BasicBlock
	start int
}

// walkAcquire explores every control-flow path forward from li's acquire
// within the enclosing function. Per instruction, in program order: an
// aliasing acquire reports a double lock (recursive read-read suppressed)
// and stops the path; a member of the release set stops the path safely; a
// resolved call hands off to the call-graph walker. Unwind-only successors
// (recover blocks) are never followed. Exhaustiveness comes from draining
// the block worklist; within one path, first match wins.
func (d *detection) walkAcquire(li *lockInfo) {
	fn := li.acquire.Parent()
	group := d.acquires[fn]
	acquireBlock := li.acquire.Block()
	if acquireBlock == nil {
		return
	}
	log.Debug("walking from ", li.kind, " of ", li.target.Name(), " in ", fn.String())

	seen := map[*ssa.BasicBlock]bool{acquireBlock: true}
	frames := []blockFrame{{acquireBlock, insIndex(acquireBlock, li.acquire) + 1}}
	for len(frames) > 0 {
		fr := frames[len(frames)-1]
		frames = frames[:len(frames)-1]
		state := walkActive
		for _, theIns := range fr.block.Instrs[fr.start:] {
			if lj := d.aliasingAcquireAt(group, li, theIns); lj != nil {
				if li.kind == opReadLock && lj.kind == opReadLock {
					log.Debug("recursive read acquire of ", lj.target.Name(), ", not a double lock")
				} else {
					d.reportIntra(li, lj)
				}
				state = walkStoppedByAlias
				break
			}
			if li.drops[theIns] {
				state = walkStoppedByDrop
				break
			}
			if cs, ok := d.a.callIndex.siteFor(theIns); ok {
				if d.walkCallGraph(li, cs) {
					state = walkStoppedByAlias
					break
				}
			}
		}
		if state != walkActive {
			continue
		}
		for _, succ := range fr.block.Succs {
			if succ.Comment == "recover" {
				continue // unwind edge, not part of the normal-return path
			}
			if seen[succ] {
				continue
			}
			seen[succ] = true
			frames = append(frames, blockFrame{succ, 0})
		}
	}
	stats.IncStat(stats.NWalkedAcquire)
}

// aliasingAcquireAt returns the group member acquired at theIns, excluding
// the investigated acquire itself.
func (d *detection) aliasingAcquireAt(group []*lockInfo, li *lockInfo, theIns ssa.Instruction) *lockInfo {
	for _, lj := range group {
		if lj.acquire == theIns && lj != li && d.aliasing(li, lj) {
			return lj
		}
	}
	return nil
}

// aliasing reports whether two acquires in the same function may target the
// same logical lock: structurally equal sources, or, for acquires whose
// source tracing failed, the same declared lock type refined by the
// must-alias oracle.
func (d *detection) aliasing(li, lj *lockInfo) bool {
	if li.source != nil && li.source.equal(lj.source) {
		return true
	}
	if li.target.Type().String() != lj.target.Type().String() {
		return false
	}
	return li.target == lj.target || d.a.mustAlias(li.target, lj.target)
}
