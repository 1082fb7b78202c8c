package analysis

import (
	"go/token"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"

	"github.com/o2lab/golock/stats"
)

// classifyRelease classifies a candidate release under this detection's
// family. An unwrapped read guard is only ever released through an Unlock
// invoke on the resulting sync.Locker, so the sync family also accepts
// Locker release invokes here.
func (d *detection) classifyRelease(ins ssa.Instruction) (opClass, ssa.Value) {
	class, recv, _ := classifyIns(ins, d.family)
	if class != opNotACall || d.family != familySync {
		return class, recv
	}
	if class, recv, _ = classifyIns(ins, familyLocker); class.isDrop() {
		return class, recv
	}
	return opNotACall, nil
}

// findReleaseSites computes the set of instructions that may release the
// guard held by li: direct release calls, deferred releases (which take
// effect at the function's rundefers points), and releases reached after
// the guard value is unwrapped, cast, stored to memory and reloaded. Any
// storage slot that might alias the receiver's slot is treated as a
// potential release path, an intentional over-approximation. The result
// may be empty, meaning no release was observed.
func (d *detection) findReleaseSites(li *lockInfo, fn *ssa.Function) map[ssa.Instruction]bool {
	drops := make(map[ssa.Instruction]bool)
	deferPoints := runDeferPoints(fn)

	addDrop := func(ins ssa.Instruction, class opClass) {
		if class == opAutoDrop {
			for _, rd := range deferPoints {
				drops[rd] = true
			}
		} else {
			drops[ins] = true
		}
		stats.IncStat(stats.NRelease)
		log.Trace("release of ", li.target.Name(), " (", class, ") at ", fn.Prog.Fset.Position(ins.Pos()))
	}

	// Pass 1: every release in the function whose receiver reaches the
	// same slot, whether through the same SSA value, a structurally equal
	// field path, or a must-alias pair.
	for _, aBlock := range fn.Blocks {
		for _, theIns := range aBlock.Instrs {
			class, recv := d.classifyRelease(theIns)
			if !class.isDrop() || recv == nil {
				continue
			}
			if recv == li.target || d.a.mustAlias(recv, li.target) {
				addDrop(theIns, class)
				continue
			}
			if li.source != nil && li.source.equal(traceMutexSource(recv)) {
				addDrop(theIns, class)
			}
		}
	}

	// Pass 2: chase the guard value through unwraps, casts, field
	// projections and store/load pairs.
	seenVals := make(map[ssa.Value]bool)
	var worklist []ssa.Value
	seed := func(v ssa.Value) {
		if v != nil && !seenVals[v] {
			seenVals[v] = true
			worklist = append(worklist, v)
		}
	}
	seed(li.target)
	for len(worklist) > 0 {
		v := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		refs := v.Referrers()
		if refs == nil {
			continue
		}
		for _, theIns := range *refs {
			class, recv := d.classifyRelease(theIns)
			if class.isDrop() && recv == v {
				addDrop(theIns, class)
				continue
			}
			if class == opGuardUnwrap && recv == v {
				if call, ok := theIns.(*ssa.Call); ok {
					stats.IncStat(stats.NUnwrap)
					seed(call)
				}
				continue
			}
			switch x := theIns.(type) {
			case *ssa.Store:
				if x.Val == v {
					d.seedLoadsOf(fn, x.Addr, seed)
				}
			case *ssa.UnOp:
				if x.Op == token.MUL && x.X == v {
					seed(x)
				}
			case *ssa.ChangeType:
				seed(x)
			case *ssa.Convert:
				seed(x)
			case *ssa.MakeInterface:
				seed(x)
			case *ssa.ChangeInterface:
				seed(x)
			case *ssa.FieldAddr:
				if x.X == v {
					seed(x)
				}
			case *ssa.Field:
				if x.X == v {
					seed(x)
				}
			case *ssa.Phi:
				seed(x)
			}
		}
	}

	delete(drops, li.acquire) // an acquire never releases its own guard
	return drops
}

// seedLoadsOf re-seeds the release search on every load from addr and from
// any address that might alias addr's storage slot (same traced source).
func (d *detection) seedLoadsOf(fn *ssa.Function, addr ssa.Value, seed func(ssa.Value)) {
	addrSrc := traceMutexSource(addr)
	for _, aBlock := range fn.Blocks {
		for _, theIns := range aBlock.Instrs {
			load, ok := theIns.(*ssa.UnOp)
			if !ok || load.Op != token.MUL {
				continue
			}
			if load.X == addr || d.a.mustAlias(load.X, addr) {
				seed(load)
				continue
			}
			if addrSrc != nil && addrSrc.equal(traceMutexSource(load.X)) {
				seed(load)
			}
		}
	}
}

// runDeferPoints returns the instructions at which deferred calls of fn
// execute; a deferred release takes effect there, not where it is pushed.
func runDeferPoints(fn *ssa.Function) []ssa.Instruction {
	var points []ssa.Instruction
	for _, aBlock := range fn.Blocks {
		for _, theIns := range aBlock.Instrs {
			if _, ok := theIns.(*ssa.RunDefers); ok {
				points = append(points, theIns)
			}
		}
	}
	return points
}
