package analysis

import (
	log "github.com/sirupsen/logrus"
	"github.com/twmb/algoimpl/go/graph"
	"golang.org/x/tools/go/ssa"

	"github.com/o2lab/golock/stats"
)

// callSite pairs a call instruction with its resolved callee.
type callSite struct {
	ins    ssa.CallInstruction
	callee *ssa.Function
}

// callIndex is the global call-site index: one whole-module pass recording,
// for every function, the ordered call sites it directly contains, plus the
// inverted callee -> call-site mapping. Built once, read-only afterward.
// Indirect calls and calls into excluded packages are invisible to the
// index, a documented recall loss.
type callIndex struct {
	callees map[*ssa.Function][]callSite
	callers map[*ssa.Function][]callSite
	sites   map[ssa.Instruction]callSite
}

func (a *analysis) buildCallIndex() {
	idx := &callIndex{
		callees: make(map[*ssa.Function][]callSite),
		callers: make(map[*ssa.Function][]callSite),
		sites:   make(map[ssa.Instruction]callSite),
	}
	for _, fn := range a.fns {
		for _, aBlock := range fn.Blocks {
			for _, theIns := range aBlock.Instrs {
				call, ok := theIns.(*ssa.Call) // deferred and spawned calls do not transfer control here
				if !ok {
					continue
				}
				callee := call.Common().StaticCallee()
				if callee == nil || callee.Blocks == nil {
					continue // indirect call or bodiless declaration, skipped silently
				}
				if !a.fromPkgsOfInterest(callee) {
					continue
				}
				cs := callSite{ins: call, callee: callee}
				idx.callees[fn] = append(idx.callees[fn], cs)
				idx.callers[callee] = append(idx.callers[callee], cs)
				idx.sites[theIns] = cs
				stats.IncStat(stats.NCallSite)
			}
		}
	}
	a.callIndex = idx
	log.Info("Done  -- call-site index built, ", len(idx.sites), " resolved call sites")
	a.logRecursiveClusters()
}

// siteFor returns the resolved call site for ins, if it is one.
func (idx *callIndex) siteFor(ins ssa.Instruction) (callSite, bool) {
	cs, ok := idx.sites[ins]
	return cs, ok
}

// logRecursiveClusters surfaces strongly connected call-graph components
// before traversal begins, since those are where the visited sets earn
// their keep.
func (a *analysis) logRecursiveClusters() {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	g := graph.New(graph.Directed)
	nodes := make(map[*ssa.Function]graph.Node)
	for _, fn := range a.fns {
		n := g.MakeNode()
		*n.Value = fn
		nodes[fn] = n
	}
	for fn, sites := range a.callIndex.callees {
		for _, cs := range sites {
			to, ok := nodes[cs.callee]
			if !ok {
				continue
			}
			err := g.MakeEdge(nodes[fn], to)
			if err != nil {
				log.Fatal(err)
			}
		}
	}
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) < 2 {
			continue
		}
		var names []string
		for _, n := range comp {
			names = append(names, (*n.Value).(*ssa.Function).String())
		}
		log.Debug("recursive call cluster: ", names, " (", len(a.callIndex.callers[(*comp[0].Value).(*ssa.Function)]), " call sites into first member)")
	}
}
