package analysis

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/o2lab/golock/stats"
)

// lockInfo is the derived fact attached to one recognized acquire call.
type lockInfo struct {
	acquire ssa.Instruction
	kind    opClass // opMutexLock, opReadLock or opWriteLock
	target  ssa.Value
	source  *mutexSource             // nil when source tracing failed
	drops   map[ssa.Instruction]bool // instructions that may release the guard
}

// analysis holds the read-only context threaded through every traversal:
// the SSA module, the call-site index and the solved pointer analysis.
// Everything here is built once before any walker starts and never mutated
// afterward.
type analysis struct {
	prog      *ssa.Program
	pkgs      []*ssa.Package
	mains     []*ssa.Package
	ptaConfig *pointer.Config
	ptaResult *pointer.Result
	fns       []*ssa.Function
	callIndex *callIndex
	dets      []*detection
	reporter  *reporter
}

// detection is one lock-family pass over the module. Families run
// independently; each carries its own acquire groups and reported set.
type detection struct {
	a        *analysis
	family   lockFamily
	acquires map[*ssa.Function][]*lockInfo
	bySource map[string][]*lockInfo
	reported map[[2]ssa.Instruction]bool
}

type AnalysisRunner struct {
	Analysis *analysis
}

// Run loads the input packages, builds the SSA module and drives one
// detection pass per enabled lock family. All failures inside a pass
// degrade to "no finding"; only load/build failures surface as errors.
func (r *AnalysisRunner) Run(args []string) error {
	cfg := &packages.Config{
		Mode:  packages.LoadAllSyntax,
		Dir:   UserDir,
		Tests: false,
	}
	log.Info("Loading input packages...")
	initial, err := packages.Load(cfg, args...)
	if err != nil {
		return err
	}
	if packages.PrintErrors(initial) > 0 {
		return fmt.Errorf("packages contain errors")
	} else if len(initial) == 0 {
		return fmt.Errorf("package list empty")
	}
	for _, pkg := range initial {
		log.Debug(pkg.ID, " ", pkg.GoFiles)
	}
	log.Info("Done  -- packages loaded")

	prog, pkgs := ssautil.AllPackages(initial, 0)
	log.Info("Building SSA code for entire program...")
	prog.Build()
	log.Info("Done  -- SSA code built")

	a := &analysis{
		prog:     prog,
		pkgs:     pkgs,
		reporter: newReporter(),
	}
	r.Analysis = a
	mains, err := mainPackages(pkgs)
	if err != nil {
		if !AllEntries {
			return err
		}
		log.Info(err, " -- continuing without the must-alias oracle")
	}
	a.mains = mains
	if len(mains) > 0 {
		a.ptaConfig = &pointer.Config{
			Mains:          mains,
			BuildCallGraph: false,
		}
	}

	a.collectFunctions()
	a.buildCallIndex()

	for _, fam := range enabledFamilies() {
		det := &detection{
			a:        a,
			family:   fam,
			acquires: make(map[*ssa.Function][]*lockInfo),
			bySource: make(map[string][]*lockInfo),
			reported: make(map[[2]ssa.Instruction]bool),
		}
		det.collectAcquires()
		a.dets = append(a.dets, det)
	}

	a.solvePointerAnalysis()

	for _, det := range a.dets {
		det.traceLocks()
		det.run()
	}
	if a.reporter.count == 1 {
		log.Println("Done  -- ", a.reporter.count, "double lock found! ")
	} else {
		log.Println("Done  -- ", a.reporter.count, "double locks found! ")
	}
	return nil
}

// mainPackages returns the main packages to analyze.
func mainPackages(pkgs []*ssa.Package) ([]*ssa.Package, error) {
	var mains []*ssa.Package
	for _, p := range pkgs {
		if p != nil && p.Pkg.Name() == "main" && p.Func("main") != nil {
			mains = append(mains, p)
		}
	}
	if len(mains) == 0 {
		return nil, fmt.Errorf("no main packages")
	}
	return mains, nil
}

// isSynthetic returns whether fn is synthetic or not
func isSynthetic(fn *ssa.Function) bool {
	return fn.Synthetic != "" || fn.Pkg == nil
}

// fromPkgsOfInterest determines if a function is from a package of interest
func (a *analysis) fromPkgsOfInterest(fn *ssa.Function) bool {
	if fn.Pkg == nil || fn.Pkg.Pkg == nil {
		return false
	}
	for _, excluded := range ExcludedPkgs {
		if fn.Pkg.Pkg.Name() == excluded {
			return false
		}
	}
	if len(AnalysisScope) > 0 {
		in := false
		for _, prefix := range AnalysisScope {
			if strings.HasPrefix(fn.Pkg.Pkg.Path(), prefix) {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	return true
}

// collectFunctions gathers every function body of interest in a
// deterministic source order, so traversal and report order are stable
// across runs.
func (a *analysis) collectFunctions() {
	for fn := range ssautil.AllFunctions(a.prog) {
		if fn.Blocks == nil || isSynthetic(fn) || !a.fromPkgsOfInterest(fn) {
			continue
		}
		a.fns = append(a.fns, fn)
		stats.IncStat(stats.NFunction)
	}
	sort.Slice(a.fns, func(i, j int) bool {
		pi := a.prog.Fset.Position(a.fns[i].Pos())
		pj := a.prog.Fset.Position(a.fns[j].Pos())
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Offset != pj.Offset {
			return pi.Offset < pj.Offset
		}
		return a.fns[i].String() < a.fns[j].String()
	})
	log.Info("Done  -- ", len(a.fns), " functions of interest")
}

// collectAcquires runs the classifier over every instruction, recording
// acquires as lockInfos and seeding pointer-analysis queries for acquire
// and release receivers.
func (d *detection) collectAcquires() {
	n := 0
	for _, fn := range d.a.fns {
		for _, aBlock := range fn.Blocks {
			for _, theIns := range aBlock.Instrs {
				class, recv, _ := classifyIns(theIns, d.family)
				switch {
				case class.isAcquire():
					if _, ok := theIns.(*ssa.Call); !ok || recv == nil {
						continue
					}
					li := &lockInfo{acquire: theIns, kind: class, target: recv}
					d.acquires[fn] = append(d.acquires[fn], li)
					d.a.addQuery(recv)
					n++
					stats.IncStat(stats.NAcquire)
					log.Trace(class, " of ", recv.Name(), " at ", d.a.prog.Fset.Position(theIns.Pos()))
				case class.isDrop():
					d.a.addQuery(recv)
				}
			}
		}
	}
	log.Info("Done  -- ", n, " ", d.family, " acquires collected")
}

func (a *analysis) addQuery(v ssa.Value) {
	if a.ptaConfig != nil && canQuery(v) {
		a.ptaConfig.AddQuery(v)
	}
}

// solvePointerAnalysis conducts the pointer analysis backing the
// must-alias oracle. A failed or absent analysis only disables the oracle.
func (a *analysis) solvePointerAnalysis() {
	if a.ptaConfig == nil {
		return
	}
	log.Info("Conducting pointer analysis...")
	result, err := pointer.Analyze(a.ptaConfig)
	if err != nil {
		log.Info("pointer analysis failed: ", err, " -- must-alias oracle disabled")
		return
	}
	a.ptaResult = result
	log.Info("Done  -- pointer analysis")
}

// traceLocks resolves each acquire's mutex source and release set, and
// groups acquires by source key for the call-graph walker.
func (d *detection) traceLocks() {
	for _, fn := range d.a.fns {
		for _, li := range d.acquires[fn] {
			li.source = traceMutexSource(li.target)
			li.drops = d.findReleaseSites(li, fn)
			if li.source != nil {
				d.bySource[li.source.key()] = append(d.bySource[li.source.key()], li)
			}
		}
	}
}

// run investigates every acquire of this family exactly once.
func (d *detection) run() {
	log.Info("Checking for double locks (", d.family, " family)... ")
	for _, fn := range d.a.fns {
		for _, li := range d.acquires[fn] {
			d.walkAcquire(li)
		}
	}
}
