package analysis

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/logrusorgru/aurora"
	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"

	"github.com/o2lab/golock/stats"
)

var colorOutput = regexp.MustCompile(`\x1b\[\d+m`)

// reporter serializes findings in the fixed block format. Findings are
// emitted in traversal order, which is itself deterministic, so two runs
// over the same module produce byte-identical output.
type reporter struct {
	w     io.Writer
	count int
}

func newReporter() *reporter {
	return &reporter{w: os.Stdout}
}

func posEntry(p token.Position) string {
	return fmt.Sprintf("%s %s %d", filepath.Dir(p.Filename), filepath.Base(p.Filename), p.Line)
}

// doubleLock writes one finding block: the first lock, every second lock,
// and, for inter-procedural findings, the reconstructed call chain from the
// second lock's function back toward the first.
func (r *reporter) doubleLock(first token.Position, seconds []token.Position, chain []token.Position) {
	r.count++
	var b strings.Builder
	b.WriteString("Double Lock Happens! First Lock:\n")
	b.WriteString(posEntry(first))
	b.WriteString("\n")
	b.WriteString("Second Lock(s):\n")
	for _, s := range seconds {
		b.WriteString(posEntry(s))
		b.WriteString("\n")
	}
	for _, c := range chain {
		b.WriteString(posEntry(c))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	fmt.Fprint(r.w, b.String())
}

// reportIntra reports a same-function double lock.
func (d *detection) reportIntra(li, lj *lockInfo) {
	key := [2]ssa.Instruction{li.acquire, lj.acquire}
	if d.reported[key] {
		return
	}
	d.reported[key] = true
	stats.IncStat(stats.NFinding)
	fset := d.a.prog.Fset
	firstPos := fset.Position(li.acquire.Pos())
	secondPos := fset.Position(lj.acquire.Pos())

	log.Printf("Double lock #%d", d.a.reporter.count+1)
	log.Println(strings.Repeat("=", 100))
	d.logSecond(lj, secondPos)
	errMsg := fmt.Sprint(" First lock of ", aurora.Magenta(printVarName(firstPos)), " in function ", aurora.BrightGreen(li.acquire.Parent().Name()), " at ", firstPos)
	log.Print(errMsg)
	d.a.reporter.doubleLock(firstPos, []token.Position{secondPos}, nil)
}

// reportInter reports a double lock found by the call-graph walker, with
// the backward-reconstructed call chain.
func (d *detection) reportInter(first *lockInfo, seconds []*lockInfo, fn *ssa.Function, parent map[*ssa.Function]ssa.CallInstruction) {
	key := [2]ssa.Instruction{first.acquire, seconds[0].acquire}
	if d.reported[key] {
		return
	}
	d.reported[key] = true
	stats.IncStat(stats.NFinding)
	fset := d.a.prog.Fset
	firstPos := fset.Position(first.acquire.Pos())

	log.Printf("Double lock #%d", d.a.reporter.count+1)
	log.Println(strings.Repeat("=", 100))
	var secondPos []token.Position
	for _, lj := range seconds {
		pos := fset.Position(lj.acquire.Pos())
		secondPos = append(secondPos, pos)
		d.logSecond(lj, pos)
	}
	errMsg := fmt.Sprint(" First lock of ", aurora.Magenta(printVarName(firstPos)), " in function ", aurora.BrightGreen(first.acquire.Parent().Name()), " at ", firstPos)
	log.Print(errMsg)
	chain := d.backtrace(first, fn, parent)
	if len(chain) > 0 {
		log.Println("\treached through call chain: ")
		for p, c := range chain {
			log.Println("\t ", strings.Repeat(" ", p), c)
		}
	}
	d.a.reporter.doubleLock(firstPos, secondPos, chain)
}

func (d *detection) logSecond(lj *lockInfo, pos token.Position) {
	errMsg := fmt.Sprint(" Double lock of ", aurora.Magenta(printVarName(pos)), " in function ", aurora.BrightGreen(lj.acquire.Parent().Name()), " at ", pos)
	if TestMode {
		Findings = append(Findings, colorOutput.ReplaceAllString(errMsg, ""))
	}
	log.Print(errMsg)
	if DebugFlag {
		printSource(pos)
	}
}
