package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testenv"

	"github.com/o2lab/golock/analysis"
)

var (
	haltOnError = flag.Bool("halt", false, "halt on error")
	listErrors  = flag.Bool("errlist", false, "list errors")
	testFiles   = flag.String("files", "", "space-separated list of test files")
)

var tests = []string{
	"tests/lock_twice.go",
	"tests/lock_interproc.go",
	"tests/lock_drop.go",
	"tests/lock_deferred.go",
	"tests/rwmutex_lock.go",
	"tests/lock_cycle.go",
	"tests/global_lock.go",
	"tests/wrapper_lock.go",
	"tests/locker_lock.go",
	"tests/rlocker_release.go",
}

var fset = token.NewFileSet()

// Findings are of the form "Double lock of ... at filename:line:column".
// Matching is by file and line; the column points inside the call
// expression and is not part of the key.
var posMsgRx = regexp.MustCompile(`^ (.*) at (.*:[0-9]+):[0-9]+$`)

// splitError splits a finding's message into a file:line position string
// and the actual message. If there's no position information, pos is the
// empty string, and msg is the entire message.
func splitError(err error) (pos, msg string) {
	msg = err.Error()
	if m := posMsgRx.FindStringSubmatch(msg); len(m) == 3 {
		msg = m[1]
		pos = m[2]
	}
	return
}

// DOUBLELOCK comments must start with text `DOUBLELOCK "rx"` or
// `DOUBLELOCK rx` where rx is a regular expression that matches the
// expected finding message.
var errRx = regexp.MustCompile(`^ *DOUBLELOCK *"?([^"]*)"?`)

// errMap collects the regular expressions of DOUBLELOCK comments found
// in files and returns them as a map of file:line positions to expected
// messages.
func errMap(t *testing.T, testname string, files []*ast.File) map[string][]string {
	errmap := make(map[string][]string)

	for _, file := range files {
		filename := fset.Position(file.Package).Filename
		src, err := ioutil.ReadFile(filename)
		if err != nil {
			t.Fatalf("%s: could not read %s", testname, filename)
		}
		filename, _ = filepath.Abs(filename)

		var s scanner.Scanner
		commentFset := token.NewFileSet()
		s.Init(commentFset.AddFile(filename, -1, len(src)), src, nil, scanner.ScanComments)

	scanFile:
		for {
			pos, tok, lit := s.Scan()
			switch tok {
			case token.EOF:
				break scanFile
			case token.COMMENT:
				if lit[1] == '*' {
					lit = lit[:len(lit)-2] // strip trailing */
				}
				if s := errRx.FindStringSubmatch(lit[2:]); len(s) == 2 {
					p := commentFset.Position(pos)
					key := fmt.Sprintf("%s:%d", p.Filename, p.Line)
					errmap[key] = append(errmap[key], strings.TrimSpace(s[1]))
				}
			}
		}
	}

	return errmap
}

func eliminate(t *testing.T, errmap map[string][]string, findings []error) {
	for _, err := range findings {
		pos, gotMsg := splitError(err)
		list := errmap[pos]
		index := -1 // list index of matching message, if any
		// we expect one of the messages in list to match the finding at pos
		for i, wantRx := range list {
			rx, err := regexp.Compile(wantRx)
			if err != nil {
				t.Errorf("%s: %v", pos, err)
				continue
			}
			if rx.MatchString(gotMsg) {
				index = i
				break
			}
		}
		if index >= 0 {
			// eliminate from list
			if n := len(list) - 1; n > 0 {
				// not the last entry - swap in last element and shorten list by 1
				list[index] = list[n]
				errmap[pos] = list[:n]
			} else {
				// last entry - remove list from map
				delete(errmap, pos)
			}
		} else {
			t.Errorf("%s: no double lock expected: %q", pos, gotMsg)
		}
	}
}

func runChecker(t *testing.T, filenames []string) ([]*ast.File, []error) {
	var files []*ast.File
	for _, filename := range filenames {
		file, err := parser.ParseFile(fset, filename, nil, parser.AllErrors)
		if file == nil {
			t.Fatalf("%s: %s", filename, err)
		}
		files = append(files, file)
	}
	analysis.TestMode = true
	analysis.Findings = nil
	runner := &analysis.AnalysisRunner{}
	if err := runner.Run(filenames); err != nil {
		if *haltOnError {
			t.Fatal(err)
		}
		t.Fatalf("%s: %v", filenames, err)
	}
	var findings []error
	for _, msg := range analysis.Findings {
		findings = append(findings, fmt.Errorf(msg))
	}
	return files, findings
}

func checkFile(t *testing.T, testfiles []string) {
	files, errlist := runChecker(t, testfiles)

	if *listErrors && len(errlist) > 0 {
		t.Errorf("--- %s:", testfiles)
		for _, err := range errlist {
			t.Error(err)
		}
		return
	}

	// match and eliminate findings;
	// we are expecting the following findings
	errmap := errMap(t, "main", files)
	eliminate(t, errmap, errlist)

	// there should be no expected findings left
	if len(errmap) > 0 {
		t.Errorf("--- %s: %d source positions with expected (but not reported) double locks:", testfiles, len(errmap))
		for pos, list := range errmap {
			for _, rx := range list {
				t.Errorf("%s: %q", pos, rx)
			}
		}
	}
}

func TestDoubleLock(t *testing.T) {
	testenv.MustHaveGoBuild(t)

	// If explicit test files are specified, only check those.
	if files := *testFiles; files != "" {
		checkFile(t, strings.Split(files, " "))
		return
	}

	// Otherwise, run all the tests.
	for _, file := range tests {
		checkFile(t, []string{file})
	}
}

func TestExcludedFns(t *testing.T) {
	testenv.MustHaveGoBuild(t)

	saved := analysis.ExcludedFns
	defer func() { analysis.ExcludedFns = saved }()
	// Files loaded by path land in the command-line-arguments package.
	analysis.ExcludedFns = []string{"command-line-arguments.refill"}

	checkFile(t, []string{"tests/exclude_fn.go"})
}
