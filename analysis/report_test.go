package analysis

import (
	"bytes"
	"go/token"
	"testing"
)

func TestDoubleLockBlockFormat(t *testing.T) {
	var buf bytes.Buffer
	r := &reporter{w: &buf}

	first := token.Position{Filename: "/src/app/server.go", Line: 42}
	second := token.Position{Filename: "/src/app/server.go", Line: 47}
	r.doubleLock(first, []token.Position{second}, nil)

	want := "Double Lock Happens! First Lock:\n" +
		"/src/app server.go 42\n" +
		"Second Lock(s):\n" +
		"/src/app server.go 47\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("finding block mismatch:\ngot:\n%q\nwant:\n%q", buf.String(), want)
	}
	if r.count != 1 {
		t.Errorf("count = %d, want 1", r.count)
	}
}

func TestDoubleLockBlockWithChain(t *testing.T) {
	var buf bytes.Buffer
	r := &reporter{w: &buf}

	first := token.Position{Filename: "/src/app/server.go", Line: 10}
	seconds := []token.Position{
		{Filename: "/src/app/store.go", Line: 30},
		{Filename: "/src/app/store.go", Line: 55},
	}
	chain := []token.Position{
		{Filename: "/src/app/store.go", Line: 22},
		{Filename: "/src/app/server.go", Line: 12},
	}
	r.doubleLock(first, seconds, chain)

	want := "Double Lock Happens! First Lock:\n" +
		"/src/app server.go 10\n" +
		"Second Lock(s):\n" +
		"/src/app store.go 30\n" +
		"/src/app store.go 55\n" +
		"/src/app store.go 22\n" +
		"/src/app server.go 12\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("finding block mismatch:\ngot:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestDoubleLockOutputIdempotent(t *testing.T) {
	emit := func() string {
		var buf bytes.Buffer
		r := &reporter{w: &buf}
		r.doubleLock(
			token.Position{Filename: "/a/x.go", Line: 1},
			[]token.Position{{Filename: "/a/y.go", Line: 2}},
			[]token.Position{{Filename: "/a/x.go", Line: 3}},
		)
		return buf.String()
	}
	if emit() != emit() {
		t.Error("identical findings must serialize identically")
	}
}
