//go:build ignore

package main

import "sync"

type board struct {
	rw sync.RWMutex
	v  int
}

// The read guard is handed out as a sync.Locker and released through it
// before the write acquire, so there is nothing to report.
func (b *board) swap(n int) {
	b.rw.RLock()
	l := b.rw.RLocker()
	_ = b.v
	l.Unlock()
	b.rw.Lock()
	b.v = n
	b.rw.Unlock()
}

func main() {
	b := &board{}
	b.swap(1)
}
