//go:build ignore

package main

import "sync"

type table struct {
	rw   sync.RWMutex
	rows map[string]int
}

// recursive read acquisition is safe, nothing to report here
func (t *table) countTwice(key string) int {
	t.rw.RLock()
	n := t.rows[key]
	t.rw.RLock()
	n += t.rows[key]
	t.rw.RUnlock()
	t.rw.RUnlock()
	return n
}

func (t *table) upgrade(key string) {
	t.rw.RLock()
	n := t.rows[key]
	if n > 0 {
		t.rw.Lock() // DOUBLELOCK "Double lock of .*"
		t.rows[key] = 0
		t.rw.Unlock()
	}
	t.rw.RUnlock()
}

func (t *table) rewrite(key string) {
	t.rw.Lock()
	t.rows[key] = 1
	t.rw.RLock() // DOUBLELOCK "Double lock of .*"
	_ = t.rows[key]
	t.rw.RUnlock()
	t.rw.Unlock()
}

func main() {
	t := &table{rows: make(map[string]int)}
	t.countTwice("a")
	t.upgrade("a")
	t.rewrite("a")
}
