//go:build ignore

package main

import "sync"

type gate struct {
	rw sync.RWMutex
}

func waitTwice(l sync.Locker) {
	l.Lock()
	l.Lock() // DOUBLELOCK "Double lock of .*"
	l.Unlock()
	l.Unlock()
}

func main() {
	g := &gate{}
	waitTwice(g.rw.RLocker())
}
