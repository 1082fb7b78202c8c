//go:build ignore

package main

import "sync"

type node struct {
	mu    sync.Mutex
	depth int
}

func (n *node) descend() {
	n.mu.Lock() // DOUBLELOCK "Double lock of .*"
	n.step()
	n.mu.Unlock()
}

func (n *node) step() {
	if n.depth > 0 {
		n.depth--
		n.descend()
	}
}

func main() {
	n := &node{depth: 3}
	n.descend()
}
