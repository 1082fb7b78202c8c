//go:build ignore

package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) bump() {
	c.mu.Lock()
	if c.n > 0 {
		c.mu.Lock() // DOUBLELOCK "Double lock of .*"
		c.n++
	}
	c.n++
	c.mu.Unlock()
}

func main() {
	c := &counter{}
	c.bump()
}
