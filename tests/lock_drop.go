//go:build ignore

package main

import "sync"

type cache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *cache) reset(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	c.mu.Lock()
	c.data[key] = "fresh"
	c.mu.Unlock()
}

func main() {
	c := &cache{data: make(map[string]string)}
	c.reset("a")
}
