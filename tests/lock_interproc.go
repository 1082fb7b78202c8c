//go:build ignore

package main

import "sync"

type registry struct {
	mu    sync.Mutex
	items map[string]int
}

func (r *registry) insert(name string) {
	r.mu.Lock()
	r.refresh(name)
	r.mu.Unlock()
}

func (r *registry) refresh(name string) {
	r.validate(name)
}

func (r *registry) validate(name string) {
	r.mu.Lock() // DOUBLELOCK "Double lock of .*"
	r.items[name]++
	r.mu.Unlock()
}

func main() {
	r := &registry{items: make(map[string]int)}
	r.insert("a")
}
