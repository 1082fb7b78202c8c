//go:build ignore

package main

import "sync"

type pool struct {
	mu   sync.Mutex
	free int
}

// refill is a maintenance loop. The harness denylists it, so the
// call-graph walker must never follow calls into it; without the
// denylist the acquire inside would be a double lock under take.
func refill(p *pool) {
	for {
		p.mu.Lock()
		p.free++
		p.mu.Unlock()
	}
}

func take(p *pool) {
	p.mu.Lock()
	refill(p)
	p.free--
	p.mu.Unlock()
}

func main() {
	take(&pool{})
}
