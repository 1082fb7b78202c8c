//go:build ignore

package main

import "sync"

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) record(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if entry == "" {
		return
	}
	j.mu.Lock() // DOUBLELOCK "Double lock of .*"
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

func main() {
	j := &journal{}
	j.record("x")
}
