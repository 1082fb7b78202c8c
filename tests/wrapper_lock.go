//go:build ignore

package main

import "sync"

// SpinMutex stands in for a third-party lock wrapper type; the detector
// only knows it by its name.
type SpinMutex struct {
	inner sync.Mutex
}

func (m *SpinMutex) Lock()   { m.inner.Lock() }
func (m *SpinMutex) Unlock() { m.inner.Unlock() }

type ledger struct {
	mu      SpinMutex
	balance int
}

func (l *ledger) credit(n int) {
	l.mu.Lock()
	if n > 0 {
		l.mu.Lock() // DOUBLELOCK "Double lock of .*"
		l.balance += n
	}
	l.balance += n
	l.mu.Unlock()
}

func main() {
	l := &ledger{}
	l.credit(1)
}
