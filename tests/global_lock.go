//go:build ignore

package main

import "sync"

var stateMu sync.Mutex
var state = make(map[string]int)

func update(key string) {
	stateMu.Lock()
	record(key)
	stateMu.Unlock()
}

func record(key string) {
	stateMu.Lock() // DOUBLELOCK "Double lock of .*"
	state[key]++
	stateMu.Unlock()
}

func main() {
	update("a")
}
