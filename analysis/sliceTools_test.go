package analysis

import "testing"

func TestSliceContainsStr(t *testing.T) {
	s := []string{"(*raft.Node).tick", "main.gc"}
	if !sliceContainsStr(s, "main.gc") {
		t.Error("expected main.gc to be found")
	}
	if sliceContainsStr(s, "main.main") {
		t.Error("did not expect main.main to be found")
	}
	if sliceContainsStr(nil, "anything") {
		t.Error("empty slice contains nothing")
	}
}
