package analysis

import "testing"

func TestMutexSourceEquality(t *testing.T) {
	a := &mutexSource{typeName: "pkg.Server", path: []int{2}}
	b := &mutexSource{typeName: "pkg.Server", path: []int{2}}
	c := &mutexSource{typeName: "pkg.Server", path: []int{3}}
	d := &mutexSource{typeName: "pkg.Client", path: []int{2}}
	nested := &mutexSource{typeName: "pkg.Server", path: []int{2, 0}}

	if !a.equal(b) {
		t.Error("structurally identical sources must be equal")
	}
	if a.equal(c) {
		t.Error("different field index must not be equal")
	}
	if a.equal(d) {
		t.Error("different owning type must not be equal")
	}
	if a.equal(nested) {
		t.Error("prefix path must not equal longer path")
	}
	if a.equal(nil) || (*mutexSource)(nil).equal(a) {
		t.Error("nil source never aliases")
	}
}

func TestMutexSourceKey(t *testing.T) {
	a := &mutexSource{typeName: "pkg.Server", path: []int{1, 4}}
	b := &mutexSource{typeName: "pkg.Server", path: []int{1, 4}}
	if a.key() != b.key() {
		t.Errorf("equal sources must share a key: %q vs %q", a.key(), b.key())
	}
	c := &mutexSource{typeName: "pkg.Server", path: []int{14}}
	if a.key() == c.key() {
		t.Errorf("paths [1 4] and [14] must not collide: %q", a.key())
	}
}
