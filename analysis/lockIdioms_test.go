package analysis

import "testing"

func TestMatchSyncName(t *testing.T) {
	cases := []struct {
		name string
		want opClass
	}{
		{"(*sync.Mutex).Lock", opMutexLock},
		{"(*sync.Mutex).Unlock", opManualDrop},
		{"(*sync.RWMutex).Lock", opWriteLock},
		{"(*sync.RWMutex).RLock", opReadLock},
		{"(*sync.RWMutex).Unlock", opManualDrop},
		{"(*sync.RWMutex).RUnlock", opManualDrop},
		{"(*sync.RWMutex).RLocker", opGuardUnwrap},
		{"(*sync.WaitGroup).Wait", opNotACall},
		{"(*sync.Once).Do", opNotACall},
		{"fmt.Println", opNotACall},
	}
	for _, c := range cases {
		if got := matchSyncName(c.name); got != c.want {
			t.Errorf("matchSyncName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestMatchWrapper(t *testing.T) {
	cases := []struct {
		recv   string
		method string
		want   opClass
	}{
		{"*deadlock.Mutex", "Lock", opMutexLock},
		{"*deadlock.Mutex", "Unlock", opManualDrop},
		{"*deadlock.RWMutex", "Lock", opWriteLock},
		{"*deadlock.RWMutex", "RLock", opReadLock},
		{"*deadlock.RWMutex", "RUnlock", opManualDrop},
		{"*main.SpinMutex", "Lock", opMutexLock},
		// standard sync types belong to the sync family, not this one
		{"*sync.Mutex", "Lock", opNotACall},
		// raw/internal variants carry no guard semantics we understand
		{"*runtime.rawMutex", "Lock", opNotACall},
		{"*pkg.RawRwLockSpin", "Lock", opNotACall},
		// mutex-named receiver with a non-lock method
		{"*deadlock.Mutex", "String", opNotACall},
		// non-lock receiver
		{"*bytes.Buffer", "Lock", opNotACall},
	}
	for _, c := range cases {
		if got := matchWrapper(c.recv, c.method); got != c.want {
			t.Errorf("matchWrapper(%q, %q) = %v, want %v", c.recv, c.method, got, c.want)
		}
	}
}

func TestEnabledFamilies(t *testing.T) {
	saved := EnabledFams
	defer func() { EnabledFams = saved }()

	EnabledFams = []string{"sync"}
	fams := enabledFamilies()
	if len(fams) != 1 || fams[0] != familySync {
		t.Errorf("enabledFamilies() = %v, want [sync]", fams)
	}

	EnabledFams = []string{"wrapper", "locker", "bogus"}
	fams = enabledFamilies()
	if len(fams) != 2 || fams[0] != familyWrapper || fams[1] != familyLocker {
		t.Errorf("enabledFamilies() = %v, want [wrapper locker]", fams)
	}
}
