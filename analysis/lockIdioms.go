package analysis

import (
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// opClass is the closed set of lock-relevant call classifications. Every
// name-matching heuristic in the tool lives in this file so the patterns
// can be swapped out in one place if the SSA builder ever carries lock
// attributes directly.
type opClass int

const (
	opNotACall opClass = iota
	opMutexLock
	opReadLock
	opWriteLock
	opManualDrop
	opAutoDrop
	opGuardUnwrap
)

func (c opClass) String() string {
	switch c {
	case opMutexLock:
		return "MutexLock"
	case opReadLock:
		return "ReadLock"
	case opWriteLock:
		return "WriteLock"
	case opManualDrop:
		return "ManualDrop"
	case opAutoDrop:
		return "AutoDrop"
	case opGuardUnwrap:
		return "GuardUnwrap"
	}
	return "NotACall"
}

func (c opClass) isAcquire() bool {
	return c == opMutexLock || c == opReadLock || c == opWriteLock
}

func (c opClass) isDrop() bool {
	return c == opManualDrop || c == opAutoDrop
}

// lockFamily selects which lock API idiom a detection pass recognizes.
// The families are independent and composable; each enabled family runs
// as its own pass over the module.
type lockFamily int

const (
	familySync    lockFamily = iota // standard library sync.Mutex / sync.RWMutex
	familyLocker                    // sync.Locker interface invokes
	familyWrapper                   // third-party lock wrapper types, matched by name
)

func (f lockFamily) String() string {
	switch f {
	case familySync:
		return "sync"
	case familyLocker:
		return "locker"
	case familyWrapper:
		return "wrapper"
	}
	return "unknown"
}

// enabledFamilies maps the configured family names onto lockFamily values.
func enabledFamilies() []lockFamily {
	var fams []lockFamily
	for _, name := range EnabledFams {
		switch name {
		case "sync":
			fams = append(fams, familySync)
		case "locker":
			fams = append(fams, familyLocker)
		case "wrapper":
			fams = append(fams, familyWrapper)
		}
	}
	return fams
}

// classifyIns decides whether ins is a lock acquire, a guard release, or a
// guard unwrap under the given family. It returns the classification, the
// lock receiver value, and the resolved callee (nil for interface invokes).
// Unresolvable indirect calls classify as opNotACall and no flow passes
// through them.
func classifyIns(ins ssa.Instruction, fam lockFamily) (opClass, ssa.Value, *ssa.Function) {
	var common *ssa.CallCommon
	deferred := false
	switch call := ins.(type) {
	case *ssa.Call:
		common = call.Common()
	case *ssa.Defer:
		common = call.Common()
		deferred = true
	default:
		return opNotACall, nil, nil
	}

	if common.IsInvoke() {
		if fam != familyLocker {
			return opNotACall, nil, nil
		}
		if !isLockerInterface(common.Value.Type()) {
			return opNotACall, nil, nil
		}
		switch common.Method.Name() {
		case "Lock":
			if deferred { // a deferred acquire holds nothing on this path
				return opNotACall, nil, nil
			}
			return opMutexLock, common.Value, nil
		case "Unlock":
			if deferred {
				return opAutoDrop, common.Value, nil
			}
			return opManualDrop, common.Value, nil
		}
		return opNotACall, nil, nil
	}

	callee := common.StaticCallee()
	if callee == nil {
		return opNotACall, nil, nil
	}
	var recv ssa.Value
	if len(common.Args) > 0 {
		recv = common.Args[0]
	}

	var class opClass
	switch fam {
	case familySync:
		class = matchSyncName(callee.String())
	case familyWrapper:
		sig := callee.Signature
		if sig.Recv() == nil {
			return opNotACall, nil, nil
		}
		class = matchWrapper(sig.Recv().Type().String(), callee.Name())
	default:
		return opNotACall, nil, nil
	}
	if class == opNotACall {
		return opNotACall, nil, nil
	}
	if class.isAcquire() && deferred {
		return opNotACall, nil, nil
	}
	if class == opManualDrop && deferred {
		class = opAutoDrop
	}
	return class, recv, callee
}

// matchSyncName classifies a resolved callee by its relative name against
// the standard library mutex/rwlock API. Releases come back as opManualDrop;
// the caller rewrites deferred releases to opAutoDrop.
func matchSyncName(name string) opClass {
	switch name {
	case "(*sync.Mutex).Lock":
		return opMutexLock
	case "(*sync.RWMutex).RLock":
		return opReadLock
	case "(*sync.RWMutex).Lock":
		return opWriteLock
	case "(*sync.Mutex).Unlock", "(*sync.RWMutex).Unlock", "(*sync.RWMutex).RUnlock":
		return opManualDrop
	case "(*sync.RWMutex).RLocker":
		return opGuardUnwrap
	}
	return opNotACall
}

// matchWrapper is the generic heuristic for third-party lock wrapper types:
// a Lock-shaped method on a receiver whose type name mentions a mutex or
// rwlock, excluding raw/internal variants.
func matchWrapper(recvType, method string) opClass {
	if !isLockWrapperName(recvType) {
		return opNotACall
	}
	rw := strings.Contains(recvType, "rwlock") || strings.Contains(recvType, "RwLock") ||
		strings.Contains(recvType, "RWLock") || strings.Contains(recvType, "RWMutex")
	switch method {
	case "Lock":
		if rw {
			return opWriteLock
		}
		return opMutexLock
	case "RLock":
		if rw {
			return opReadLock
		}
	case "Unlock", "RUnlock":
		return opManualDrop
	}
	return opNotACall
}

// isLockWrapperName reports whether a receiver type name looks like a lock
// wrapper. Standard sync types are handled by the sync family; raw/internal
// variants never carry guard semantics we understand.
func isLockWrapperName(recvType string) bool {
	if strings.HasPrefix(recvType, "*sync.") || strings.HasPrefix(recvType, "sync.") {
		return false
	}
	if strings.Contains(recvType, "raw") || strings.Contains(recvType, "Raw") {
		return false
	}
	return strings.Contains(recvType, "mutex") || strings.Contains(recvType, "Mutex") ||
		strings.Contains(recvType, "rwlock") || strings.Contains(recvType, "RwLock") ||
		strings.Contains(recvType, "RWLock")
}

// isLockerInterface reports whether t is the sync.Locker interface.
func isLockerInterface(t types.Type) bool {
	if _, ok := t.Underlying().(*types.Interface); !ok {
		return false
	}
	return t.String() == "sync.Locker"
}
