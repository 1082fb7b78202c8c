package analysis

import (
	"golang.org/x/tools/go/ssa"
)

// sliceContainsStr if the e value is present in the slice, s, of strings
// then true, and false otherwise
func sliceContainsStr(s []string, e string) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

// insIndex returns the index of theIns within its block, -1 if absent.
func insIndex(aBlock *ssa.BasicBlock, theIns ssa.Instruction) int {
	for i, ins := range aBlock.Instrs {
		if ins == theIns {
			return i
		}
	}
	return -1
}
