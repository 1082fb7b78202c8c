package stats

import (
	log "github.com/sirupsen/logrus"
)

type CounterType int

const (
	NFunction CounterType = iota
	NCallSite
	NAcquire
	NRelease
	NUnwrap
	NWalkedFn
	NWalkedAcquire
	NFinding

	// Must be the last.
	NStatCount
)

var StatName map[CounterType]string = map[CounterType]string{
	NFunction:      "Functions of Interest",
	NCallSite:      "Resolved Call Sites",
	NAcquire:       "Lock Acquires",
	NRelease:       "Guard Releases",
	NUnwrap:        "Guard Unwraps",
	NWalkedFn:      "Functions Walked (callgraph)",
	NWalkedAcquire: "Acquires Investigated",
	NFinding:       "Double Locks Found",
}

var count map[CounterType]int = make(map[CounterType]int)

var CollectStats = false

func IncStat(whichStat CounterType) {
	if !CollectStats {
		return
	}
	_, ok := count[whichStat]
	if !ok {
		count[whichStat] = 0
	}
	count[whichStat]++
}

func GetStat(whichStat CounterType) int {
	return count[whichStat]
}

func ShowStats() {
	log.Info("------ STATS ------")
	for i := 0; i < int(NStatCount); i++ {
		stat := CounterType(i)
		log.Infof("  %-28s:%10d", StatName[stat], GetStat(stat))
	}
	log.Info("-------------------")
}
