//+build !windows

package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/o2lab/golock/analysis"
	"github.com/o2lab/golock/stats"
)

// main sets up arguments and calls the double-lock analysis runner.
func main() {
	debug := flag.Bool("debug", false, "Prints log.Debug messages.")
	lockOps := flag.Bool("lockOps", false, "Prints lock and unlock operations. ")
	flag.BoolVar(&stats.CollectStats, "collectStats", false, "Collect analysis statistics.")
	help := flag.Bool("help", false, "Show all command-line options.")
	analyzeAll := flag.Bool("analyzeAll", false, "Analyze all loaded packages, not only main-reachable ones. ")
	flag.Parse()
	if *help {
		flag.PrintDefaults()
		return
	}
	if *debug {
		analysis.DebugFlag = true
		log.SetLevel(log.DebugLevel)
	}
	if *lockOps {
		log.SetLevel(log.TraceLevel)
	}
	if *analyzeAll {
		analysis.AllEntries = true
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	curDir, _ := os.Getwd()
	analysis.DecodeYmlFile(curDir + "/golock.yml")

	// set ulimit -n within the executed program
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		fmt.Println("Error Getting Rlimit ", err)
	}
	rLimit.Max = 10240
	rLimit.Cur = 10240
	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		fmt.Println("Error Setting Rlimit ", err)
	}

	runner := &analysis.AnalysisRunner{}
	err0 := runner.Run(flag.Args())
	if stats.CollectStats {
		stats.ShowStats()
	}
	if err0 != nil {
		log.Fatal(err0)
	}
}
