package analysis

import (
	"io/ioutil"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

/*
	input is golock.yml
    analyze yml file -> users specify analysis config
*/

var (
	AllEntries = false // analyze every loaded package, not only those reachable from main
	DebugFlag  bool
	TestMode   = false // Used by golock_test.go for collecting output.
	Findings   []string

	ExcludedPkgs  []string
	ExcludedFns   []string // exact relative-name matches skipped by the call-graph walker
	EnabledFams   []string // lock families to analyze: sync, locker, wrapper
	AnalysisScope []string
	UserDir       string // directory packages are loaded from; empty means the working directory
)

func init() {
	ExcludedPkgs = []string{
		"fmt",
		"reflect",
		"sync",
		"runtime",
	}
	EnabledFams = []string{"sync", "locker", "wrapper"}
}

type GoLock struct {
	GoLockCfgs []GoLockCfg `yaml:"golockcfgs"`
}

type GoLockCfg struct {
	ExPkgs   []string `yaml:"excludePkgs"`
	ExFns    []string `yaml:"excludeFns"`
	Families []string `yaml:"lockFamilies"`
	Scope    []string `yaml:"analysisScope"`
	Dir      string   `yaml:"dir"`
}

// DecodeYmlFile takes in absolute path of golock.yml file. The file is
// optional; defaults stay in place when it is missing.
func DecodeYmlFile(absPath string) {
	glfile, err := ioutil.ReadFile(absPath)
	if err != nil {
		log.Info("No golock.yml file found at ", absPath, ", using default config. ")
		return
	}
	gls := GoLock{}
	err = yaml.Unmarshal(glfile, &gls)
	if err != nil {
		log.Fatalf("Yml Decode Error: %v", err)
	}

	for _, eachCfg := range gls.GoLockCfgs {
		if len(eachCfg.ExPkgs) > 0 {
			ExcludedPkgs = append(ExcludedPkgs, eachCfg.ExPkgs...)
		}
		ExcludedFns = eachCfg.ExFns
		if len(eachCfg.Families) > 0 {
			EnabledFams = eachCfg.Families
		}
		AnalysisScope = eachCfg.Scope
		if eachCfg.Dir != "" {
			UserDir = eachCfg.Dir
		}
	}
}
