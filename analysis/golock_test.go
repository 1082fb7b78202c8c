package analysis

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeYmlFile(t *testing.T) {
	savedPkgs, savedFns := ExcludedPkgs, ExcludedFns
	savedFams, savedScope, savedDir := EnabledFams, AnalysisScope, UserDir
	defer func() {
		ExcludedPkgs, ExcludedFns = savedPkgs, savedFns
		EnabledFams, AnalysisScope, UserDir = savedFams, savedScope, savedDir
	}()

	tmpDir, err := ioutil.TempDir("", "golock")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)
	path := filepath.Join(tmpDir, "golock.yml")
	cfg := []byte(`golockcfgs:
  - excludePkgs: ["vendorpkg"]
    excludeFns: ["main.gc"]
    lockFamilies: ["sync"]
    analysisScope: ["example.com/app"]
    dir: "/src/app"
`)
	if err := ioutil.WriteFile(path, cfg, 0644); err != nil {
		t.Fatal(err)
	}

	DecodeYmlFile(path)

	if !sliceContainsStr(ExcludedPkgs, "vendorpkg") {
		t.Error("excludePkgs not applied")
	}
	if !sliceContainsStr(ExcludedFns, "main.gc") {
		t.Error("excludeFns not applied")
	}
	if len(EnabledFams) != 1 || EnabledFams[0] != "sync" {
		t.Errorf("lockFamilies = %v, want [sync]", EnabledFams)
	}
	if len(AnalysisScope) != 1 || AnalysisScope[0] != "example.com/app" {
		t.Errorf("analysisScope = %v, want [example.com/app]", AnalysisScope)
	}
	if UserDir != "/src/app" {
		t.Errorf("dir = %q, want /src/app", UserDir)
	}
}

func TestDecodeYmlFileMissing(t *testing.T) {
	savedDir := UserDir
	defer func() { UserDir = savedDir }()

	DecodeYmlFile("/nonexistent/golock.yml")
	if UserDir != savedDir {
		t.Errorf("missing config file must leave defaults alone, dir = %q", UserDir)
	}
}
