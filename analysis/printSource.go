package analysis

import (
	"bufio"
	"go/token"
	"os"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

func getLineNumber(filePath string, lineNum int) (string, error) {
	sourceFile, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(sourceFile)
	lineStr := ""
	for i := 1; scanner.Scan(); i++ {
		if i == lineNum {
			lineStr = scanner.Text()
			break
		}
	}
	err = sourceFile.Close()
	if err != nil {
		return "", err
	}
	return lineStr, err
}

var isStringAlphabetic = regexp.MustCompile(`^[a-zA-Z0-9_.]`).MatchString

// printVarName extracts the locked expression's text at a reported position.
// A call position points at its left paren, so the expression sits just
// before the reported column. Falls back to a generic name when the source
// is unreadable.
func printVarName(pos token.Position) string {
	theLine, err := getLineNumber(pos.Filename, pos.Line)
	if err != nil || theLine == "" {
		return "lock"
	}
	end := pos.Column - 1
	if end < 0 || end > len(theLine) {
		end = len(theLine)
	}
	start := end
	for start > 0 && isStringAlphabetic(theLine[start-1:start]) {
		start--
	}
	if start == end {
		return strings.TrimSpace(theLine)
	}
	return theLine[start:end]
}

func printSource(pos token.Position) {
	for lineNum := pos.Line - 3; lineNum <= pos.Line+3; lineNum++ {
		theLine, _ := getLineNumber(pos.Filename, lineNum)
		if lineNum == pos.Line {
			log.Info("\t>> ", theLine, "\t<<<<<<")
		} else {
			log.Info("\t>> ", theLine)
		}
	}
}
