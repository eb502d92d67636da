//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// corePackages hold the socket & adjacency core; the rest is plumbing
// (grid backends, layout files, CLI).
var corePackages = map[string]bool{
	"internal/sockets":  true,
	"internal/decor":    true,
	"internal/platform": true,
	"internal/rebuild":  true,
}

// packageStats counts Go lines of one package directory.
type packageStats struct {
	Prod int `json:"prod"`
	Test int `json:"test"`
}

// Stats prints one JSON record: Go LOC per package, core versus plumbing
// totals, and the number of layout fixtures.
func Stats() error {
	pkgs := make(map[string]*packageStats)

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", "_examples", "magefiles", binaryDir:
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		dir := filepath.ToSlash(filepath.Dir(path))
		ps, ok := pkgs[dir]
		if !ok {
			ps = &packageStats{}
			pkgs[dir] = ps
		}
		if strings.HasSuffix(path, "_test.go") {
			ps.Test += count
		} else {
			ps.Prod += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	var core, plumbing, tests int
	for dir, ps := range pkgs {
		tests += ps.Test
		if corePackages[dir] {
			core += ps.Prod
		} else {
			plumbing += ps.Prod
		}
	}

	layouts, err := filepath.Glob("internal/*/testdata/*.yaml")
	if err != nil {
		return err
	}

	record := struct {
		Packages    map[string]*packageStats `json:"packages"`
		CoreLOC     int                      `json:"go_loc_core"`
		PlumbingLOC int                      `json:"go_loc_plumbing"`
		TestLOC     int                      `json:"go_loc_test"`
		Layouts     int                      `json:"layout_fixtures"`
	}{pkgs, core, plumbing, tests, len(layouts)}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
