//go:build mage

// Package main contains Mage build targets for search-aggregator developer tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// projectDirs lists the working directories the service expects.
var projectDirs = []string{
	"data",
	".secrets",
	"results",
}

// Init creates the local data, secrets and saved-results directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "search-aggregator"
	cmdPkg  = "./cmd/search-aggregator"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := goCmd("build", "-o", out, cmdPkg); err != nil {
		return err
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return goCmd("test", "-race", "./...")
}

// Lint runs go vet over the module.
func Lint() error {
	return goCmd("vet", "./...")
}

// goCmd runs the go tool with args, streaming its output.
func goCmd(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go %s: %w", args[0], err)
	}
	return nil
}

// lineCount holds the non-blank Go lines of one package directory.
type lineCount struct{ prod, test int }

// Stats prints non-blank Go lines per package, split into production and
// test code, and the word count of the Markdown and YAML files in the tree.
func Stats() error {
	pkgs, docWords, err := collectStats(".")
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(pkgs))
	for dir := range pkgs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var total lineCount
	for _, dir := range dirs {
		c := pkgs[dir]
		fmt.Printf("  %-32s %6d prod %6d test\n", dir, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Printf("Lines of code (Go, production): %d\n", total.prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", total.test)
	fmt.Printf("Words (Markdown and YAML):      %d\n", docWords)
	return nil
}

// collectStats walks root, skipping directories that start with "_" or "."
// as the go tool does.
func collectStats(root string) (map[string]*lineCount, int, error) {
	pkgs := map[string]*lineCount{}
	docWords := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".go":
			n, err := nonBlankLines(path)
			if err != nil {
				return err
			}
			dir, err := filepath.Rel(root, filepath.Dir(path))
			if err != nil {
				return err
			}
			c := pkgs[dir]
			if c == nil {
				c = &lineCount{}
				pkgs[dir] = c
			}
			if strings.HasSuffix(path, "_test.go") {
				c.test += n
			} else {
				c.prod += n
			}
		case ".md", ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			docWords += len(strings.Fields(string(data)))
		}
		return nil
	})
	return pkgs, docWords, err
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
