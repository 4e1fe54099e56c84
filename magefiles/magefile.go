//go:build mage

// Package main contains Mage build targets for paper-gatherer developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "paper-gatherer"
	cmdPkg     = "./cmd/paper-gatherer"
	secretsDir = ".secrets"
	configFile = "paper-gatherer.yaml"
)

const sampleConfig = `# paper-gatherer configuration. Every key may also be set through the
# environment, e.g. PAPER_GATHERER_LOG_LEVEL=debug.
http:
  timeout: 10s
fetch:
  max_attempts: 2
ratelimit:
  document_retry: {min: 2s, max: 5s}
  page: {min: 3s, max: 7s}
rotation:
  seed: 0
  proxies: []
  proxy_list_url: ""
sources:
  scholar: {page_size: 10, language: en}
  arxiv: {page_size: 10}
log:
  level: info
  format: console
dedup:
  index: .dedup.db
`

// Init writes a sample config file and the secrets directory when missing.
func Init() error {
	if err := os.MkdirAll(secretsDir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", secretsDir, err)
	}
	fmt.Println("  ", secretsDir)

	if _, err := os.Stat(configFile); err == nil {
		fmt.Println("  ", configFile, "(exists)")
		return nil
	}
	if err := os.WriteFile(configFile, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}
	fmt.Println("  ", configFile)
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Results collects Scholar results for $QUERY into $DIRECTORY.
func Results() error {
	mg.Deps(Build)
	return runCLI("results")
}

// Files downloads the documents listed in $DIRECTORY/results.json.
func Files() error {
	mg.Deps(Build)
	return runCLI("files")
}

// All runs the full pipeline for $QUERY, including arXiv.
func All() error {
	mg.Deps(Build)
	return runCLI("all", "--include-arxiv")
}

// runCLI invokes the built binary with the query and directory taken from
// the environment.
func runCLI(command string, extra ...string) error {
	dir := os.Getenv("DIRECTORY")
	if dir == "" {
		return fmt.Errorf("DIRECTORY must be set")
	}
	args := []string{command, "--directory", dir}
	if command != "files" {
		query := os.Getenv("QUERY")
		if query == "" {
			return fmt.Errorf("QUERY must be set")
		}
		args = append(args, "--query", query)
	}
	args = append(args, extra...)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Stats prints project metrics: Go production and test lines of code.
func Stats() error {
	var prod, tests int
	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, "_test.go") {
			tests += n
		} else {
			prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prod)
	fmt.Printf("Lines of code (Go, tests):      %d\n", tests)
	return nil
}

// countLines counts non-blank lines in a file.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n, sc.Err()
}
