//go:build mage

// Package main provides build targets for the filmdex project using Mage.
//
// Usage:
//
//	mage build            Compile the filmdex binary to bin/
//	mage install          Install filmdex to GOPATH/bin
//	mage clean            Remove build artifacts
//	mage lint             Run golangci-lint
//	mage test:all         Run every test
//	mage test:race        Run every test with the race detector
//	mage test:cover       Write coverage.out and print the summary
//	mage test:golden      Regenerate the golden snapshot fixtures
//	mage seed <file>      Build, init and import a seed file
//	mage publish          Build and export the snapshot
//	mage stats            Print Go LOC split into production and tests
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "filmdex"
	binaryDir  = "bin"
	cmdDir     = "./cmd/filmdex"
	versionVar = "github.com/mesh-intelligence/filmdex/internal/cli.Version"
)

// binary returns the path of the built CLI.
func binary() string {
	return filepath.Join(binaryDir, binaryName)
}

// Build compiles the filmdex binary to bin/. FILMDEX_VERSION, when set,
// is stamped into the version command.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", binary()}
	if v := os.Getenv("FILMDEX_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), binary())
}

// Clean removes build artifacts.
func Clean() error {
	for _, path := range []string{binaryDir, "coverage.out"} {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Seed initializes the default workspace and imports file.
func Seed(file string) error {
	mg.Deps(Build)
	if err := sh.RunV(binary(), "init"); err != nil {
		return err
	}
	return sh.RunV(binary(), "import", file)
}

// Publish exports the snapshot of the default workspace.
func Publish() error {
	mg.Deps(Build)
	return sh.RunV(binary(), "export")
}

// Stats prints Go lines of code.
func Stats() error {
	var prodLines, testLines int

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
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
		if strings.HasSuffix(path, "_test.go") {
			testLines += count
		} else {
			prodLines += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
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
