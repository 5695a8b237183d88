// +build mage

package main

import (
	"os"

	"github.com/magefile/mage/sh"
	"github.com/mattn/go-shellwords"
	"github.com/mattn/go-zglob"
)

func init() {
	os.Setenv("GO111MODULE", "on")
}

func runVWithArgs(cmd string, args ...string) error {
	envArgs, err := shellwords.Parse(os.Getenv("ARGS"))
	if err != nil {
		return err
	}
	return sh.RunV(cmd, append(args, envArgs...)...)
}

// Format code
func Fmt() error {
	files, err := zglob.Glob("./**/*.go")
	if err != nil {
		return err
	}
	for _, file := range files {
		if ok, err := zglob.Match("./_*/**", file); ok || err != nil {
			continue
		}
		if err := sh.RunV("goimports", "-w", file); err != nil {
			return err
		}
	}
	return nil
}

// Check coding style
func Lint() error {
	return sh.RunV("golangci-lint", "run")
}

// Run test
func Test() error {
	return runVWithArgs("go", "test", "./...")
}

// Run program (pass arguments in ARGS)
func Run() error {
	return runVWithArgs("go", "run", "main.go")
}

// Dump the block catalog to catalog.json
func Catalog() error {
	out, err := sh.Output("go", "run", "main.go", "catalog", "--json")
	if err != nil {
		return err
	}
	return os.WriteFile("catalog.json", []byte(out+"\n"), 0644)
}

// Build binary
func Build() error {
	version, err := sh.Output("git", "describe", "--tags", "--always")
	if err != nil {
		version = "unknown"
	}
	return sh.RunV("go", "build", "-ldflags", "-X main.version="+version, ".")
}
