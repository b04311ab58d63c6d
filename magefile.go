//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

func init() {
	os.Setenv("GO111MODULE", "on")
}

// Compile builds the xtask binary into bin/.
func Compile() error {
	fmt.Println(color.YellowString("Compiling the xtask binary, please wait."))
	out := filepath.Join(binDir, "xtask")
	if err := sh.RunV("go", "build", "-o", out, "./cmd/xtask"); err != nil {
		return fmt.Errorf("failed to compile xtask: %v", err)
	}

	fmt.Println(color.GreenString("Built %s", out))
	return nil
}

// RunTests executes all unit tests with the race detector.
func RunTests() error {
	if err := sh.RunV("go", "test", "-race", "-count=1", "./..."); err != nil {
		return fmt.Errorf("failed to run unit tests: %v", err)
	}

	return nil
}

// GenerateSchema regenerates schema/xtask-config.json.
func GenerateSchema() error {
	if err := sh.RunV("go", "run", "./cmd/schema-gen", "-o", "schema/xtask-config.json"); err != nil {
		return fmt.Errorf("failed to generate config schema: %v", err)
	}

	return nil
}

// PlanImages prints the engine invocations for every discovered target
// without building anything.
//
// Example usage:
//
// ```go
// mage planimages
// ```
func PlanImages() error {
	mg.Deps(Compile)

	return sh.RunV(filepath.Join(binDir, "xtask"), "build-image", "--dry-run", "--verbose")
}
