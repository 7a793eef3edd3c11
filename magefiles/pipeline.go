//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Test runs the full test suite.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Probe builds the CLI and gathers raw findings for a sample pairing
// against the local datasets in data/.
func Probe() error {
	mg.Deps(Build)
	return runBinary("sources", "probe", "Metformin", "Alzheimer's Disease")
}

// Analyze builds the CLI and runs a full sample analysis end to end.
func Analyze() error {
	mg.Deps(Build)
	return runBinary("analyze", "Metformin", "Alzheimer's Disease")
}

func runBinary(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}
