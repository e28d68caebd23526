//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runCLI invokes the built citation-engine binary with the given arguments.
func runCLI(args ...string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		if err := Build(); err != nil {
			return err
		}
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", binName, args, err)
	}
	return nil
}

// Ingest loads corpus/metadata/ YAML files into the corpus database.
func Ingest() error {
	return runCLI("ingest")
}

// Index rebuilds both retrieval indexes from the corpus.
func Index() error {
	return runCLI("index")
}
