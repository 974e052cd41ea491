package main

import (
	"bytes"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origBranch := gitBranch
	origSHA := gitSHA
	t.Cleanup(func() {
		gitBranch = origBranch
		gitSHA = origSHA
	})

	gitBranch = "main"
	gitSHA = "abc123"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	if got, want := buf.String(), "main (abc123)\n"; got != want {
		t.Errorf("version output = %q, want %q", got, want)
	}
}
