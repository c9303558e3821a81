package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	validScheduleDir   = filepath.Join("..", "..", "testdata", "schedules", "valid")
	invalidScheduleDir = filepath.Join("..", "..", "testdata", "schedules", "invalid")
	scenarioDir        = filepath.Join("..", "..", "testdata", "scenarios")
)

// execute runs cmd with args and returns its stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeSchedule writes a single-file CUE schedule package into a fresh
// directory and returns the directory.
func writeSchedule(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	content := "package schedules\n\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schedule.cue"), []byte(content), 0o644))
	return dir
}
