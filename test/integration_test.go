// ABOUTME: Integration tests for therapose CLI.
// ABOUTME: Builds the binary and runs a full prescription workflow against it.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}

	projectRoot, _ := filepath.Abs("..")
	binary := filepath.Join(t.TempDir(), "therapose")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/therapose")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--db", dbPath}, args...)
		cmd := exec.Command(binary, fullArgs...)
		cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"))
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"instructor", "add", "yogi", "yogi@example.com", "Ana", "Vidal", "--id", "i1"}, "Added instructor yogi"},
		{[]string{"patient", "add", "alice", "alice@example.com", "Alice", "Smith", "--id", "p1"}, "Added patient alice"},
		{[]string{"assign", "i1", "p1"}, "Assigned alice to yogi"},
		{[]string{"posture", "list", "--type", "Insomnia"}, "Insomnia (12 postures)"},
		{[]string{"series", "create", "p1", "--name", "Rest", "--type", "Insomnia", "--sessions", "1", "--posture", "8:12"}, "Created Insomnia series"},
		{[]string{"session", "record", "1", "--before", "4", "--after", "2"}, "Series complete"},
		{[]string{"patient", "show", "p1"}, "1/1"},
		{[]string{"export", "markdown"}, "### Rest - Insomnia"},
	}

	for _, s := range steps {
		output, err := run(s.args...)
		if err != nil {
			t.Fatalf("%v failed: %v\n%s", s.args, err, output)
		}
		if !strings.Contains(output, s.want) {
			t.Errorf("%v: expected %q in output, got: %s", s.args, s.want, output)
		}
	}

	output, err := run("session", "record", "1", "--before", "1", "--after", "0")
	if err == nil {
		t.Errorf("Expected completed series to refuse a session, got: %s", output)
	}
}
