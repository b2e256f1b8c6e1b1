package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agent-breadcrumbs/breadcrumbs/internal/cli/commands"
)

func runRoot(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	code := run(root, args)
	return code, out.String(), errOut.String()
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"sessions", "show", "stats", "diagnose", "export", "serve", "validate", "config", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing command %q", name)
		}
	}
	for _, flag := range []string{"config", "log-level", "log-format"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag %q", flag)
		}
	}
}

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	logs := filepath.Join(dir, "agent_logs.csv")
	if err := os.WriteFile(logs, []byte("action_id,session_id\na1,s1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, []byte("action_id,session_id\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"entries found", []string{"--log-level", "error", "stats", logs}, commands.ExitOK},
		{"no entries", []string{"--log-level", "error", "stats", empty}, commands.ExitNoEntries},
		{"missing source", []string{"--log-level", "error", "stats", filepath.Join(dir, "missing.csv")}, commands.ExitFailure},
		{"bad config flag", []string{"--config", filepath.Join(dir, "nope.yaml"), "stats", logs}, commands.ExitFailure},
		{"unknown command", []string{"frobnicate"}, commands.ExitFailure},
		{"ok after no entries", []string{"version"}, commands.ExitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runRoot(t, tt.args...); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRun_PrintsErrors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	code, stdout, stderr := runRoot(t, "sessions")
	if code != commands.ExitFailure {
		t.Errorf("exit code = %d", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.HasPrefix(stderr, "Error: invalid config: sources") {
		t.Errorf("stderr = %q", stderr)
	}
}
