package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/taskmgr-go/internal/store"
	"github.com/nibzard/taskmgr-go/internal/task"
)

var envKeys = []string{
	"TASKMGR_FILE",
	"TASKMGR_ON_CORRUPT",
	"TASKMGR_STRICT",
	"TASKMGR_LOG_LEVEL",
	"TASKMGR_LOG_FORMAT",
	"TASKMGR_LOG_TIMESTAMPS",
	"TASKMGR_LOG_CALLER",
}

// setup isolates config lookup in a temp dir and captures the standard
// streams. It returns the working directory.
func setup(t *testing.T, input string) (dir string, out, errOut *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldIn, oldOut, oldErr := stdin, stdout, stderr
	stdin, stdout, stderr = strings.NewReader(input), out, errOut
	t.Cleanup(func() {
		stdin, stdout, stderr = oldIn, oldOut, oldErr
	})
	return dir, out, errOut
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return Run(context.Background(), args)
}

func TestRunHelpAndVersion(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"help flag", []string{"-help"}, "Commands:"},
		{"h flag", []string{"-h"}, "Global Options:"},
		{"help command", []string{"help"}, "taskmgr [global options]"},
		{"version flag", []string{"-version"}, "taskmgr version dev"},
		{"v flag", []string{"-v"}, "taskmgr version dev"},
		{"version command", []string{"version"}, "taskmgr version dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, _ := setup(t, "")
			require.NoError(t, run(t, tt.args...))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRunUnknownCommand(t *testing.T) {
	setup(t, "")
	err := run(t, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: frobnicate")
}

func TestRunInvalidConfig(t *testing.T) {
	setup(t, "")
	err := run(t, "-on-corrupt", "maybe", "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestDefaultCommandIsMenu(t *testing.T) {
	dir, out, _ := setup(t, "1\nBuy milk\n2% milk\n3\n6\n")
	require.NoError(t, run(t))

	assert.Contains(t, out.String(), "=== TASK MANAGER ===")
	assert.Contains(t, out.String(), "Task added successfully.")
	assert.Contains(t, out.String(), "Goodbye 👋")

	st, err := store.Open(filepath.Join(dir, "tasks.json"))
	require.NoError(t, err)
	require.Equal(t, 1, st.Len())
	assert.Equal(t, "Buy milk", st.List()[0].Title)
}

func TestAddListDoneRemove(t *testing.T) {
	dir, out, _ := setup(t, "")
	file := filepath.Join(dir, "work.json")

	require.NoError(t, run(t, "-file", file, "add", "-d", "2% milk", "-p", "3", "Buy milk"))
	require.NoError(t, run(t, "-file", file, "add", "-title", "Call mom", "-priority", "1"))
	assert.Contains(t, out.String(), "Added task 1: Buy milk")
	assert.Contains(t, out.String(), "Added task 2: Call mom")

	out.Reset()
	require.NoError(t, run(t, "-file", file, "ls"))
	assert.Contains(t, out.String(), "1. [✘] Buy milk")
	assert.Contains(t, out.String(), "   Description: 2% milk")
	assert.Contains(t, out.String(), "2. [✘] Call mom")

	out.Reset()
	require.NoError(t, run(t, "-file", file, "done", "2"))
	assert.Equal(t, "Task marked as completed.\n", out.String())

	out.Reset()
	require.NoError(t, run(t, "-file", file, "rm", "1"))
	assert.Equal(t, "Task deleted.\n", out.String())

	st, err := store.Open(file)
	require.NoError(t, err)
	require.Equal(t, 1, st.Len())
	assert.Equal(t, "Call mom", st.List()[0].Title)
	assert.True(t, st.List()[0].Completed)
}

func TestAddRejectsBadPriority(t *testing.T) {
	dir, _, _ := setup(t, "")
	err := run(t, "add", "-p", "9", "Too urgent")
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrInvalidPriority)

	_, statErr := os.Stat(filepath.Join(dir, "tasks.json"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written")
}

func TestTaskNumberArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		wantOut string
	}{
		{"not a number", []string{"done", "one"}, `invalid task number "one"`, ""},
		{"missing", []string{"rm"}, "expected exactly one task number", ""},
		{"too many", []string{"rm", "1", "2"}, "expected exactly one task number", ""},
		{"zero", []string{"done", "0"}, "", "No task with that number.\n"},
		{"past end", []string{"rm", "5"}, "", "No task with that number.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, out, _ := setup(t, "")
			require.NoError(t, run(t, "add", "-p", "2", "keep"))
			path := filepath.Join(dir, "tasks.json")
			before, err := os.ReadFile(path)
			require.NoError(t, err)
			out.Reset()

			err = run(t, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out.String())
			}

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestStatsCommand(t *testing.T) {
	_, out, _ := setup(t, "")
	require.NoError(t, run(t, "add", "-p", "1", "a"))
	require.NoError(t, run(t, "add", "-p", "2", "b"))
	require.NoError(t, run(t, "done", "1"))

	out.Reset()
	require.NoError(t, run(t, "stats"))
	assert.Contains(t, out.String(), "Total Tasks    : 2\nCompleted      : 1\nPending        : 1\n")

	out.Reset()
	require.NoError(t, run(t, "stats", "-json"))
	var got store.Stats
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, store.Stats{Total: 2, Completed: 1, Pending: 1}, got)
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		wantOut string
	}{
		{"valid", `[{"title":"a","description":"","priority":2,"completed":false,"created_at":"2024-05-01T10:11:12"}]`, false, "1 tasks, OK"},
		{"empty list", "[]", false, "0 tasks, OK"},
		{"not json", "{{", true, ""},
		{"missing field", `[{"title":"a"}]`, true, ""},
		{"priority out of range", `[{"title":"a","description":"","priority":9,"completed":false,"created_at":"2024-05-01T10:11:12"}]`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, out, _ := setup(t, "")
			require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte(tt.content), 0644))

			// The configured recovery policy does not soften validation.
			err := run(t, "-on-corrupt", "empty", "validate")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, store.ErrCorruptStore)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestValidateMissingFile(t *testing.T) {
	_, out, _ := setup(t, "")
	require.NoError(t, run(t, "validate"))
	assert.Contains(t, out.String(), "nothing to validate")
}

func TestCorruptFilePolicy(t *testing.T) {
	dir, out, errOut := setup(t, "")
	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	err := run(t, "ls")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorruptStore)

	require.NoError(t, run(t, "-on-corrupt", "empty", "ls"))
	assert.Contains(t, out.String(), "No tasks available.")
	assert.Contains(t, errOut.String(), "ignoring unreadable task file")
}

func TestExportCommand(t *testing.T) {
	dir, out, _ := setup(t, "")
	require.NoError(t, run(t, "add", "-d", "2% milk", "-p", "3", "Buy milk"))

	out.Reset()
	require.NoError(t, run(t, "export"))
	data, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	require.NoError(t, err)
	assert.Equal(t, string(data), out.String())

	out.Reset()
	require.NoError(t, run(t, "export", "-format", "yaml"))
	var tasks []task.Task
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)

	target := filepath.Join(dir, "out.yaml")
	out.Reset()
	require.NoError(t, run(t, "export", "-format", "yml", "-o", target))
	assert.Empty(t, out.String())
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), "title: Buy milk")

	assert.Error(t, run(t, "export", "-format", "csv"))
}

func TestConfigCommand(t *testing.T) {
	dir, out, _ := setup(t, "")

	require.NoError(t, run(t, "config", "init"))
	assert.Contains(t, out.String(), "Wrote taskmgr.toml")
	_, err := os.Stat(filepath.Join(dir, "taskmgr.toml"))
	require.NoError(t, err)

	assert.Error(t, run(t, "config", "init"), "refuses to overwrite")

	out.Reset()
	require.NoError(t, run(t, "-strict", "config"))
	assert.Contains(t, out.String(), "# Loaded from: taskmgr.toml")
	assert.Contains(t, out.String(), `task_file = "tasks.json"`)
	assert.Contains(t, out.String(), "strict = true")

	assert.Error(t, run(t, "config", "bogus"))
}

func TestEnvironmentSelectsTaskFile(t *testing.T) {
	dir, _, _ := setup(t, "")
	path := filepath.Join(dir, "from-env.json")
	t.Setenv("TASKMGR_FILE", path)

	require.NoError(t, run(t, "add", "-p", "4", "env task"))
	st, err := store.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}
