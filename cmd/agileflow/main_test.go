package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"agileflow": run,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("AGILEFLOW_DB_PATH", filepath.Join(env.WorkDir, "data", "agileflow.db"))
			env.Setenv("AGILEFLOW_LOG_LEVEL", "warn")
			return nil
		},
	})
}

func TestRootCommandName(t *testing.T) {
	if cmd := newRootCmd(); cmd.Use != "agileflow" {
		t.Fatalf("expected root command name agileflow, got %q", cmd.Use)
	}
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"task", "create"}, {"task", "list"}, {"task", "show"}, {"task", "status"},
		{"task", "assign"}, {"task", "unassign"}, {"task", "rm"},
		{"project", "create"}, {"project", "list"},
		{"user", "create"}, {"user", "list"},
		{"board"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Errorf("command %v not registered: %v", path, err)
		}
	}
}
