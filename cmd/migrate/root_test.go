package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hszk-dev/vidlib/internal/config"
)

func runCmd(t *testing.T, db config.DatabaseConfig, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(db)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommands_SQLite(t *testing.T) {
	db := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "vidlib.db"),
	}

	steps := []struct {
		args []string
		want string
	}{
		{args: []string{"version"}, want: "sqlite: no migrations applied"},
		{args: []string{"up"}, want: "sqlite: version 1"},
		{args: []string{"up"}, want: "sqlite: version 1"},
		{args: []string{"down"}, want: "sqlite: no migrations applied"},
		{args: []string{"up"}, want: "sqlite: version 1"},
		{args: []string{"down", "1"}, want: "sqlite: no migrations applied"},
	}

	for _, step := range steps {
		out, err := runCmd(t, db, step.args...)
		if err != nil {
			t.Fatalf("%v: error = %v", step.args, err)
		}
		if !strings.Contains(out, step.want) {
			t.Errorf("%v: output = %q, want %q", step.args, out, step.want)
		}
	}
}

func TestMigrateCommands_SQLitePathFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flag.db")
	db := config.DatabaseConfig{Driver: config.DriverPostgres}

	out, err := runCmd(t, db, "--driver", "sqlite", "--sqlite-path", path, "up")
	if err != nil {
		t.Fatalf("up error = %v", err)
	}
	if !strings.Contains(out, "sqlite: version 1") {
		t.Errorf("output = %q", out)
	}
}

func TestMigrateCommands_InvalidArgs(t *testing.T) {
	db := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "vidlib.db"),
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "non numeric steps", args: []string{"down", "two"}},
		{name: "zero steps", args: []string{"down", "0"}},
		{name: "too many args", args: []string{"down", "1", "2"}},
		{name: "up takes no args", args: []string{"up", "now"}},
		{name: "unknown driver", args: []string{"--driver", "mysql", "version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCmd(t, db, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
