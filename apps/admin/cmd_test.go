package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/year"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	testutil.InitValidators()

	db := inmemdb.Open()
	return &commandLine{
		conf: &core.Config{
			AppName:   "Shule",
			SecretKey: "test-secret",
			Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
		},
		yearSvc: year.NewService(inmemdb.NewYearRepository(db)),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, want %v%s", tt.wantErr, tt.wantErrStr)
				}
				return
			}
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if tt.wantErrStr != "" {
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			} else {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version", "fix": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a version", command)
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a version"},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	runCliTests(t, cli, tests)
}

func Test_commandLine_createYear(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"createyear"}, wantErr: errHelp},
		{name: "creates the year", args: []string{"createyear", "-name", "2024-2025"}},
		{name: "rejects a duplicate", args: []string{"createyear", "-name", "2024-2025"}, wantErrStr: year.ErrNameExists.Error()},
	}
	runCliTests(t, cli, tests)

	if _, err := cli.yearSvc.GetByName(context.Background(), "2024-2025"); err != nil {
		t.Errorf("GetByName() error = %v", err)
	}
}

func Test_commandLine_activateYear(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	testutil.CreateYear(t, cli.yearSvc, "2023-2024")
	testutil.CreateYear(t, cli.yearSvc, "2024-2025")

	tests := []cliTest{
		{name: "no args", args: []string{"activateyear"}, wantErr: errHelp},
		{name: "unknown year", args: []string{"activateyear", "-name", "2030-2031"}, wantErr: year.ErrNotFound},
		{name: "activates", args: []string{"activateyear", "-name", "2023-2024"}},
		{name: "switches the active year", args: []string{"activateyear", "-name", "2024-2025"}},
	}
	runCliTests(t, cli, tests)

	active, err := cli.yearSvc.Active(ctx)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active.Name != "2024-2025" {
		t.Errorf("active year = %s, want 2024-2025", active.Name)
	}
}

func Test_commandLine_genToken(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"gentoken"}, wantErr: errHelp},
		{name: "issues a token", args: []string{"gentoken", "-name", "ops"}},
	}
	runCliTests(t, cli, tests)
}
