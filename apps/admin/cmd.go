package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/year"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sql.DB
	conf    *core.Config
	yearSvc *year.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]    - run a goose migration command (up, down, status, ...)")
	fmt.Println("  createyear -name NAME     - create an academic year, e.g. -name 2024-2025")
	fmt.Println("  activateyear -name NAME   - make an academic year the active one")
	fmt.Println("  gentoken -name NAME       - issue an API token for the named operator")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createYearCmd := flag.NewFlagSet("createyear", flag.ExitOnError)
	createYearName := createYearCmd.String("name", "", "The academic year name, formatted as YYYY-YYYY.")

	activateYearCmd := flag.NewFlagSet("activateyear", flag.ExitOnError)
	activateYearName := activateYearCmd.String("name", "", "The name of the academic year to activate.")

	genTokenCmd := flag.NewFlagSet("gentoken", flag.ExitOnError)
	genTokenName := genTokenCmd.String("name", "", "The operator name the token is issued to.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createyear":
		if err := createYearCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createYearName == "" {
			createYearCmd.Usage()
			return errHelp
		}
		return cli.createYear(*createYearName)
	case "activateyear":
		if err := activateYearCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *activateYearName == "" {
			activateYearCmd.Usage()
			return errHelp
		}
		return cli.activateYear(*activateYearName)
	case "gentoken":
		if err := genTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genTokenName == "" {
			genTokenCmd.Usage()
			return errHelp
		}
		return cli.genToken(*genTokenName)
	default:
		cli.printUsage()
		return errHelp
	}
}
