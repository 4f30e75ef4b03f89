package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/year"
)

func (cli *commandLine) createYear(name string) error {
	ctx := context.Background()

	yr, err := cli.yearSvc.Create(ctx, year.NewYear{Name: name})
	if err != nil {
		return err
	}
	fmt.Printf("academic year %q created (id=%s)\n", yr.Name, yr.ID)
	return nil
}

func (cli *commandLine) activateYear(name string) error {
	ctx := context.Background()

	yr, err := cli.yearSvc.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if yr, err = cli.yearSvc.Activate(ctx, yr.ID); err != nil {
		return err
	}
	fmt.Printf("academic year %q is now active\n", yr.Name)
	return nil
}
