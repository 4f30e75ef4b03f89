package main

import (
	"fmt"

	echoapi "github.com/trezcool/shule/apps/api/echo"
)

// genToken issues a signed API token; the API itself has no login endpoint.
func (cli *commandLine) genToken(name string) error {
	token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, name))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
