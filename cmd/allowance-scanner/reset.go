package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var resetCommand = &cli.Command{
	Name:   "reset",
	Usage:  "discard any in-flight run and clear pending callers",
	Action: runReset,
}

func runReset(c *cli.Context) error {
	a, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer a.Close()

	a.scanner.Reset()
	fmt.Println("scanner reset")
	return nil
}
