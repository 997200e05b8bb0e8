package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/walletcore/allowance-scanner/allowance"
)

var discoverCommand = &cli.Command{
	Name:  "discover",
	Usage: "run one allowance discovery pass and print the result",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{Name: "account", Aliases: []string{"a"}, Usage: "EVM account address to scan (repeatable)"},
		&cli.StringFlag{Name: "filter", Usage: "bexpr account filter expression, overrides the config file's"},
		&cli.DurationFlag{Name: "timeout", Value: 60 * time.Second, Usage: "maximum time to wait for the run"},
	},
	Action: runDiscover,
}

func runDiscover(c *cli.Context) error {
	a, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer a.Close()

	filterExpr := c.String("filter")
	if filterExpr == "" {
		filterExpr = a.cfg.AccountFilter
	}
	accounts, err := resolveAccounts(c.StringSlice("account"), filterExpr)
	if err != nil {
		return err
	}
	a.accounts.SetAccounts(accounts)

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	resultCh := make(chan []allowance.Allowance, 1)
	a.scanner.Discover(ctx, func(found []allowance.Allowance) { resultCh <- found })

	select {
	case found := <-resultCh:
		printAllowances(found)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
