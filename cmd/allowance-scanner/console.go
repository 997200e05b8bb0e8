package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/walletcore/allowance-scanner/allowance"
)

var consoleCommand = &cli.Command{
	Name:  "console",
	Usage: "interactive REPL for firing discover/reset against a running store",
	Action: runConsole,
}

func runConsole(c *cli.Context) error {
	a, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer a.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("allowance-scanner console. Commands: discover, reset, quit")
	for {
		cmd, err := line.Prompt("allowance-scanner> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		line.AppendHistory(cmd)

		switch cmd {
		case "discover":
			consoleDiscover(a)
		case "reset":
			a.scanner.Reset()
			fmt.Println("scanner reset")
		case "quit", "exit":
			return nil
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func consoleDiscover(a *app) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resultCh := make(chan []allowance.Allowance, 1)
	a.scanner.Discover(ctx, func(found []allowance.Allowance) { resultCh <- found })

	select {
	case found := <-resultCh:
		printAllowances(found)
	case <-ctx.Done():
		fmt.Println("discover timed out")
	}
}
