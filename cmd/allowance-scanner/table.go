package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/walletcore/allowance-scanner/allowance"
)

// printAllowances renders a discover result as a table. An empty result
// prints a "no allowances found" line, colored when stdout is a terminal.
func printAllowances(allowances []allowance.Allowance) {
	out := colorable.NewColorableStdout()
	if len(allowances) == 0 {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			color.New(color.FgYellow).Fprintln(out, "no allowances found")
		} else {
			out.Write([]byte("no allowances found\n"))
		}
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Chain", "Contract", "Approver", "Spender", "Amount"})
	for _, a := range allowances {
		table.Append([]string{
			string(a.ChainID),
			string(a.ContractAddress),
			string(a.ApproverAddress),
			string(a.SpenderAddress),
			a.Amount.String(),
		})
	}
	table.Render()
}
