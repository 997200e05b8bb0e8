package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli/v2"
)

var statsCommand = &cli.Command{
	Name:   "stats",
	Usage:  "print host CPU/memory info, for sizing a deployment",
	Action: runStats,
}

func runStats(c *cli.Context) error {
	hostInfo, err := host.Info()
	if err != nil {
		return fmt.Errorf("stats: reading host info: %w", err)
	}
	vmem, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("stats: reading memory info: %w", err)
	}
	counts, err := cpu.Counts(true)
	if err != nil {
		return fmt.Errorf("stats: reading cpu info: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Hostname", hostInfo.Hostname})
	table.Append([]string{"OS", fmt.Sprintf("%s/%s", hostInfo.OS, hostInfo.Platform)})
	table.Append([]string{"Uptime", fmt.Sprintf("%ds", hostInfo.Uptime)})
	table.Append([]string{"CPUs", fmt.Sprintf("%d", counts)})
	table.Append([]string{"Memory total", fmt.Sprintf("%d MiB", vmem.Total/1024/1024)})
	table.Append([]string{"Memory used", fmt.Sprintf("%.1f%%", vmem.UsedPercent)})
	table.Render()
	return nil
}
