package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/babarot/tana/internal/journal"
	"github.com/babarot/tana/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// CleanStale lists trash directories of crashed runs and removes them
func (c CLI) CleanStale() error {
	stale, err := journal.FindStale("")
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Println("no stale trash found")
		return nil
	}

	printStale(stale)

	if !c.option.Meta.Yes {
		prompt := fmt.Sprintf("Remove %d stale trash director%s?", len(stale), plural(len(stale), "y", "ies"))
		if !ui.Confirm(prompt) {
			fmt.Println("canceled")
			return nil
		}
	}

	var failed int
	for _, s := range stale {
		if err := journal.Clean(s); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("failed:"), err)
			continue
		}
		fmt.Printf("%s %s\n", color.GreenString("removed:"), s.Dir)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stale trash directories could not be removed", failed, len(stale))
	}
	return nil
}

func printStale(stale []journal.Stale) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Directory", "Run", "PID", "Started", "Items", "Size"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, s := range stale {
		pid := "-"
		if s.PID > 0 {
			pid = strconv.Itoa(s.PID)
		}
		table.Append([]string{
			s.Dir,
			s.RunID,
			pid,
			humanize.Time(s.Started),
			strconv.Itoa(s.Items),
			humanize.Bytes(uint64(s.Size)),
		})
	}
	table.Render()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
