package main

import (
	"fmt"
	"os"

	"github.com/babarot/tana/internal/cli"
	"github.com/fatih/color"
)

// These variables are set in build step
var (
	Version   = "unset"
	Revision  = "unset"
	BuildDate = "unset"
)

func main() {
	v := cli.Version{
		AppName:   "tana",
		Version:   Version,
		Revision:  Revision,
		BuildDate: BuildDate,
	}
	if err := cli.Run(v); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: ")+err.Error())
		os.Exit(1)
	}
}
