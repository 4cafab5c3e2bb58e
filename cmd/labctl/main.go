package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/labctl/internal/cli"
	"github.com/danmuck/labctl/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	table, err := commands()
	if err != nil {
		fmt.Fprintf(os.Stderr, "labctl: %v\n", err)
		os.Exit(2)
	}
	if err := table.Execute(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "labctl: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
