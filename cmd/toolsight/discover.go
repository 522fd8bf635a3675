package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <roots...>",
	Short: "Search the given definition roots and print every toolset found",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newLoggingContext()
		e, err := initEngine(ctx, args)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		toolsets, err := e.GetToolsets(ctx)
		if err != nil {
			return fmt.Errorf("discover: %w", err)
		}
		if len(toolsets) == 0 {
			fmt.Println("no toolsets found")
			return nil
		}
		for path, ts := range toolsets {
			fmt.Printf("%s\t%s\n", ts.Name(), path)
		}
		return nil
	},
}
