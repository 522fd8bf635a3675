package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <path-or-pattern>",
	Short: "Resolve a compiler path or toolset name pattern to a registered toolset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := newLoggingContext()
		e, err := initEngine(ctx, nil)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		ts, err := e.IdentifyToolset(ctx, args[0])
		if err != nil {
			return fmt.Errorf("identify %q: %w", args[0], err)
		}
		fmt.Printf("%s\t%s\n", ts.Name(), ts.CompilerPath)
		return nil
	},
}
