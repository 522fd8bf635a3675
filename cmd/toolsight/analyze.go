package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fearthecowboy/toolsight"
	"github.com/fearthecowboy/toolsight/analysis"
)

var (
	analyzeLanguage string
	analyzeStandard string
	analyzeBaseDir  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <toolset> -- <argv...>",
	Short: "Run a compiler invocation through a toolset's analysis rules",
	Long: `analyze identifies <toolset> (a compiler path or name pattern, as
accepted by "toolsight identify") and runs the compiler arguments given
after "--" through its analysis rules, printing the resulting
IntelliSense configuration as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dash := cmd.ArgsLenAtDash()
		if dash < 0 {
			dash = 1
		}
		if dash == 0 {
			return fmt.Errorf("missing <toolset> before \"--\"")
		}
		candidate := args[0]
		compilerArgs := args[dash:]

		ctx := newLoggingContext()
		e, err := initEngine(ctx, nil)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}

		ts, err := e.IdentifyToolset(ctx, candidate)
		if err != nil {
			return fmt.Errorf("identify %q: %w", candidate, err)
		}

		cfg, err := toolsight.GetIntellisenseConfiguration(ctx, ts, compilerArgs, analysis.Options{
			BaseDirectory: analyzeBaseDir,
			Language:      analyzeLanguage,
			Standard:      analyzeStandard,
		})
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal configuration: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLanguage, "language", "cpp", "source language (c, cpp)")
	analyzeCmd.Flags().StringVar(&analyzeStandard, "standard", "", "language standard (e.g. c++17)")
	analyzeCmd.Flags().StringVar(&analyzeBaseDir, "base-dir", "", "directory compiler queries run in")
}
