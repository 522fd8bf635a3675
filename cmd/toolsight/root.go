package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fearthecowboy/toolsight"
	"github.com/fearthecowboy/toolsight/xlog"
)

var (
	storageDir string
	configDirs []string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "toolsight",
	Short: "Discover C/C++ toolchains and derive IntelliSense configurations",
	Long: `toolsight discovers C/C++ compilers described by toolset definition
files, identifies a specific compiler by path or name, and runs a
compiler invocation through a toolset's analysis rules to produce an
IntelliSense configuration.`,
	SilenceUsage: true,
}

func init() {
	defaultStorage, err := os.UserCacheDir()
	if err != nil {
		defaultStorage = "."
	}
	defaultStorage += string(os.PathSeparator) + "toolsight"

	rootCmd.PersistentFlags().StringVar(&storageDir, "storage-dir", defaultStorage, "directory for the persisted toolset registry and host settings")
	rootCmd.PersistentFlags().StringSliceVarP(&configDirs, "config-dir", "c", nil, "directory to load toolset.*.json definitions from (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(discoverCmd, identifyCmd, analyzeCmd)
}

// newLoggingContext attaches a charmbracelet/log logger to ctx, the way
// every subcommand's facade calls expect to find one via xlog.FromContext.
func newLoggingContext() context.Context {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, ReportTimestamp: false})
	return xlog.NewContext(context.Background(), logger)
}

// initEngine builds and initializes an Engine over roots, the config
// folders a subcommand should search for toolset.*.json definitions.
// discover's own roots argument takes precedence over --config-dir so
// `toolsight discover <roots...>` matches the usage spf13/cobra advertises
// without also requiring --config-dir.
func initEngine(ctx context.Context, roots []string) (*toolsight.Engine, error) {
	if len(roots) == 0 {
		roots = configDirs
	}
	e := toolsight.New()
	if _, err := e.Initialize(ctx, roots, toolsight.InitOptions{StoragePath: storageDir}); err != nil {
		return nil, err
	}
	return e, nil
}
