package analysis

import (
	"context"
	"os"
	"strings"

	"github.com/fearthecowboy/toolsight/action"
	"github.com/fearthecowboy/toolsight/cmdutil"
	"github.com/fearthecowboy/toolsight/xlog"
)

// runTask executes the named argv/environment transformations of the
// `task` action, in place on args.
func runTask(ctx context.Context, entry action.Entry, args []string) []string {
	for _, name := range action.BlockStrings(entry.Block) {
		switch name {
		case "inline-environment-variables":
			args = inlineEnvironmentVariables(ctx, args)
		case "inline-response-file":
			args = inlineResponseFiles(ctx, args)
		case "remove-linker-arguments":
			args = removeLinkerArguments(args)
		case "consume-lib-path", "zwCommandLineSwitch", "experimentalModuleNegative", "verifyIncludes":
			// reserved no-ops.
		default:
			xlog.Debugf(ctx, "analysis: unknown task %q ignored", name)
		}
	}
	return args
}

// inlineEnvironmentVariables appends CL's tokens and prepends _CL_'s,
// mirroring the MSVC driver's own handling of those two variables.
func inlineEnvironmentVariables(ctx context.Context, args []string) []string {
	if cl := os.Getenv("CL"); cl != "" {
		tokens, err := cmdutil.Split(cl)
		if err != nil {
			xlog.Warnf(ctx, "analysis: tokenize CL: %v", err)
		} else {
			args = append(args, tokens...)
		}
	}
	if prefixCl := os.Getenv("_CL_"); prefixCl != "" {
		tokens, err := cmdutil.Split(prefixCl)
		if err != nil {
			xlog.Warnf(ctx, "analysis: tokenize _CL_: %v", err)
		} else {
			args = append(append([]string(nil), tokens...), args...)
		}
	}
	return args
}

// inlineResponseFiles replaces any `@<path>` argument with the
// argv-tokenized contents of <path>.
func inlineResponseFiles(ctx context.Context, args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		path, ok := strings.CutPrefix(arg, "@")
		if !ok {
			out = append(out, arg)
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			xlog.Warnf(ctx, "analysis: read response file %q: %v", path, err)
			out = append(out, arg)
			continue
		}
		tokens, err := cmdutil.Split(string(content))
		if err != nil {
			xlog.Warnf(ctx, "analysis: tokenize response file %q: %v", path, err)
			out = append(out, arg)
			continue
		}
		out = append(out, tokens...)
	}
	return out
}

// removeLinkerArguments truncates args at the first case-insensitive
// `-link` or `/link`.
func removeLinkerArguments(args []string) []string {
	for i, arg := range args {
		lower := strings.ToLower(arg)
		if lower == "-link" || lower == "/link" {
			return args[:i]
		}
	}
	return args
}
