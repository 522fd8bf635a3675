package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// BaseOptions configures the shared resolver contract used throughout
// the engine: env/definition/config/host/compilerPath prefixes, plus
// the reserved empty-prefix keys. Callers that own a concrete
// DefinitionFile/Toolset (the definition and toolset packages) supply
// the pieces they know about; fields left nil are simply never
// matched, so a bare-bones resolver (e.g. for evaluating `conditions`
// before a compiler is known) can leave CompilerPath/DefinitionField
// unset.
type BaseOptions struct {
	// WorkspaceFolder backs the empty-prefix "workspaceFolder"/"cwd" keys.
	WorkspaceFolder string
	// CompilerPath backs "binary"/"compilerPath" and the
	// "compilerPath.basename" prefix.
	CompilerPath string
	// Name backs the empty-prefix "name" key.
	Name string
	// DefinitionField looks up a field on the definition for the
	// "definition:" prefix. ok is false if the field isn't present.
	DefinitionField func(field string) (value any, ok bool)
	// IntellisenseField looks up a field already present in
	// definition.intellisense, for the empty-prefix fallback
	// ("any field present in definition.intellisense").
	IntellisenseField func(field string) (value any, ok bool)
	// HostConfig resolves the "config:" prefix against host settings.
	// Returns empty string, true when unset.
	HostConfig func(key string) (value any, ok bool)
}

// Base returns the shared Resolver used throughout the engine.
func Base(opts BaseOptions) Resolver {
	return ResolverFunc(func(ctx context.Context, prefix, expression string) (any, bool) {
		switch prefix {
		case "env":
			if expression == "home" {
				home, err := os.UserHomeDir()
				if err != nil {
					return "", false
				}
				return home, true
			}
			v, ok := os.LookupEnv(expression)
			return v, ok
		case "definition":
			if opts.DefinitionField == nil {
				return nil, false
			}
			return opts.DefinitionField(expression)
		case "config":
			if opts.HostConfig == nil {
				return "", true
			}
			v, ok := opts.HostConfig(expression)
			if !ok {
				return "", true
			}
			return v, true
		case "host":
			switch expression {
			case "os", "platform":
				return hostPlatform(), true
			case "arch":
				return hostArch(), true
			}
			return nil, false
		case "compilerPath":
			if expression == "basename" {
				return compilerBasename(opts.CompilerPath), true
			}
			return nil, false
		case "":
			switch expression {
			case "pathSeparator":
				return string(os.PathSeparator), true
			case "pathDelimiter":
				return string(os.PathListSeparator), true
			case "workspaceFolder", "cwd":
				return opts.WorkspaceFolder, true
			case "name":
				return opts.Name, true
			case "binary", "compilerPath":
				return opts.CompilerPath, true
			}
			if opts.IntellisenseField != nil {
				if v, ok := opts.IntellisenseField(expression); ok {
					return v, true
				}
			}
			return nil, false
		}
		return nil, false
	})
}

func hostPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	default:
		return runtime.GOOS
	}
}

func hostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	case "arm64":
		return "arm64"
	default:
		return runtime.GOARCH
	}
}

func compilerBasename(compilerPath string) string {
	base := filepath.Base(compilerPath)
	if runtime.GOOS == "windows" && strings.EqualFold(filepath.Ext(base), ".exe") {
		base = base[:len(base)-len(filepath.Ext(base))]
	}
	return base
}
