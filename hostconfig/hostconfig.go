// Package hostconfig backs the "config:" resolver prefix with an
// optional TOML settings file overlaid by environment variables: parse
// with a dedicated library, merge the decoded map into viper, let
// viper's env binding take precedence.
package hostconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const settingsFileName = "settings.toml"
const envPrefix = "TOOLSIGHT"

// Settings resolves host configuration keys (dotted paths, e.g.
// "proxy.url") from <storagePath>/settings.toml overlaid by
// TOOLSIGHT_-prefixed environment variables.
type Settings struct {
	v *viper.Viper
}

// Load reads storagePath/settings.toml, if present, and returns a
// Settings ready to resolve keys. A missing file is not an error: the
// "config:" prefix returns empty by default when no host settings
// exist at all.
func Load(storagePath string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(storagePath, settingsFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var decoded map[string]any
		if err := toml.Unmarshal(data, &decoded); err != nil {
			return nil, fmt.Errorf("hostconfig: parse %s: %w", path, err)
		}
		if err := v.MergeConfigMap(decoded); err != nil {
			return nil, fmt.Errorf("hostconfig: merge %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No host settings file; environment variables are still honored.
	default:
		return nil, fmt.Errorf("hostconfig: read %s: %w", path, err)
	}
	return &Settings{v: v}, nil
}

// Lookup resolves key against the loaded settings. A nil Settings
// (the zero value returned by a failed Load, for callers that choose
// to proceed without host settings) always reports unset.
func (s *Settings) Lookup(key string) (any, bool) {
	if s == nil || s.v == nil || !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}
