package core

import (
	"context"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfigLoader reads raw configuration from a YAML file. A missing file
// yields an empty map when Optional is set.
type FileConfigLoader struct {
	Path     string
	Optional bool
}

func (l FileConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		if l.Optional {
			return map[string]any{}, nil
		}
		return nil, BadInputError("core: config file path is required", nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if l.Optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, WrapBadInput(err, "core: read config file", map[string]any{"path": path})
	}
	return ParseYAMLConfig(raw)
}

// ParseYAMLConfig decodes a YAML document into a raw configuration map.
func ParseYAMLConfig(raw []byte) (map[string]any, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, WrapBadInput(err, "core: decode yaml config", nil)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

// LoadFile resolves a Config from the YAML file at path layered over
// DefaultConfig.
func LoadFile(ctx context.Context, path string) (Config, error) {
	return NewCfgxConfigProvider(FileConfigLoader{Path: path}).Load(ctx, DefaultConfig())
}
