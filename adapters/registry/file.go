package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/layer-3/ethauth/core"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a registry file. Files ending in .yaml or .yml are parsed
// as YAML, anything else as JSON. Both hold a list of {id, name, redirect_uri}.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read registry: %w", core.ErrConfiguration, err)
	}

	var apps []core.AppConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &apps)
	default:
		err = json.Unmarshal(data, &apps)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse registry %s: %w", core.ErrConfiguration, path, err)
	}

	return NewStatic(apps)
}
