package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scorchdb/scorch/internal/sco"
)

// LoadRefMap reads extra reference property mappings from a YAML file.
// Keys are either a bare property name or "type:property"; values are the
// candidate target types, a single string or a list:
//
//	x-custom-object:device_ref: hardware
//	peer_refs: [ipv4-addr, ipv6-addr]
//
// Returns nil for an empty path.
func LoadRefMap(path string) (sco.RefMap, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ref map %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ref map %s: %w", path, err)
	}

	refMap := make(sco.RefMap, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			refMap[key] = []string{v}
		case []any:
			targets := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("ref map %s: %q has a non-string target", path, key)
				}
				targets = append(targets, s)
			}
			refMap[key] = targets
		default:
			return nil, fmt.Errorf("ref map %s: %q must map to a type name or list", path, key)
		}
	}
	return refMap, nil
}
