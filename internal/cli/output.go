package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// writeStructured renders v as yaml or json. It reports false for "text".
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return true, enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode json: %w", err)
		}
		return true, nil
	case "text", "":
		return false, nil
	}
	return true, fmt.Errorf("unknown output format %q (text, yaml, json)", format)
}
