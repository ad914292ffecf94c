package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// decodeStrict parses on-disk config bytes into cfg. YAML input is converted
// to JSON first so one strict decoder (DisallowUnknownFields) covers both
// formats, and a typo'd key fails the load instead of being silently ignored.
func decodeStrict(path string, data []byte, cfg *Config) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("yaml unmarshal: %w", err)
		}
		b, err := json.Marshal(stringifyKeys(raw))
		if err != nil {
			return fmt.Errorf("yaml to json: %w", err)
		}
		data = b
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	// Reject trailing tokens (e.g. concatenated documents).
	switch err := dec.Decode(&struct{}{}); err {
	case io.EOF:
		return nil
	case nil:
		return errors.New("invalid config: trailing data")
	default:
		return err
	}
}

// stringifyKeys rewrites YAML maps with non-string keys so the intermediate
// value survives json.Marshal.
func stringifyKeys(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = stringifyKeys(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = stringifyKeys(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = stringifyKeys(x[i])
		}
		return x
	default:
		return in
	}
}
