package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// List is a pattern chain as written in a custom-pattern file: either a
// single pattern string or an ordered list of pattern strings.
type List []string

// UnmarshalYAML accepts a scalar or a sequence of scalars
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = List{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = List(items)
		return nil
	default:
		return fmt.Errorf("line %d: pattern must be a string or a list of strings", node.Line)
	}
}

// UnmarshalJSON accepts a string or an array of strings
func (l *List) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = List{s}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("pattern must be a string or a list of strings: %w", err)
	}
	*l = List(items)
	return nil
}

// File is the on-disk custom-pattern document, keyed by field identifier
type File map[string]List

// LoadFile reads a custom-pattern file. Files ending in .json are decoded as
// JSON, everything else as YAML.
func LoadFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var doc File
	if isJSON(path) {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse pattern file %s: %w", path, err)
	}

	out := make(map[string][]string, len(doc))
	for id, list := range doc {
		out[id] = append([]string(nil), list...)
	}
	return out, nil
}

// SaveFile writes a custom-pattern file, always using the list form so that
// chain order is explicit
func SaveFile(path string, set map[string][]string) error {
	doc := make(map[string][]string, len(set))
	for id, list := range set {
		doc[id] = append([]string{}, list...)
	}

	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("failed to encode pattern file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory for pattern file: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// FromSettings converts a custom-pattern map coming out of the settings
// provider (field -> string or list) into pattern lists
func FromSettings(raw any) (map[string][]string, error) {
	if raw == nil {
		return map[string][]string{}, nil
	}

	var m map[string]any
	switch v := raw.(type) {
	case map[string]any:
		m = v
	case map[string][]string:
		out := make(map[string][]string, len(v))
		for id, list := range v {
			out[id] = append([]string(nil), list...)
		}
		return out, nil
	case map[string]string:
		out := make(map[string][]string, len(v))
		for id, p := range v {
			out[id] = []string{p}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("custom patterns must be a mapping, got %T", raw)
	}

	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string][]string, len(m))
	for _, id := range ids {
		switch v := m[id].(type) {
		case string:
			out[id] = []string{v}
		case []string:
			out[id] = append([]string(nil), v...)
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("field %q: pattern must be a string, got %T", id, item)
				}
				list = append(list, s)
			}
			out[id] = list
		default:
			return nil, fmt.Errorf("field %q: patterns must be a string or a list, got %T", id, v)
		}
	}
	return out, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
