package clone

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config selects the relations a clone follows. Each key names a relation
// of the current type and maps to the configuration of the relation's
// target type. A relation without a key is not cloned; an empty nested
// Config clones the relation's direct records and none of their relations.
//
//	clone.Config{
//	    "children": {},
//	    "items":    {"subitems": {}},
//	}
type Config map[string]Config

// ParseConfig converts a nested mapping literal into a Config. It accepts
// Config, map[string]Config, map[string]any and map[any]any values at any
// depth. Nil and values that are not mappings yield an empty Config.
func ParseConfig(v any) Config {
	c := Config{}
	switch v := v.(type) {
	case Config:
		for k, nested := range v {
			c[k] = ParseConfig(nested)
		}
	case map[string]Config:
		for k, nested := range v {
			c[k] = ParseConfig(nested)
		}
	case map[string]any:
		for k, nested := range v {
			c[k] = ParseConfig(nested)
		}
	case map[any]any:
		for k, nested := range v {
			c[cast.ToString(k)] = ParseConfig(nested)
		}
	}
	return c
}

// Has reports if the configuration includes the named relation, and
// returns its nested configuration.
func (c Config) Has(name string) (Config, bool) {
	nested, ok := c[name]
	if ok && nested == nil {
		nested = Config{}
	}
	return nested, ok
}

// Keys returns the relation names of the configuration in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String returns the configuration in its compact mapping form,
// e.g. {children: {}, items: {subitems: {}}}.
func (c Config) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range c.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(c[k].String())
	}
	b.WriteString("}")
	return b.String()
}

// Configuration file formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// LoadConfig decodes a configuration document in the given format.
// A document whose top level is not a mapping yields an empty Config.
func LoadConfig(data []byte, format string) (Config, error) {
	var v any
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("clone: decoding yaml config: %w", err)
		}
	case FormatJSON:
		if len(strings.TrimSpace(string(data))) == 0 {
			return Config{}, nil
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("clone: decoding json config: %w", err)
		}
	default:
		return nil, fmt.Errorf("clone: unsupported config format %q", format)
	}
	return ParseConfig(v), nil
}

// ReadConfigFile reads a configuration file. The format is taken from the
// file extension: .json is JSON, anything else is YAML.
func ReadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("clone: reading config: %w", err)
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return LoadConfig(data, format)
}
