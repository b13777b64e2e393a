package lang

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed en.yml
var defaultFile []byte

// Catalog holds the user-facing strings of one language. It is read-only
// once Load returns and safe for concurrent use.
type Catalog struct {
	lang     string
	messages map[string]string
}

// Default returns the embedded English catalog.
func Default() *Catalog {
	c, err := parse(defaultFile)
	if err != nil {
		panic(fmt.Sprintf("lang: embedded catalog: %v", err))
	}
	return c
}

// Load returns the embedded catalog with the keys of path layered on top.
// An empty path yields the embedded catalog unchanged.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	override, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range override.messages {
		base.messages[k] = v
	}
	base.lang = override.lang
	return base, nil
}

func parse(data []byte) (*Catalog, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	active := "en"
	if v, ok := raw["active_language"].(string); ok && v != "" {
		active = v
	}

	block, ok := raw[active]
	if !ok {
		return nil, fmt.Errorf("language %q not found", active)
	}
	blockMap, ok := block.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("language block %q is not a map", active)
	}

	m := make(map[string]string, len(blockMap))
	for k, v := range blockMap {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}
	return &Catalog{lang: active, messages: m}, nil
}

// Language is the active language code.
func (c *Catalog) Language() string {
	return c.lang
}

// T looks up key and substitutes {name} placeholders from name/value pairs.
// Unknown keys render as "{key}".
func (c *Catalog) T(key string, pairs ...string) string {
	s, ok := c.messages[key]
	if !ok {
		return "{" + key + "}"
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}
