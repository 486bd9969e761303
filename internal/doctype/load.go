package doctype

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the rule file looked up at the garden root.
const DefaultFile = "t.doc.toml"

type ruleFields struct {
	Prefix string `toml:"prefix" yaml:"prefix"`
	Attr   string `toml:"attr" yaml:"attr"`
	Path   string `toml:"path" yaml:"path"`
}

// Load reads a rule file. The format follows the extension: .toml, .yaml or
// .yml. A missing file yields no rules, so every document is Default.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read doctype file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes rules from data in the format named by ext. Rules keep the
// order in which the file declares them.
func Parse(data []byte, ext string) ([]Rule, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		return parseTOML(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported doctype file format %q", ext)
	}
}

func parseTOML(data []byte) ([]Rule, error) {
	var raw map[string]ruleFields
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parse doctype file: %w", err)
	}
	var rules []Rule
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		f := raw[name]
		rules = append(rules, Rule{Name: name, Prefix: f.Prefix, Attr: f.Attr, Path: f.Path})
	}
	return rules, nil
}

func parseYAML(data []byte) ([]Rule, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse doctype file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("parse doctype file: top level must be a mapping")
	}
	var rules []Rule
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		var f ruleFields
		if err := root.Content[i+1].Decode(&f); err != nil {
			return nil, fmt.Errorf("parse doctype %q: %w", name, err)
		}
		rules = append(rules, Rule{Name: name, Prefix: f.Prefix, Attr: f.Attr, Path: f.Path})
	}
	return rules, nil
}
