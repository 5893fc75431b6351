package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// schemaFile is the YAML shape of a schema definition.
type schemaFile struct {
	Name            string     `yaml:"name"`
	ID              string     `yaml:"id"`
	Root            string     `yaml:"root"`
	DefaultTextType string     `yaml:"default_text_type"`
	Nodes           []specFile `yaml:"nodes"`
}

type specFile struct {
	Type            string         `yaml:"type"`
	Capability      string         `yaml:"capability"`
	Content         string         `yaml:"content"`
	Inline          bool           `yaml:"inline"`
	AutoExpandRight bool           `yaml:"auto_expand_right"`
	Defaults        map[string]any `yaml:"defaults"`
}

// Load reads a YAML schema definition.
//
// Example:
//
//	name: note
//	id: note@1
//	root: body
//	default_text_type: paragraph
//	nodes:
//	  - type: body
//	    capability: container
//	  - type: paragraph
//	    capability: text
//	  - type: strong
//	    capability: annotation
func Load(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	s := New(f.Name, f.ID)
	s.SetRootType(f.Root)
	s.SetDefaultTextType(f.DefaultTextType)

	for _, sf := range f.Nodes {
		capability, err := ParseCapability(sf.Capability)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", sf.Type, err)
		}
		spec := NodeSpec{
			Type:            sf.Type,
			Capability:      capability,
			ContentProperty: sf.Content,
			InlineNode:      sf.Inline,
			AutoExpandRight: sf.AutoExpandRight,
			Defaults:        sf.Defaults,
		}
		if err := s.Register(spec); err != nil {
			return nil, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a YAML schema definition from a file.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
