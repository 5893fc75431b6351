package schema

import (
	"strings"
	"testing"
)

const noteYAML = `
name: note
id: note@1
root: body
default_text_type: paragraph
nodes:
  - type: body
    capability: container
  - type: paragraph
    capability: text
  - type: header
    capability: text
    defaults:
      level: 1
  - type: bullet-list
    capability: list
  - type: strong
    capability: annotation
    auto_expand_right: true
  - type: mention
    capability: annotation
    inline: true
`

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader(noteYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Name() != "note" || s.ID() != "note@1" {
		t.Errorf("identity = %s/%s, want note/note@1", s.Name(), s.ID())
	}
	if s.RootType() != "body" {
		t.Errorf("root = %q, want body", s.RootType())
	}
	if s.DefaultTextType() != "paragraph" {
		t.Errorf("default text type = %q, want paragraph", s.DefaultTextType())
	}

	spec, ok := s.Spec("strong")
	if !ok {
		t.Fatal("strong not registered")
	}
	if !spec.AutoExpandRight {
		t.Error("strong should auto-expand right")
	}

	spec, ok = s.Spec("mention")
	if !ok {
		t.Fatal("mention not registered")
	}
	if !spec.InlineNode {
		t.Error("mention should be inline")
	}

	spec, _ = s.Spec("header")
	if got := spec.Defaults["level"]; got != 1 {
		t.Errorf("header default level = %v, want 1", got)
	}

	if got := s.ContentProperty("bullet-list"); got != "items" {
		t.Errorf("list content property = %q, want items", got)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"bad yaml", "nodes: ["},
		{"bad capability", "name: x\nid: x@1\nroot: b\ndefault_text_type: p\nnodes:\n  - type: b\n    capability: wat\n"},
		{"missing root spec", "name: x\nid: x@1\nroot: b\ndefault_text_type: p\nnodes:\n  - type: p\n    capability: text\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tc.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	if _, err := LoadFile("does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
