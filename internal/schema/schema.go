// Package schema describes the node types a document may contain.
//
// A Schema maps a type tag to its NodeSpec: the capability class used for
// behavior dispatch, the content property of container-like types, annotation
// flags, and default property values. The editing core only depends on the
// lookup surface (Spec, Capability, DefaultTextType, RootType); schema
// authoring happens in YAML files loaded by this package.
package schema

import (
	"errors"
	"fmt"
)

// Errors returned by schema operations.
var (
	// ErrUnknownType indicates a type tag with no registered spec.
	ErrUnknownType = errors.New("unknown node type")

	// ErrDuplicateType indicates a type tag registered twice.
	ErrDuplicateType = errors.New("node type already registered")

	// ErrInvalidSchema indicates a schema definition that fails validation.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Capability classifies a node type for behavior dispatch.
// Unknown types fall back to CapDefault.
type Capability uint8

const (
	// CapDefault is the fallback capability for leaf-like nodes.
	CapDefault Capability = iota

	// CapText marks nodes with editable text content.
	CapText

	// CapContainer marks nodes holding an ordered child sequence.
	CapContainer

	// CapList marks list nodes operating over an item sequence.
	CapList

	// CapAnnotation marks range-anchored overlay nodes.
	CapAnnotation

	// CapCustom marks types with externally supplied behavior.
	CapCustom
)

// String returns the capability tag as used in schema files.
func (c Capability) String() string {
	switch c {
	case CapDefault:
		return "default"
	case CapText:
		return "text"
	case CapContainer:
		return "container"
	case CapList:
		return "list"
	case CapAnnotation:
		return "annotation"
	case CapCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseCapability parses a capability tag. Empty input means CapDefault.
func ParseCapability(s string) (Capability, error) {
	switch s {
	case "", "default":
		return CapDefault, nil
	case "text":
		return CapText, nil
	case "container":
		return CapContainer, nil
	case "list":
		return CapList, nil
	case "annotation":
		return CapAnnotation, nil
	case "custom":
		return CapCustom, nil
	default:
		return CapDefault, fmt.Errorf("%w: capability %q", ErrInvalidSchema, s)
	}
}

// NodeSpec describes one node type.
type NodeSpec struct {
	// Type is the type tag.
	Type string

	// Capability selects the editing behavior.
	Capability Capability

	// ContentProperty names the child sequence property of container-like
	// types ("nodes" for containers, "items" for lists by convention).
	ContentProperty string

	// InlineNode marks an annotation that covers exactly one character,
	// cannot expand, and is deleted rather than shrunk when fully covered.
	InlineNode bool

	// AutoExpandRight makes an annotation's end anchor grow when text is
	// inserted exactly at its end boundary.
	AutoExpandRight bool

	// Defaults holds default property values for newly created nodes.
	Defaults map[string]any
}

// Schema is an immutable set of node specs plus document-level settings.
type Schema struct {
	name            string
	id              string
	rootType        string
	defaultTextType string
	specs           map[string]NodeSpec
}

// New creates a schema. The root type and default text type must be
// registered before the schema is used.
func New(name, id string) *Schema {
	return &Schema{
		name:  name,
		id:    id,
		specs: make(map[string]NodeSpec),
	}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// ID returns the schema version identifier.
func (s *Schema) ID() string { return s.id }

// RootType returns the document root container type.
func (s *Schema) RootType() string { return s.rootType }

// SetRootType declares the document root container type.
func (s *Schema) SetRootType(typ string) { s.rootType = typ }

// DefaultTextType returns the type used for freshly created text nodes.
func (s *Schema) DefaultTextType() string { return s.defaultTextType }

// SetDefaultTextType declares the default text type.
func (s *Schema) SetDefaultTextType(typ string) { s.defaultTextType = typ }

// Register adds a node spec.
func (s *Schema) Register(spec NodeSpec) error {
	if spec.Type == "" {
		return fmt.Errorf("%w: spec without type tag", ErrInvalidSchema)
	}
	if _, exists := s.specs[spec.Type]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, spec.Type)
	}
	if spec.ContentProperty == "" {
		switch spec.Capability {
		case CapContainer:
			spec.ContentProperty = "nodes"
		case CapList:
			spec.ContentProperty = "items"
		}
	}
	s.specs[spec.Type] = spec
	return nil
}

// MustRegister adds a node spec and panics on error. Intended for
// programmatic schema construction in tests and seed code.
func (s *Schema) MustRegister(spec NodeSpec) {
	if err := s.Register(spec); err != nil {
		panic(err)
	}
}

// Spec returns the spec for a type tag.
func (s *Schema) Spec(typ string) (NodeSpec, bool) {
	spec, ok := s.specs[typ]
	return spec, ok
}

// Capability returns the capability for a type tag, falling back to
// CapDefault for unknown types.
func (s *Schema) Capability(typ string) Capability {
	spec, ok := s.specs[typ]
	if !ok {
		return CapDefault
	}
	return spec.Capability
}

// ContentProperty returns the child sequence property for a type tag, or ""
// if the type is not container-like.
func (s *Schema) ContentProperty(typ string) string {
	spec, ok := s.specs[typ]
	if !ok {
		return ""
	}
	return spec.ContentProperty
}

// IsAnnotation reports whether a type tag has annotation capability.
func (s *Schema) IsAnnotation(typ string) bool {
	return s.Capability(typ) == CapAnnotation
}

// Types returns all registered type tags.
func (s *Schema) Types() []string {
	out := make([]string, 0, len(s.specs))
	for t := range s.specs {
		out = append(out, t)
	}
	return out
}

// Validate checks that the schema is usable by the editing core.
func (s *Schema) Validate() error {
	if s.name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSchema)
	}
	if s.rootType == "" {
		return fmt.Errorf("%w: missing root type", ErrInvalidSchema)
	}
	root, ok := s.specs[s.rootType]
	if !ok {
		return fmt.Errorf("%w: root type %q not registered", ErrInvalidSchema, s.rootType)
	}
	if root.Capability != CapContainer {
		return fmt.Errorf("%w: root type %q must have container capability", ErrInvalidSchema, s.rootType)
	}
	if s.defaultTextType == "" {
		return fmt.Errorf("%w: missing default text type", ErrInvalidSchema)
	}
	dt, ok := s.specs[s.defaultTextType]
	if !ok {
		return fmt.Errorf("%w: default text type %q not registered", ErrInvalidSchema, s.defaultTextType)
	}
	if dt.Capability != CapText {
		return fmt.Errorf("%w: default text type %q must have text capability", ErrInvalidSchema, s.defaultTextType)
	}
	return nil
}
