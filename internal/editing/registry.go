package editing

import (
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/schema"
)

// Registry resolves a node type to its editing behavior through the schema's
// capability tag. A registry is built per editor instance; there is no global
// state, and callers may override or extend the capability table before use.
type Registry struct {
	schema *schema.Schema
	byCap  map[schema.Capability]Behavior
}

// NewRegistry builds a registry with the built-in behaviors for the default,
// text, container, and list capabilities.
func NewRegistry(s *schema.Schema) *Registry {
	r := &Registry{
		schema: s,
		byCap:  make(map[schema.Capability]Behavior),
	}
	base := &NodeBehavior{reg: r}
	container := &ContainerBehavior{NodeBehavior: base}
	r.byCap[schema.CapDefault] = base
	r.byCap[schema.CapText] = &TextBehavior{NodeBehavior: base}
	r.byCap[schema.CapContainer] = container
	r.byCap[schema.CapList] = &ListBehavior{ContainerBehavior: container}
	return r
}

// Schema returns the schema the registry dispatches on.
func (r *Registry) Schema() *schema.Schema { return r.schema }

// Register installs a behavior for a capability, replacing any existing one.
// Used for CapCustom and for overriding built-ins.
func (r *Registry) Register(cap schema.Capability, b Behavior) {
	r.byCap[cap] = b
}

// For returns the behavior for a node, falling back to the default behavior
// when the capability has no registration.
func (r *Registry) For(node *model.Node) Behavior {
	return r.ForType(node.Type)
}

// ForType returns the behavior for a type tag.
func (r *Registry) ForType(typ string) Behavior {
	if b, ok := r.byCap[r.schema.Capability(typ)]; ok {
		return b
	}
	return r.byCap[schema.CapDefault]
}

// Container returns the container operations for a node, or false when the
// node's behavior has no child sequence support.
func (r *Registry) Container(node *model.Node) (ContainerOps, bool) {
	if node == nil {
		return nil, false
	}
	ops, ok := r.ForType(node.Type).(ContainerOps)
	return ops, ok
}
