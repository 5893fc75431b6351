package editing

import (
	"fmt"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/transaction"
)

// deleteNodeDeep removes a node together with its subtree and the
// annotations anchored on its text. Detaching the node from its container is
// the caller's responsibility.
func deleteNodeDeep(tx *transaction.Transaction, reg *Registry, node *model.Node) error {
	if prop := tx.Schema().ContentProperty(node.Type); prop != "" {
		for _, id := range node.Children(prop) {
			child := tx.Get(id)
			if child == nil {
				continue
			}
			if err := deleteNodeDeep(tx, reg, child); err != nil {
				return err
			}
		}
	}
	for _, anno := range tx.Annotations(textPath(node)) {
		if err := tx.Delete(anno.ID); err != nil {
			return err
		}
	}
	return tx.Delete(node.ID)
}

// nodeStartSelection returns a cursor at a node's visual start: offset 0 for
// text nodes, a before-boundary node selection otherwise.
func nodeStartSelection(tx *transaction.Transaction, node *model.Node, containerID model.NodeID) model.Selection {
	if _, ok := node.Props[model.PropContent].(string); ok {
		return model.CursorAt(textPath(node), 0).WithContainer(containerID)
	}
	return model.NodeSelection{NodeID: node.ID, ContainerID: containerID, Mode: model.NodeModeBefore}
}

// nodeEndSelection returns a cursor at a node's visual end.
func nodeEndSelection(tx *transaction.Transaction, node *model.Node, containerID model.NodeID) model.Selection {
	if _, ok := node.Props[model.PropContent].(string); ok {
		return model.CursorAt(textPath(node), node.TextLen()).WithContainer(containerID)
	}
	return model.NodeSelection{NodeID: node.ID, ContainerID: containerID, Mode: model.NodeModeAfter}
}

// collapsedAt builds the selection for a collapsed position described by a
// coordinate: a property cursor for property coordinates, a node boundary
// selection for child-index coordinates.
func collapsedAt(tx *transaction.Transaction, coord model.Coordinate, containerID model.NodeID) model.Selection {
	if coord.IsProperty() {
		return model.Cursor(coord).WithContainer(containerID)
	}
	container := tx.Get(coord.NodeID())
	if container == nil {
		return model.Cursor(coord)
	}
	prop := tx.Schema().ContentProperty(container.Type)
	ids := container.Children(prop)
	if len(ids) == 0 {
		return model.NodeSelection{NodeID: container.ID, ContainerID: containerID, Mode: model.NodeModeFull}
	}
	if coord.Offset >= len(ids) {
		return nodeEndSelection(tx, tx.Get(ids[len(ids)-1]), container.ID)
	}
	return nodeStartSelection(tx, tx.Get(ids[coord.Offset]), container.ID)
}

// directChild resolves the direct child of a container that a (possibly
// nested) node belongs to, by climbing the parent chain.
func directChild(tx *transaction.Transaction, container *model.Node, from model.NodeID) (*model.Node, int, error) {
	prop := tx.Schema().ContentProperty(container.Type)
	if prop == "" {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotContainer, container.Type)
	}
	for id := from; !id.IsZero(); id = tx.Parent(id) {
		if tx.Parent(id) == container.ID {
			pos := container.ChildPosition(prop, id)
			if pos < 0 {
				return nil, 0, fmt.Errorf("%w: %s tracked under %s but not listed", ErrInternalInconsistency, id, container.ID)
			}
			return tx.Get(id), pos, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %s is not inside %s", ErrNoContainer, from, container.ID)
}

// containsType reports whether a negotiation offer contains a type.
func containsType(offered []string, typ string) bool {
	for _, t := range offered {
		if t == typ {
			return true
		}
	}
	return false
}
