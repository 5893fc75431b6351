package model

import "testing"

func TestPropertySelection(t *testing.T) {
	path := PropertyPath("t1", PropContent)

	t.Run("cursor is collapsed", func(t *testing.T) {
		c := CursorAt(path, 4)
		if c.Kind() != SelectionProperty {
			t.Errorf("Kind = %s, want property", c.Kind())
		}
		if !c.IsCollapsed() {
			t.Error("cursor should be collapsed")
		}
		if !c.Path().Equal(path) {
			t.Errorf("Path = %s, want %s", c.Path(), path)
		}
	})

	t.Run("range is not collapsed", func(t *testing.T) {
		s := NewPropertySelection(path, 2, 6)
		if s.IsCollapsed() {
			t.Error("range should not be collapsed")
		}
		if s.Start.Offset != 2 || s.End.Offset != 6 {
			t.Errorf("offsets = [%d:%d], want [2:6]", s.Start.Offset, s.End.Offset)
		}
	})

	t.Run("with container", func(t *testing.T) {
		s := CursorAt(path, 0).WithContainer("root")
		if s.ContainerID != "root" {
			t.Errorf("ContainerID = %q, want root", s.ContainerID)
		}
	})
}

func TestContainerSelection(t *testing.T) {
	s := NewContainerSelection("root",
		PropertyCoordinate("t1", PropContent, 1),
		PropertyCoordinate("t3", PropContent, 2),
	)
	if s.Kind() != SelectionContainer {
		t.Errorf("Kind = %s, want container", s.Kind())
	}
	if s.IsCollapsed() {
		t.Error("distinct endpoints should not be collapsed")
	}

	same := PropertyCoordinate("t1", PropContent, 1)
	collapsed := NewContainerSelection("root", same, same.Clone())
	if !collapsed.IsCollapsed() {
		t.Error("identical endpoints should be collapsed")
	}
}

func TestNodeSelection(t *testing.T) {
	s := NewNodeSelection("img1", "root")
	if s.Kind() != SelectionNode {
		t.Errorf("Kind = %s, want node", s.Kind())
	}
	if s.Mode != NodeModeFull {
		t.Errorf("Mode = %s, want full", s.Mode)
	}
	if s.IsCollapsed() {
		t.Error("full node selection should not be collapsed")
	}

	s.Mode = NodeModeAfter
	if !s.IsCollapsed() {
		t.Error("boundary mode should be collapsed")
	}
}

func TestSelectionKindString(t *testing.T) {
	cases := []struct {
		kind SelectionKind
		want string
	}{
		{SelectionNone, "none"},
		{SelectionProperty, "property"},
		{SelectionContainer, "container"},
		{SelectionNode, "node"},
		{SelectionCustom, "custom"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}
