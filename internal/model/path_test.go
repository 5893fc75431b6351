package model

import "testing"

func TestPath(t *testing.T) {
	t.Run("node path", func(t *testing.T) {
		p := NodePath("n1")
		if !p.IsNode() {
			t.Error("expected node path")
		}
		if p.IsProperty() {
			t.Error("node path should not be a property path")
		}
		if got := p.NodeID(); got != "n1" {
			t.Errorf("NodeID() = %q, want n1", got)
		}
		if got := p.Property(); got != "" {
			t.Errorf("Property() = %q, want empty", got)
		}
	})

	t.Run("property path", func(t *testing.T) {
		p := PropertyPath("n1", "content")
		if p.IsNode() {
			t.Error("property path should not be a node path")
		}
		if !p.IsProperty() {
			t.Error("expected property path")
		}
		if got := p.NodeID(); got != "n1" {
			t.Errorf("NodeID() = %q, want n1", got)
		}
		if got := p.Property(); got != "content" {
			t.Errorf("Property() = %q, want content", got)
		}
		if got := p.String(); got != "n1.content" {
			t.Errorf("String() = %q, want n1.content", got)
		}
	})

	t.Run("zero path", func(t *testing.T) {
		var p Path
		if !p.IsZero() {
			t.Error("nil path should be zero")
		}
		if got := p.NodeID(); got != "" {
			t.Errorf("NodeID() = %q, want empty", got)
		}
	})

	t.Run("equal", func(t *testing.T) {
		cases := []struct {
			name string
			a, b Path
			want bool
		}{
			{"same property path", PropertyPath("n1", "content"), PropertyPath("n1", "content"), true},
			{"different node", PropertyPath("n1", "content"), PropertyPath("n2", "content"), false},
			{"different property", PropertyPath("n1", "content"), PropertyPath("n1", "items"), false},
			{"node vs property", NodePath("n1"), PropertyPath("n1", "content"), false},
			{"both empty", nil, Path{}, true},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := tc.a.Equal(tc.b); got != tc.want {
					t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
				}
			})
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		p := PropertyPath("n1", "content")
		c := p.Clone()
		c[0] = "n2"
		if p.NodeID() != "n1" {
			t.Error("mutating clone affected original")
		}
	})
}

func TestCoordinate(t *testing.T) {
	t.Run("node coordinate addresses a child index", func(t *testing.T) {
		c := NodeCoordinate("n1", 2)
		if !c.IsNode() {
			t.Error("expected node coordinate")
		}
		if c.Offset != 2 {
			t.Errorf("Offset = %d, want 2", c.Offset)
		}
	})

	t.Run("property coordinate addresses text", func(t *testing.T) {
		c := PropertyCoordinate("n1", "content", 5)
		if !c.IsProperty() {
			t.Error("expected property coordinate")
		}
		if c.NodeID() != "n1" {
			t.Errorf("NodeID() = %q, want n1", c.NodeID())
		}
	})

	t.Run("shift and with offset", func(t *testing.T) {
		c := PropertyCoordinate("n1", "content", 5)
		if got := c.Shift(3).Offset; got != 8 {
			t.Errorf("Shift(3).Offset = %d, want 8", got)
		}
		if got := c.Shift(-5).Offset; got != 0 {
			t.Errorf("Shift(-5).Offset = %d, want 0", got)
		}
		if got := c.WithOffset(9).Offset; got != 9 {
			t.Errorf("WithOffset(9).Offset = %d, want 9", got)
		}
		if c.Offset != 5 {
			t.Error("Shift mutated the receiver")
		}
	})

	t.Run("equal", func(t *testing.T) {
		a := PropertyCoordinate("n1", "content", 5)
		b := PropertyCoordinate("n1", "content", 5)
		if !a.Equal(b) {
			t.Error("identical coordinates should be equal")
		}
		if a.Equal(b.WithOffset(6)) {
			t.Error("different offsets should not be equal")
		}
		if a.Equal(PropertyCoordinate("n2", "content", 5)) {
			t.Error("different nodes should not be equal")
		}
	})
}
