package transaction

import (
	"errors"
	"testing"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := schema.New("note", "note@1")
	s.MustRegister(schema.NodeSpec{Type: "body", Capability: schema.CapContainer})
	s.MustRegister(schema.NodeSpec{
		Type:       "paragraph",
		Capability: schema.CapText,
		Defaults:   map[string]any{model.PropContent: ""},
	})
	s.SetRootType("body")
	s.SetDefaultTextType("paragraph")
	return s
}

// seeded returns a session whose document holds a root with one paragraph.
func seeded(t *testing.T) (*Session, model.NodeID, model.NodeID) {
	t.Helper()
	s := NewSession(testSchema(t))
	var rootID, paraID model.NodeID
	_, err := s.Transact(func(tx *Transaction) error {
		para, err := tx.CreateNode("paragraph", map[string]any{model.PropContent: "hello"})
		if err != nil {
			return err
		}
		root, err := tx.CreateNode("body", map[string]any{"nodes": []model.NodeID{para.ID}})
		if err != nil {
			return err
		}
		rootID, paraID = root.ID, para.ID
		return tx.SetSelection(model.CursorAt(model.PropertyPath(para.ID, model.PropContent), 0))
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return s, rootID, paraID
}

func TestCreateNodeAppliesDefaults(t *testing.T) {
	s := NewSession(testSchema(t))
	_, err := s.Transact(func(tx *Transaction) error {
		n, err := tx.CreateNode("paragraph", nil)
		if err != nil {
			return err
		}
		if _, ok := n.Get(model.PropContent); !ok {
			t.Error("schema default not applied")
		}

		n, err = tx.CreateNode("paragraph", map[string]any{model.PropContent: "explicit"})
		if err != nil {
			return err
		}
		if n.Text() != "explicit" {
			t.Errorf("explicit prop overridden: %q", n.Text())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestTransactCommit(t *testing.T) {
	s, _, paraID := seeded(t)
	path := model.PropertyPath(paraID, model.PropContent)

	change, err := s.Transact(func(tx *Transaction) error {
		if err := tx.Update(path, operation.InsertText(5, " world")); err != nil {
			return err
		}
		return tx.SetSelection(model.CursorAt(path, 11))
	})
	if err != nil {
		t.Fatal(err)
	}

	if change.IsEmpty() {
		t.Error("change should carry operations")
	}
	if change.ID == "" {
		t.Error("change should have an id")
	}
	if got, _ := s.Document().Text(path); got != "hello world" {
		t.Errorf("authoritative text = %q, want hello world", got)
	}
	if got := s.Version(); got != 2 {
		t.Errorf("version = %d, want 2", got)
	}
	sel, ok := s.Selection().(model.PropertySelection)
	if !ok || sel.Start.Offset != 11 {
		t.Errorf("selection = %v, want cursor at 11", s.Selection())
	}
}

func TestTransactRollback(t *testing.T) {
	s, rootID, paraID := seeded(t)
	path := model.PropertyPath(paraID, model.PropContent)
	before := s.Document().ContentHash()
	boom := errors.New("boom")

	t.Run("error rolls back every operation", func(t *testing.T) {
		_, err := s.Transact(func(tx *Transaction) error {
			if err := tx.Update(path, operation.InsertText(0, "junk ")); err != nil {
				return err
			}
			n, err := tx.CreateNode("paragraph", nil)
			if err != nil {
				return err
			}
			if err := tx.Update(model.PropertyPath(rootID, "nodes"), operation.InsertAt(1, n.ID)); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		if got := s.Document().ContentHash(); got != before {
			t.Error("document changed despite rollback")
		}
		if got := s.Version(); got != 1 {
			t.Errorf("version advanced to %d on failed transaction", got)
		}
	})

	t.Run("panic converts to error and rolls back", func(t *testing.T) {
		_, err := s.Transact(func(tx *Transaction) error {
			if err := tx.Update(path, operation.InsertText(0, "junk ")); err != nil {
				return err
			}
			panic("unexpected")
		})
		if !errors.Is(err, ErrTransformPanic) {
			t.Fatalf("err = %v, want ErrTransformPanic", err)
		}
		if got := s.Document().ContentHash(); got != before {
			t.Error("document changed despite panic rollback")
		}
	})

	t.Run("next transaction still works", func(t *testing.T) {
		_, err := s.Transact(func(tx *Transaction) error {
			return tx.Update(path, operation.InsertText(5, "!"))
		})
		if err != nil {
			t.Fatal(err)
		}
		if got, _ := s.Document().Text(path); got != "hello!" {
			t.Errorf("text = %q, want hello!", got)
		}
	})
}

func TestTransactEmpty(t *testing.T) {
	s, _, paraID := seeded(t)
	path := model.PropertyPath(paraID, model.PropContent)

	change, err := s.Transact(func(tx *Transaction) error {
		return tx.SetSelection(model.CursorAt(path, 3))
	})
	if err != nil {
		t.Fatal(err)
	}
	if !change.IsEmpty() {
		t.Error("selection-only transaction should produce an empty change")
	}
	if got := s.Version(); got != 1 {
		t.Errorf("version = %d, empty transaction must not advance it", got)
	}
	sel := s.Selection().(model.PropertySelection)
	if sel.Start.Offset != 3 {
		t.Errorf("selection offset = %d, want 3", sel.Start.Offset)
	}
}

func TestNestedTransaction(t *testing.T) {
	s, _, _ := seeded(t)
	_, err := s.Transact(func(tx *Transaction) error {
		_, inner := s.Transact(func(*Transaction) error { return nil })
		if !errors.Is(inner, ErrNestedTransaction) {
			t.Errorf("inner err = %v, want ErrNestedTransaction", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStaleSelectionRejected(t *testing.T) {
	s, _, paraID := seeded(t)
	err := s.SetSelection(model.CursorAt(model.PropertyPath("ghost", model.PropContent), 0))
	if !errors.Is(err, ErrStaleSelection) {
		t.Errorf("err = %v, want ErrStaleSelection", err)
	}
	// A valid selection still goes through.
	if err := s.SetSelection(model.CursorAt(model.PropertyPath(paraID, model.PropContent), 1)); err != nil {
		t.Errorf("valid selection rejected: %v", err)
	}
}

func TestApplyRemoteAndSync(t *testing.T) {
	s, _, paraID := seeded(t)
	path := model.PropertyPath(paraID, model.PropContent)

	remote := NewChange(operation.List{
		operation.Update(path, operation.InsertText(0, ">> ")),
	}, State{}, State{})
	if err := s.ApplyRemote(remote); err != nil {
		t.Fatal(err)
	}
	if got := s.Version(); got != 2 {
		t.Errorf("version = %d, want 2 after remote change", got)
	}
	if got, _ := s.Document().Text(path); got != ">> hello" {
		t.Errorf("authoritative text = %q, want >> hello", got)
	}

	// The staging copy catches up before the next transaction, so an edit
	// against the synced text commits cleanly.
	_, err := s.Transact(func(tx *Transaction) error {
		got, err := tx.Text(path)
		if err != nil {
			return err
		}
		if got != ">> hello" {
			t.Errorf("stage text = %q, want >> hello", got)
		}
		return tx.Update(path, operation.InsertText(len(got), "!"))
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Document().Text(path); got != ">> hello!" {
		t.Errorf("text = %q, want >> hello!", got)
	}
}

func TestRevert(t *testing.T) {
	s, _, paraID := seeded(t)
	path := model.PropertyPath(paraID, model.PropContent)
	before := s.Document().ContentHash()

	change, err := s.Transact(func(tx *Transaction) error {
		if err := tx.Update(path, operation.InsertText(5, " world")); err != nil {
			return err
		}
		return tx.SetSelection(model.CursorAt(path, 11))
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Revert(change); err != nil {
		t.Fatal(err)
	}
	if got := s.Document().ContentHash(); got != before {
		t.Error("revert did not restore the document")
	}
	if got := s.Version(); got != 1 {
		t.Errorf("version = %d, want 1 after revert", got)
	}
	sel, ok := s.Selection().(model.PropertySelection)
	if !ok || sel.Start.Offset != 0 {
		t.Errorf("selection = %v, want the pre-transaction cursor", s.Selection())
	}

	// The session keeps working after a revert.
	if _, err := s.Transact(func(tx *Transaction) error {
		return tx.Update(path, operation.InsertText(5, "!"))
	}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Document().Text(path); got != "hello!" {
		t.Errorf("text = %q, want hello!", got)
	}
}

func TestFromChanges(t *testing.T) {
	sc := testSchema(t)
	para := model.NewNode("paragraph", map[string]any{model.PropContent: "hello"})
	root := model.NewNode("body", map[string]any{"nodes": []model.NodeID{para.ID}})
	path := model.PropertyPath(para.ID, model.PropContent)

	history := []Change{
		NewChange(operation.List{operation.Create(root), operation.Create(para)}, State{}, State{}),
		NewChange(operation.List{operation.Update(path, operation.InsertText(5, " world"))}, State{}, State{}),
	}

	s, err := FromChanges(sc, history)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Version(); got != 2 {
		t.Errorf("version = %d, want 2", got)
	}
	if got, _ := s.Document().Text(path); got != "hello world" {
		t.Errorf("replayed text = %q, want hello world", got)
	}
	if got := s.Document().Parent(para.ID); got != root.ID {
		t.Errorf("replay lost parent links: %s", got)
	}

	t.Run("corrupt history fails", func(t *testing.T) {
		bad := append([]Change{}, history...)
		bad = append(bad, NewChange(operation.List{operation.Create(para)}, State{}, State{}))
		if _, err := FromChanges(sc, bad); err == nil {
			t.Error("expected replay error for duplicate create")
		}
	})
}

func TestChangeInvert(t *testing.T) {
	n := model.NewNode("paragraph", map[string]any{model.PropContent: ""})
	path := model.PropertyPath(n.ID, model.PropContent)
	before := State{Selection: model.CursorAt(path, 0)}
	after := State{Selection: model.CursorAt(path, 2)}
	c := NewChange(operation.List{
		operation.Create(n),
		operation.Update(path, operation.InsertText(0, "ab")),
	}, before, after)

	inv := c.Invert()
	if inv.ID == c.ID {
		t.Error("inverse must get its own id")
	}
	if len(inv.Ops) != 2 {
		t.Fatalf("len = %d, want 2", len(inv.Ops))
	}
	if inv.Ops[0].Kind != operation.OpUpdate || inv.Ops[1].Kind != operation.OpDelete {
		t.Error("inverse operations not reversed")
	}
	if inv.Before.Selection.(model.PropertySelection).Start.Offset != 2 {
		t.Error("inverse should start from the after state")
	}
}
