package editing

import (
	"errors"
	"testing"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/transaction"
)

// toggleList toggles the node carrying the cursor in or out of a bullet list.
func (f *fixture) toggleList(id model.NodeID) {
	f.t.Helper()
	f.cursor(id, 0)
	f.edit(func(tx *transaction.Transaction) error {
		_, err := f.ed.ToggleList(tx, "bullet-list")
		return err
	})
}

func (f *fixture) level(id model.NodeID) int {
	f.t.Helper()
	return f.doc().Get(id).Int(model.PropLevel)
}

func TestToggleList(t *testing.T) {
	t.Run("wrap creates a list around the node", func(t *testing.T) {
		f := newFixture(t, "a", "b")
		f.toggleList(f.paras[0])

		ids := f.children()
		if len(ids) != 2 {
			t.Fatalf("child count = %d, want 2", len(ids))
		}
		list := f.doc().Get(ids[0])
		if list.Type != "bullet-list" {
			t.Fatalf("first child type = %q, want bullet-list", list.Type)
		}
		items := list.Children("items")
		if len(items) != 1 || items[0] != f.paras[0] {
			t.Errorf("items = %v, want [%s]", items, f.paras[0])
		}
		if got := f.level(f.paras[0]); got != 1 {
			t.Errorf("level = %d, want 1", got)
		}
	})

	t.Run("toggling the next node joins the preceding list", func(t *testing.T) {
		f := newFixture(t, "a", "b")
		f.toggleList(f.paras[0])
		f.toggleList(f.paras[1])

		ids := f.children()
		if len(ids) != 1 {
			t.Fatalf("child count = %d, want 1", len(ids))
		}
		items := f.doc().Get(ids[0]).Children("items")
		if len(items) != 2 || items[0] != f.paras[0] || items[1] != f.paras[1] {
			t.Errorf("items = %v, want both paragraphs in order", items)
		}
	})

	t.Run("toggling an item extracts it", func(t *testing.T) {
		f := newFixture(t, "a")
		f.toggleList(f.paras[0])
		f.toggleList(f.paras[0])

		ids := f.children()
		if len(ids) != 1 || ids[0] != f.paras[0] {
			t.Fatalf("children = %v, want the bare paragraph", ids)
		}
		if got := f.level(f.paras[0]); got != 0 {
			t.Errorf("level = %d, want cleared", got)
		}
	})

	t.Run("extracting a middle item splits the list", func(t *testing.T) {
		f := newFixture(t, "a", "b", "c")
		f.toggleList(f.paras[0])
		f.toggleList(f.paras[1])
		f.toggleList(f.paras[2])
		f.toggleList(f.paras[1])

		ids := f.children()
		if len(ids) != 3 {
			t.Fatalf("child count = %d, want list, paragraph, list", len(ids))
		}
		first := f.doc().Get(ids[0])
		second := f.doc().Get(ids[2])
		if first.Type != "bullet-list" || second.Type != "bullet-list" {
			t.Fatal("outer children should be the two list halves")
		}
		if got := first.Children("items"); len(got) != 1 || got[0] != f.paras[0] {
			t.Errorf("first half = %v, want [a]", got)
		}
		if ids[1] != f.paras[1] {
			t.Errorf("middle = %s, want the extracted item", ids[1])
		}
		if got := second.Children("items"); len(got) != 1 || got[0] != f.paras[2] {
			t.Errorf("second half = %v, want [c]", got)
		}
	})
}

func TestIndentDedent(t *testing.T) {
	f := newFixture(t, "a", "plain")
	f.toggleList(f.paras[0])
	item := f.paras[0]
	f.cursor(item, 0)

	indent := func() error {
		_, err := f.ses.Transact(func(tx *transaction.Transaction) error {
			return f.ed.Indent(tx)
		})
		return err
	}
	dedent := func() error {
		_, err := f.ses.Transact(func(tx *transaction.Transaction) error {
			return f.ed.Dedent(tx)
		})
		return err
	}

	for want := 2; want <= 3; want++ {
		if err := indent(); err != nil {
			t.Fatal(err)
		}
		if got := f.level(item); got != want {
			t.Errorf("level after indent = %d, want %d", got, want)
		}
	}
	// Clamped at the maximum.
	if err := indent(); err != nil {
		t.Fatal(err)
	}
	if got := f.level(item); got != 3 {
		t.Errorf("level = %d, want clamp at 3", got)
	}

	for want := 2; want >= 1; want-- {
		if err := dedent(); err != nil {
			t.Fatal(err)
		}
		if got := f.level(item); got != want {
			t.Errorf("level after dedent = %d, want %d", got, want)
		}
	}
	if err := dedent(); err != nil {
		t.Fatal(err)
	}
	if got := f.level(item); got != 1 {
		t.Errorf("level = %d, want clamp at 1", got)
	}

	t.Run("outside a list", func(t *testing.T) {
		f.cursor(f.paras[1], 0)
		err := f.editErr(func(tx *transaction.Transaction) error {
			return f.ed.Indent(tx)
		})
		if !errors.Is(err, ErrNotListItem) {
			t.Errorf("err = %v, want ErrNotListItem", err)
		}
	})
}

func TestListBreak(t *testing.T) {
	t.Run("breaking an empty last item exits the list", func(t *testing.T) {
		f := newFixture(t, "a", "")
		f.toggleList(f.paras[0])
		f.toggleList(f.paras[1])

		f.cursor(f.paras[1], 0)
		f.edit(func(tx *transaction.Transaction) error {
			_, err := f.ed.Break(tx)
			return err
		})

		ids := f.children()
		if len(ids) != 2 {
			t.Fatalf("child count = %d, want list and paragraph", len(ids))
		}
		list := f.doc().Get(ids[0])
		if got := list.Children("items"); len(got) != 1 || got[0] != f.paras[0] {
			t.Errorf("items = %v, want only [a]", got)
		}
		exit := f.doc().Get(ids[1])
		if exit.Type != "paragraph" || exit.Text() != "" {
			t.Errorf("exit node = %s %q, want empty paragraph", exit.Type, exit.Text())
		}
		if f.doc().Has(f.paras[1]) {
			t.Error("empty item should be deleted")
		}
		f.wantCursor(exit.ID, 0)
	})

	t.Run("breaking inside an item carries the level", func(t *testing.T) {
		f := newFixture(t, "ab")
		f.toggleList(f.paras[0])
		f.cursor(f.paras[0], 0)
		f.edit(func(tx *transaction.Transaction) error { return f.ed.Indent(tx) })

		f.cursor(f.paras[0], 1)
		f.edit(func(tx *transaction.Transaction) error {
			_, err := f.ed.Break(tx)
			return err
		})

		list := f.doc().Get(f.children()[0])
		items := list.Children("items")
		if len(items) != 2 {
			t.Fatalf("item count = %d, want 2", len(items))
		}
		if f.text(items[0]) != "a" || f.text(items[1]) != "b" {
			t.Errorf("items = %q/%q, want a/b", f.text(items[0]), f.text(items[1]))
		}
		if got := f.level(items[1]); got != 2 {
			t.Errorf("new item level = %d, want carried 2", got)
		}
		f.wantCursor(items[1], 0)
	})
}

func TestListMerge(t *testing.T) {
	t.Run("backspace joins adjacent items", func(t *testing.T) {
		f := newFixture(t, "a", "b")
		f.toggleList(f.paras[0])
		f.toggleList(f.paras[1])

		f.cursor(f.paras[1], 0)
		f.edit(func(tx *transaction.Transaction) error {
			_, err := f.ed.Delete(tx, DirLeft)
			return err
		})

		list := f.doc().Get(f.children()[0])
		items := list.Children("items")
		if len(items) != 1 || f.text(items[0]) != "ab" {
			t.Fatalf("items = %v, want single item ab", items)
		}
		f.wantCursor(items[0], 1)
	})

	t.Run("backspace at the first item flows into the preceding text", func(t *testing.T) {
		f := newFixture(t, "intro", "a")
		f.toggleList(f.paras[1])

		f.cursor(f.paras[1], 0)
		f.edit(func(tx *transaction.Transaction) error {
			_, err := f.ed.Delete(tx, DirLeft)
			return err
		})

		f.wantTexts("introa")
		f.wantCursor(f.paras[0], 5)
		// The emptied list is gone entirely.
		for _, id := range f.children() {
			if f.doc().Get(id).Type == "bullet-list" {
				t.Error("emptied list should be deleted")
			}
		}
	})
}
