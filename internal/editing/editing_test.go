package editing

import (
	"testing"

	"github.com/dshills/docforge/internal/document"
	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/schema"
	"github.com/dshills/docforge/internal/transaction"
)

// testSchema is the note-style schema the scenario tests run against.
func testSchema() *schema.Schema {
	s := schema.New("note", "note@1")
	s.MustRegister(schema.NodeSpec{Type: "body", Capability: schema.CapContainer})
	s.MustRegister(schema.NodeSpec{Type: "paragraph", Capability: schema.CapText})
	s.MustRegister(schema.NodeSpec{Type: "header", Capability: schema.CapText})
	s.MustRegister(schema.NodeSpec{Type: "bullet-list", Capability: schema.CapList})
	s.MustRegister(schema.NodeSpec{Type: "strong", Capability: schema.CapAnnotation, AutoExpandRight: true})
	s.MustRegister(schema.NodeSpec{Type: "link", Capability: schema.CapAnnotation})
	s.MustRegister(schema.NodeSpec{Type: "mention", Capability: schema.CapAnnotation, InlineNode: true})
	s.MustRegister(schema.NodeSpec{Type: "image", Capability: schema.CapDefault})
	s.SetRootType("body")
	s.SetDefaultTextType("paragraph")
	return s
}

// fixture is a session over a body containing one paragraph per text.
type fixture struct {
	t     *testing.T
	ses   *transaction.Session
	ed    *Editor
	root  model.NodeID
	paras []model.NodeID
}

func newFixture(t *testing.T, texts ...string) *fixture {
	t.Helper()
	sc := testSchema()
	f := &fixture{
		t:   t,
		ses: transaction.NewSession(sc),
		ed:  New(sc),
	}
	_, err := f.ses.Transact(func(tx *transaction.Transaction) error {
		ids := make([]model.NodeID, 0, len(texts))
		for _, text := range texts {
			n, err := tx.CreateNode("paragraph", map[string]any{model.PropContent: text})
			if err != nil {
				return err
			}
			ids = append(ids, n.ID)
		}
		root, err := tx.CreateNode("body", map[string]any{"nodes": ids})
		if err != nil {
			return err
		}
		f.root = root.ID
		f.paras = ids
		return nil
	})
	if err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return f
}

func (f *fixture) doc() *document.Document { return f.ses.Document() }

func (f *fixture) edit(fn func(tx *transaction.Transaction) error) {
	f.t.Helper()
	if _, err := f.ses.Transact(fn); err != nil {
		f.t.Fatalf("transaction: %v", err)
	}
}

// editErr runs a transformation expected to fail and returns the error.
func (f *fixture) editErr(fn func(tx *transaction.Transaction) error) error {
	f.t.Helper()
	_, err := f.ses.Transact(fn)
	if err == nil {
		f.t.Fatal("expected transaction error")
	}
	return err
}

func (f *fixture) cursor(id model.NodeID, off int) {
	f.t.Helper()
	sel := model.CursorAt(model.PropertyPath(id, model.PropContent), off).WithContainer(f.root)
	if err := f.ses.SetSelection(sel); err != nil {
		f.t.Fatalf("set cursor: %v", err)
	}
}

func (f *fixture) selectRange(id model.NodeID, start, end int) {
	f.t.Helper()
	sel := model.NewPropertySelection(model.PropertyPath(id, model.PropContent), start, end).WithContainer(f.root)
	if err := f.ses.SetSelection(sel); err != nil {
		f.t.Fatalf("set range: %v", err)
	}
}

func (f *fixture) setSelection(sel model.Selection) {
	f.t.Helper()
	if err := f.ses.SetSelection(sel); err != nil {
		f.t.Fatalf("set selection: %v", err)
	}
}

func (f *fixture) children() []model.NodeID {
	f.t.Helper()
	root := f.doc().Get(f.root)
	if root == nil {
		f.t.Fatal("root vanished")
	}
	return root.Children("nodes")
}

func (f *fixture) text(id model.NodeID) string {
	f.t.Helper()
	n := f.doc().Get(id)
	if n == nil {
		f.t.Fatalf("node %s vanished", id)
	}
	return n.Text()
}

// wantTexts asserts the root's children carry exactly these texts, in order.
func (f *fixture) wantTexts(want ...string) {
	f.t.Helper()
	ids := f.children()
	if len(ids) != len(want) {
		f.t.Fatalf("child count = %d, want %d", len(ids), len(want))
	}
	for i, id := range ids {
		if got := f.text(id); got != want[i] {
			f.t.Errorf("child %d text = %q, want %q", i, got, want[i])
		}
	}
}

// wantCursor asserts the session selection is a collapsed property cursor.
func (f *fixture) wantCursor(id model.NodeID, off int) {
	f.t.Helper()
	sel, ok := f.ses.Selection().(model.PropertySelection)
	if !ok {
		f.t.Fatalf("selection = %v, want property cursor", f.ses.Selection())
	}
	if !sel.IsCollapsed() {
		f.t.Fatalf("selection not collapsed: %v", sel)
	}
	if sel.Start.NodeID() != id || sel.Start.Offset != off {
		f.t.Errorf("cursor = %s:%d, want %s:%d", sel.Start.NodeID(), sel.Start.Offset, id, off)
	}
}

// annotate lays an annotation over a range of a node's content directly.
func (f *fixture) annotate(typ string, id model.NodeID, start, end int) model.NodeID {
	f.t.Helper()
	var annoID model.NodeID
	f.edit(func(tx *transaction.Transaction) error {
		anno := model.NewAnnotation(typ, f.root, model.PropertyPath(id, model.PropContent), start, end)
		annoID = anno.ID
		return tx.Add(anno)
	})
	return annoID
}

// annoRange returns an annotation's anchor offsets.
func (f *fixture) annoRange(id model.NodeID) (int, int) {
	f.t.Helper()
	anno := f.doc().Get(id)
	if anno == nil {
		f.t.Fatalf("annotation %s vanished", id)
	}
	return model.AnnotationStart(anno).Offset, model.AnnotationEnd(anno).Offset
}
