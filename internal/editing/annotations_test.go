package editing

import (
	"testing"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/transaction"
)

// TestAnnotationShift drives the anchor case analysis through editor-level
// text edits. "link" does not auto-expand, "strong" expands right, "mention"
// is inline.
func TestAnnotationShift(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		typ        string
		anno       [2]int
		editStart  int
		editEnd    int
		insert     string
		want       [2]int
		wantGone   bool
	}{
		{
			name: "edit after the annotation leaves it alone",
			text: "hello world", typ: "link", anno: [2]int{0, 5},
			editStart: 6, editEnd: 6, insert: "big ",
			want: [2]int{0, 5},
		},
		{
			name: "insert before shifts both anchors",
			text: "hello world", typ: "link", anno: [2]int{6, 11},
			editStart: 0, editEnd: 0, insert: ">> ",
			want: [2]int{9, 14},
		},
		{
			name: "insert inside grows the end",
			text: "hello", typ: "link", anno: [2]int{0, 5},
			editStart: 2, editEnd: 2, insert: "xx",
			want: [2]int{0, 7},
		},
		{
			name: "typing at the end without auto-expand",
			text: "hello", typ: "link", anno: [2]int{0, 5},
			editStart: 5, editEnd: 5, insert: "!",
			want: [2]int{0, 5},
		},
		{
			name: "typing at the end with auto-expand",
			text: "hello", typ: "strong", anno: [2]int{0, 5},
			editStart: 5, editEnd: 5, insert: "!",
			want: [2]int{0, 6},
		},
		{
			name: "typing after an inline node never expands it",
			text: "he" + inlineAnchor + "llo", typ: "mention", anno: [2]int{2, 2 + len(inlineAnchor)},
			editStart: 2 + len(inlineAnchor), editEnd: 2 + len(inlineAnchor), insert: "x",
			want: [2]int{2, 2 + len(inlineAnchor)},
		},
		{
			name: "deleting a covered annotation removes it",
			text: "hello", typ: "link", anno: [2]int{2, 3},
			editStart: 1, editEnd: 4, insert: "",
			wantGone: true,
		},
		{
			name: "typeover pinning the start",
			text: "hello", typ: "link", anno: [2]int{0, 5},
			editStart: 0, editEnd: 2, insert: "J",
			want: [2]int{0, 4},
		},
		{
			name: "deletion overlapping the tail trims the end",
			text: "hello world", typ: "link", anno: [2]int{0, 7},
			editStart: 4, editEnd: 11, insert: "",
			want: [2]int{0, 4},
		},
		{
			name: "deletion overlapping the head moves the start",
			text: "hello world", typ: "link", anno: [2]int{4, 11},
			editStart: 0, editEnd: 6, insert: "",
			want: [2]int{0, 5},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.text)
			p := f.paras[0]
			id := f.annotate(tc.typ, p, tc.anno[0], tc.anno[1])

			f.selectRange(p, tc.editStart, tc.editEnd)
			f.edit(func(tx *transaction.Transaction) error {
				_, err := f.ed.InsertText(tx, tc.insert)
				return err
			})

			if tc.wantGone {
				if f.doc().Has(id) {
					t.Error("annotation should be deleted")
				}
				return
			}
			if s, e := f.annoRange(id); s != tc.want[0] || e != tc.want[1] {
				t.Errorf("anchors = [%d:%d], want [%d:%d]", s, e, tc.want[0], tc.want[1])
			}
		})
	}
}

func TestSplitDistributesAnnotations(t *testing.T) {
	f := newFixture(t, "hello world")
	p := f.paras[0]
	before := f.annotate("link", p, 0, 4)   // entirely before the split
	after := f.annotate("link", p, 6, 11)   // entirely after
	spanning := f.annotate("link", p, 3, 8) // crosses the split point

	f.cursor(p, 5)
	f.edit(func(tx *transaction.Transaction) error {
		_, err := f.ed.Break(tx)
		return err
	})
	tail := f.children()[1]
	tailPath := model.PropertyPath(tail, model.PropContent)

	if s, e := f.annoRange(before); s != 0 || e != 4 {
		t.Errorf("before = [%d:%d], want untouched [0:4]", s, e)
	}
	if !model.IsAnnotationOn(f.doc().Get(after), tailPath) {
		t.Error("trailing annotation should move to the new node")
	}
	if s, e := f.annoRange(after); s != 1 || e != 6 {
		t.Errorf("after = [%d:%d], want rebased [1:6]", s, e)
	}
	// A spanning annotation is truncated at the split rather than carried.
	if s, e := f.annoRange(spanning); s != 3 || e != 5 {
		t.Errorf("spanning = [%d:%d], want truncated [3:5]", s, e)
	}
}

func TestMergeCarriesAnnotations(t *testing.T) {
	f := newFixture(t, "foo", "bar")
	anno := f.annotate("link", f.paras[1], 0, 3)

	f.cursor(f.paras[1], 0)
	f.edit(func(tx *transaction.Transaction) error {
		_, err := f.ed.Delete(tx, DirLeft)
		return err
	})

	f.wantTexts("foobar")
	target := model.PropertyPath(f.paras[0], model.PropContent)
	if !model.IsAnnotationOn(f.doc().Get(anno), target) {
		t.Fatal("annotation should follow the merged text")
	}
	if s, e := f.annoRange(anno); s != 3 || e != 6 {
		t.Errorf("anchors = [%d:%d], want rebased [3:6]", s, e)
	}
}

// Splitting and merging back restores the text. A spanning annotation is
// truncated at the split and its tail half is not re-created, so only the
// truncated head survives the round trip.
func TestSplitThenMergeRestoresText(t *testing.T) {
	f := newFixture(t, "hello")
	p := f.paras[0]
	anno := f.annotate("link", p, 1, 5)

	f.cursor(p, 3)
	f.edit(func(tx *transaction.Transaction) error {
		_, err := f.ed.Break(tx)
		return err
	})
	tail := f.children()[1]
	f.cursor(tail, 0)
	f.edit(func(tx *transaction.Transaction) error {
		_, err := f.ed.Delete(tx, DirLeft)
		return err
	})

	f.wantTexts("hello")
	annos := f.doc().Annotations(model.PropertyPath(p, model.PropContent))
	if len(annos) != 1 || annos[0].ID != anno {
		t.Fatalf("annotations = %v, want only the truncated head", annos)
	}
	if s, e := f.annoRange(anno); s != 1 || e != 3 {
		t.Errorf("anchors = [%d:%d], want [1:3]", s, e)
	}
}
