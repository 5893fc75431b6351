package editing

import (
	"fmt"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/transaction"
)

// replaceTextRange is the canonical text edit: delete [start:end) of a text
// property, insert text at start, and adjust every annotation anchored on the
// property. All other text mutations (plain insertion, range deletion,
// typeover) are expressed through it.
//
// Annotation anchors move according to an exhaustive case analysis over the
// anchor pair (a, b) versus the edited range [s, e). The cases are mutually
// exclusive and cover every legal anchor pair; falling through them means the
// annotation state was already corrupt and the edit fails hard.
func replaceTextRange(tx *transaction.Transaction, path model.Path, startOff, endOff int, text string) (model.Selection, error) {
	content, err := tx.Text(path)
	if err != nil {
		return nil, err
	}
	if startOff < 0 || endOff > len(content) || startOff > endOff {
		return nil, fmt.Errorf("%w: [%d:%d) in %d bytes", ErrInvalidRange, startOff, endOff, len(content))
	}

	// Capture anchors before mutating; they are interpreted against the
	// pre-edit content.
	annos := tx.Annotations(path)
	typeover := endOff > startOff

	if typeover {
		if err := tx.Update(path, operation.DeleteText(startOff, content[startOff:endOff])); err != nil {
			return nil, err
		}
	}
	if text != "" {
		if err := tx.Update(path, operation.InsertText(startOff, text)); err != nil {
			return nil, err
		}
	}

	delta := startOff - endOff + len(text)
	for _, anno := range annos {
		if err := shiftAnnotation(tx, anno, startOff, endOff, len(text), delta, typeover); err != nil {
			return nil, err
		}
	}

	return model.CursorAt(path, startOff+len(text)), nil
}

// shiftAnnotation repositions one annotation's anchors after an edit of
// [s:e) replaced by insLen bytes. Cases, in priority order:
//
//  1. ends before the range: untouched
//  2. starts at or after the range end: both anchors shift by delta
//  3. starts inside the range and ends inside it (or ends exactly at the
//     range end while inline): the annotation is deleted
//  4. starts inside the range, ends at or after its end: start moves to the
//     insertion end (pinned to the range start during typeover), end shifts
//  5. starts before the range, ends inside it: end moves to the insertion end
//  6. ends exactly at the range start: end absorbs the insertion when the
//     type auto-expands right, otherwise untouched
//  7. starts before the range, ends at or after its end: end shifts, unless
//     the type is inline (inline annotations never grow)
func shiftAnnotation(tx *transaction.Transaction, anno *model.Node, s, e, insLen, delta int, typeover bool) error {
	a := model.AnnotationStart(anno).Offset
	b := model.AnnotationEnd(anno).Offset
	spec, _ := tx.Schema().Spec(anno.Type)

	switch {
	case b < s:
		return nil

	case a >= e:
		return moveAnchors(tx, anno, a+delta, b+delta)

	case a >= s && a < e && (b < e || (b == e && spec.InlineNode)):
		return deleteAnnotation(tx, anno)

	case a >= s && a < e && b >= e:
		newStart := s + insLen
		if typeover && a == s {
			newStart = s
		}
		return moveAnchors(tx, anno, newStart, b+delta)

	case a < s && b > s && b < e:
		return moveAnchors(tx, anno, a, s+insLen)

	case b == s:
		if spec.AutoExpandRight {
			return moveAnchors(tx, anno, a, s+insLen)
		}
		return nil

	case a < s && b >= e:
		if spec.InlineNode {
			return nil
		}
		return moveAnchors(tx, anno, a, b+delta)

	default:
		return fmt.Errorf("%w: annotation %s anchors [%d:%d) outside edit case analysis for [%d:%d)",
			ErrInternalInconsistency, anno.ID, a, b, s, e)
	}
}

// moveAnchors rewrites an annotation's anchors, skipping no-op writes.
func moveAnchors(tx *transaction.Transaction, anno *model.Node, newStart, newEnd int) error {
	start := model.AnnotationStart(anno)
	end := model.AnnotationEnd(anno)
	if newStart != start.Offset {
		if err := tx.Set(model.PropertyPath(anno.ID, model.PropStart), start.WithOffset(newStart)); err != nil {
			return err
		}
	}
	if newEnd != end.Offset {
		if err := tx.Set(model.PropertyPath(anno.ID, model.PropEnd), end.WithOffset(newEnd)); err != nil {
			return err
		}
	}
	return nil
}

// deleteAnnotation removes an annotation node. Annotations have no children,
// so a plain delete suffices.
func deleteAnnotation(tx *transaction.Transaction, anno *model.Node) error {
	return tx.Delete(anno.ID)
}

// splitAnnotations distributes annotations across a text split at splitOff:
// annotations starting at or after the split move to the new property
// (rebased to its origin), annotations spanning the split are truncated at
// it, and annotations entirely before it stay.
func splitAnnotations(tx *transaction.Transaction, fromPath model.Path, splitOff int, toPath model.Path) error {
	for _, anno := range tx.Annotations(fromPath) {
		a := model.AnnotationStart(anno).Offset
		b := model.AnnotationEnd(anno).Offset
		switch {
		case a >= splitOff:
			if err := rebaseAnnotation(tx, anno, toPath, a-splitOff, b-splitOff); err != nil {
				return err
			}
		case b > splitOff:
			if err := moveAnchors(tx, anno, a, splitOff); err != nil {
				return err
			}
		}
	}
	return nil
}

// carryAnnotations moves every annotation from one property to another,
// shifting offsets by delta. Used when merging text nodes and when swapping
// a text node's type.
func carryAnnotations(tx *transaction.Transaction, fromPath, toPath model.Path, delta int) error {
	for _, anno := range tx.Annotations(fromPath) {
		a := model.AnnotationStart(anno).Offset
		b := model.AnnotationEnd(anno).Offset
		if err := rebaseAnnotation(tx, anno, toPath, a+delta, b+delta); err != nil {
			return err
		}
	}
	return nil
}

// rebaseAnnotation anchors an annotation on a different property path.
func rebaseAnnotation(tx *transaction.Transaction, anno *model.Node, path model.Path, start, end int) error {
	if err := tx.Set(model.PropertyPath(anno.ID, model.PropStart), model.NewCoordinate(path.Clone(), start)); err != nil {
		return err
	}
	return tx.Set(model.PropertyPath(anno.ID, model.PropEnd), model.NewCoordinate(path.Clone(), end))
}
