package changestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/transaction"
)

// Change serialization. Property values carry a type tag so coordinates and
// id sequences survive the round trip; plain JSON would flatten both into
// generic arrays and objects.

// EncodeChange serializes a change to JSON.
func EncodeChange(c transaction.Change) ([]byte, error) {
	out := `{}`
	out, _ = sjson.Set(out, "id", c.ID)
	out, _ = sjson.Set(out, "created_at", c.CreatedAt.UTC().Format(time.RFC3339Nano))

	raw, err := encodeSelection(c.Before.Selection)
	if err != nil {
		return nil, err
	}
	out, _ = sjson.SetRaw(out, "before", raw)
	raw, err = encodeSelection(c.After.Selection)
	if err != nil {
		return nil, err
	}
	out, _ = sjson.SetRaw(out, "after", raw)

	out, _ = sjson.SetRaw(out, "ops", "[]")
	for _, op := range c.Ops {
		raw, err := encodeOp(op)
		if err != nil {
			return nil, err
		}
		out, _ = sjson.SetRaw(out, "ops.-1", raw)
	}
	return []byte(out), nil
}

// DecodeChange deserializes a change from JSON.
func DecodeChange(data []byte) (transaction.Change, error) {
	if !gjson.ValidBytes(data) {
		return transaction.Change{}, fmt.Errorf("invalid change JSON")
	}
	root := gjson.ParseBytes(data)

	c := transaction.Change{ID: root.Get("id").String()}
	if ts := root.Get("created_at").String(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return transaction.Change{}, fmt.Errorf("parse created_at: %w", err)
		}
		c.CreatedAt = t
	}

	sel, err := decodeSelection(root.Get("before"))
	if err != nil {
		return transaction.Change{}, err
	}
	c.Before = transaction.State{Selection: sel}
	sel, err = decodeSelection(root.Get("after"))
	if err != nil {
		return transaction.Change{}, err
	}
	c.After = transaction.State{Selection: sel}

	var opErr error
	root.Get("ops").ForEach(func(_, r gjson.Result) bool {
		op, err := decodeOp(r)
		if err != nil {
			opErr = err
			return false
		}
		c.Ops = append(c.Ops, op)
		return true
	})
	if opErr != nil {
		return transaction.Change{}, opErr
	}
	return c, nil
}

// ============================================================================
// Operations
// ============================================================================

func encodeOp(op operation.Operation) (string, error) {
	out := `{}`
	out, _ = sjson.Set(out, "kind", op.Kind.String())
	out, _ = sjson.Set(out, "path", []string(op.Path))

	switch op.Kind {
	case operation.OpCreate, operation.OpDelete:
		raw, err := encodeNode(op.Node)
		if err != nil {
			return "", err
		}
		out, _ = sjson.SetRaw(out, "node", raw)
	case operation.OpUpdate:
		out, _ = sjson.SetRaw(out, "diff", encodeDiff(op.Diff))
	case operation.OpSet:
		raw, err := encodeValue(op.Value)
		if err != nil {
			return "", err
		}
		out, _ = sjson.SetRaw(out, "value", raw)
		raw, err = encodeValue(op.Old)
		if err != nil {
			return "", err
		}
		out, _ = sjson.SetRaw(out, "old", raw)
	}
	return out, nil
}

func decodeOp(r gjson.Result) (operation.Operation, error) {
	op := operation.Operation{Path: decodePath(r.Get("path"))}

	switch kind := r.Get("kind").String(); kind {
	case "create", "delete":
		op.Kind = operation.OpCreate
		if kind == "delete" {
			op.Kind = operation.OpDelete
		}
		node, err := decodeNode(r.Get("node"))
		if err != nil {
			return operation.Operation{}, err
		}
		op.Node = node
	case "update":
		op.Kind = operation.OpUpdate
		diff, err := decodeDiff(r.Get("diff"))
		if err != nil {
			return operation.Operation{}, err
		}
		op.Diff = diff
	case "set":
		op.Kind = operation.OpSet
		v, err := decodeValue(r.Get("value"))
		if err != nil {
			return operation.Operation{}, err
		}
		op.Value = v
		v, err = decodeValue(r.Get("old"))
		if err != nil {
			return operation.Operation{}, err
		}
		op.Old = v
	default:
		return operation.Operation{}, fmt.Errorf("unknown operation kind %q", kind)
	}
	return op, nil
}

func encodeNode(n *model.Node) (string, error) {
	if n == nil {
		return "null", nil
	}
	out := `{}`
	out, _ = sjson.Set(out, "id", string(n.ID))
	out, _ = sjson.Set(out, "type", n.Type)
	out, _ = sjson.SetRaw(out, "props", "{}")
	for k, v := range n.Props {
		raw, err := encodeValue(v)
		if err != nil {
			return "", fmt.Errorf("node %s prop %s: %w", n.ID, k, err)
		}
		out, _ = sjson.SetRaw(out, "props."+escapeKey(k), raw)
	}
	return out, nil
}

func decodeNode(r gjson.Result) (*model.Node, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	n := &model.Node{
		ID:    model.NodeID(r.Get("id").String()),
		Type:  r.Get("type").String(),
		Props: make(map[string]any),
	}
	var err error
	r.Get("props").ForEach(func(k, v gjson.Result) bool {
		var val any
		val, err = decodeValue(v)
		if err != nil {
			return false
		}
		n.Props[k.String()] = val
		return true
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func encodeDiff(d operation.Diff) string {
	out := `{}`
	out, _ = sjson.Set(out, "kind", d.Kind.String())
	out, _ = sjson.Set(out, "offset", d.Offset)
	switch d.Kind {
	case operation.TextInsert, operation.TextDelete:
		out, _ = sjson.Set(out, "text", d.Text)
	case operation.ListInsert, operation.ListDelete:
		out, _ = sjson.Set(out, "node", string(d.ID))
	}
	return out
}

func decodeDiff(r gjson.Result) (operation.Diff, error) {
	d := operation.Diff{
		Offset: int(r.Get("offset").Int()),
		Text:   r.Get("text").String(),
		ID:     model.NodeID(r.Get("node").String()),
	}
	switch kind := r.Get("kind").String(); kind {
	case "text+":
		d.Kind = operation.TextInsert
	case "text-":
		d.Kind = operation.TextDelete
	case "list+":
		d.Kind = operation.ListInsert
	case "list-":
		d.Kind = operation.ListDelete
	default:
		return operation.Diff{}, fmt.Errorf("unknown diff kind %q", kind)
	}
	return d, nil
}

// ============================================================================
// Selections
// ============================================================================

func encodeSelection(sel model.Selection) (string, error) {
	switch s := sel.(type) {
	case nil:
		return "null", nil
	case model.PropertySelection:
		out, _ := sjson.Set(`{"kind":"property"}`, "container", string(s.ContainerID))
		out, _ = sjson.SetRaw(out, "start", encodeCoord(s.Start))
		out, _ = sjson.SetRaw(out, "end", encodeCoord(s.End))
		out, _ = sjson.Set(out, "reverse", s.Reverse)
		return out, nil
	case model.ContainerSelection:
		out, _ := sjson.Set(`{"kind":"container"}`, "container", string(s.ContainerID))
		out, _ = sjson.SetRaw(out, "start", encodeCoord(s.Start))
		out, _ = sjson.SetRaw(out, "end", encodeCoord(s.End))
		out, _ = sjson.Set(out, "reverse", s.Reverse)
		return out, nil
	case model.NodeSelection:
		out, _ := sjson.Set(`{"kind":"node"}`, "node", string(s.NodeID))
		out, _ = sjson.Set(out, "container", string(s.ContainerID))
		out, _ = sjson.Set(out, "mode", s.Mode.String())
		return out, nil
	case model.CustomSelection:
		out, _ := sjson.Set(`{"kind":"custom"}`, "custom_kind", s.CustomKind)
		out, _ = sjson.Set(out, "node", string(s.NodeID))
		out, _ = sjson.SetRaw(out, "data", "{}")
		for k, v := range s.Data {
			raw, err := encodeValue(v)
			if err != nil {
				return "", err
			}
			out, _ = sjson.SetRaw(out, "data."+escapeKey(k), raw)
		}
		return out, nil
	default:
		return "", fmt.Errorf("unknown selection kind %s", sel.Kind())
	}
}

func decodeSelection(r gjson.Result) (model.Selection, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	switch kind := r.Get("kind").String(); kind {
	case "property":
		return model.PropertySelection{
			Start:       decodeCoord(r.Get("start")),
			End:         decodeCoord(r.Get("end")),
			ContainerID: model.NodeID(r.Get("container").String()),
			Reverse:     r.Get("reverse").Bool(),
		}, nil
	case "container":
		return model.ContainerSelection{
			ContainerID: model.NodeID(r.Get("container").String()),
			Start:       decodeCoord(r.Get("start")),
			End:         decodeCoord(r.Get("end")),
			Reverse:     r.Get("reverse").Bool(),
		}, nil
	case "node":
		s := model.NodeSelection{
			NodeID:      model.NodeID(r.Get("node").String()),
			ContainerID: model.NodeID(r.Get("container").String()),
		}
		switch r.Get("mode").String() {
		case "before":
			s.Mode = model.NodeModeBefore
		case "after":
			s.Mode = model.NodeModeAfter
		default:
			s.Mode = model.NodeModeFull
		}
		return s, nil
	case "custom":
		s := model.CustomSelection{
			CustomKind: r.Get("custom_kind").String(),
			NodeID:     model.NodeID(r.Get("node").String()),
			Data:       make(map[string]any),
		}
		var err error
		r.Get("data").ForEach(func(k, v gjson.Result) bool {
			var val any
			val, err = decodeValue(v)
			if err != nil {
				return false
			}
			s.Data[k.String()] = val
			return true
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown selection kind %q", kind)
	}
}

func encodeCoord(c model.Coordinate) string {
	out, _ := sjson.Set(`{}`, "path", []string(c.Path))
	out, _ = sjson.Set(out, "offset", c.Offset)
	return out
}

func decodeCoord(r gjson.Result) model.Coordinate {
	return model.Coordinate{
		Path:   decodePath(r.Get("path")),
		Offset: int(r.Get("offset").Int()),
	}
}

func decodePath(r gjson.Result) model.Path {
	var p model.Path
	r.ForEach(func(_, e gjson.Result) bool {
		p = append(p, e.String())
		return true
	})
	return p
}

// ============================================================================
// Property values
// ============================================================================

// encodeValue serializes a document property value with a type tag.
func encodeValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return tagged("s", t), nil
	case bool:
		return tagged("b", t), nil
	case int:
		return tagged("i", t), nil
	case float64:
		return tagged("f", t), nil
	case model.NodeID:
		return tagged("id", string(t)), nil
	case []model.NodeID:
		ids := make([]string, len(t))
		for i, id := range t {
			ids[i] = string(id)
		}
		return tagged("ids", ids), nil
	case []string:
		return tagged("ss", t), nil
	case model.Coordinate:
		out, _ := sjson.Set(`{"t":"coord"}`, "path", []string(t.Path))
		out, _ = sjson.Set(out, "offset", t.Offset)
		return out, nil
	case map[string]any:
		out := `{"t":"m","v":{}}`
		for k, e := range t {
			raw, err := encodeValue(e)
			if err != nil {
				return "", err
			}
			out, _ = sjson.SetRaw(out, "v."+escapeKey(k), raw)
		}
		return out, nil
	default:
		return "", fmt.Errorf("unsupported property value %T", v)
	}
}

func decodeValue(r gjson.Result) (any, error) {
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	switch tag := r.Get("t").String(); tag {
	case "s":
		return r.Get("v").String(), nil
	case "b":
		return r.Get("v").Bool(), nil
	case "i":
		return int(r.Get("v").Int()), nil
	case "f":
		return r.Get("v").Float(), nil
	case "id":
		return model.NodeID(r.Get("v").String()), nil
	case "ids":
		var ids []model.NodeID
		r.Get("v").ForEach(func(_, e gjson.Result) bool {
			ids = append(ids, model.NodeID(e.String()))
			return true
		})
		if ids == nil {
			ids = []model.NodeID{}
		}
		return ids, nil
	case "ss":
		var out []string
		r.Get("v").ForEach(func(_, e gjson.Result) bool {
			out = append(out, e.String())
			return true
		})
		return out, nil
	case "coord":
		return decodeCoord(r), nil
	case "m":
		out := make(map[string]any)
		var err error
		r.Get("v").ForEach(func(k, e gjson.Result) bool {
			var val any
			val, err = decodeValue(e)
			if err != nil {
				return false
			}
			out[k.String()] = val
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown value tag %q", tag)
	}
}

func tagged(tag string, v any) string {
	out, _ := sjson.Set(`{}`, "t", tag)
	out, _ = sjson.Set(out, "v", v)
	return out
}

// escapeKey escapes sjson path syntax in property names.
func escapeKey(k string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(k)
}
