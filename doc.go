// Package docforge is a structured-document editing engine.
//
// A document is a flat table of typed nodes: containers order their children
// by id, text nodes hold UTF-8 content, and annotations anchor ranges onto
// text properties without being part of the text itself. Editing happens in
// transactions against a staging copy; each successful transaction is frozen
// into an immutable Change, and a document's persisted form is nothing but
// its change log, replayed from version zero.
//
// The package re-exports the commonly used types of the internal packages
// and adds Engine, which ties a schema, an editor, and a change store
// together behind per-document handles:
//
//	sc, _ := docforge.LoadSchemaFile("note.yaml")
//	eng := docforge.New(sc)
//	h, _ := eng.CreateDocument(ctx, "note-1")
//	h.Edit(ctx, func(tx *docforge.Transaction, ed *docforge.Editor) error {
//	    _, err := ed.InsertText(tx, "hello")
//	    return err
//	})
package docforge
