package changestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docforge/internal/model"
	"github.com/dshills/docforge/internal/operation"
	"github.com/dshills/docforge/internal/schema"
	"github.com/dshills/docforge/internal/transaction"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := schema.New("note", "note@1")
	s.MustRegister(schema.NodeSpec{Type: "body", Capability: schema.CapContainer})
	s.MustRegister(schema.NodeSpec{Type: "paragraph", Capability: schema.CapText})
	s.SetRootType("body")
	s.SetDefaultTextType("paragraph")
	return s
}

// editChange builds a change inserting text into the seeded paragraph of a
// freshly created document.
func editChange(t *testing.T, store Store, id string) transaction.Change {
	t.Helper()
	ctx := context.Background()
	changes, _, err := store.GetChanges(ctx, id, 0)
	require.NoError(t, err)
	require.NotEmpty(t, changes)

	var para model.NodeID
	for _, op := range changes[0].Ops {
		if op.Kind == operation.OpCreate && op.Node.Type == "paragraph" {
			para = op.Node.ID
		}
	}
	require.NotEmpty(t, para, "seed change should create a paragraph")
	path := model.PropertyPath(para, model.PropContent)
	return transaction.NewChange(operation.List{
		operation.Update(path, operation.InsertText(0, "hello")),
	}, transaction.State{}, transaction.State{
		Selection: model.CursorAt(path, 5),
	})
}

// runStoreSuite exercises the Store contract against one implementation.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()
	sc := testSchema(t)

	t.Run("create and get", func(t *testing.T) {
		store := open(t)
		v, err := store.CreateDocument(ctx, "doc1", sc.Name(), sc.ID(), DefaultSeed(sc))
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		info, err := store.GetDocument(ctx, "doc1")
		require.NoError(t, err)
		assert.Equal(t, "doc1", info.ID)
		assert.Equal(t, sc.Name(), info.SchemaName)
		assert.Equal(t, sc.ID(), info.SchemaID)
		assert.Equal(t, 1, info.Version)
		assert.False(t, info.CreatedAt.IsZero())

		_, err = store.CreateDocument(ctx, "doc1", sc.Name(), sc.ID(), DefaultSeed(sc))
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("missing document", func(t *testing.T) {
		store := open(t)
		_, err := store.GetDocument(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		_, _, err = store.GetChanges(ctx, "ghost", 0)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetVersion(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.AddChange(ctx, "ghost", 1, transaction.Change{})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.DeleteDocument(ctx, "ghost"), ErrNotFound)
	})

	t.Run("append and read back", func(t *testing.T) {
		store := open(t)
		_, err := store.CreateDocument(ctx, "doc1", sc.Name(), sc.ID(), DefaultSeed(sc))
		require.NoError(t, err)

		c := editChange(t, store, "doc1")
		v, err := store.AddChange(ctx, "doc1", 1, c)
		require.NoError(t, err)
		assert.Equal(t, 2, v)

		all, version, err := store.GetChanges(ctx, "doc1", 0)
		require.NoError(t, err)
		assert.Equal(t, 2, version)
		require.Len(t, all, 2)
		assert.Equal(t, c.ID, all[1].ID)

		// Incremental read skips changes the caller already replayed.
		tail, version, err := store.GetChanges(ctx, "doc1", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, version)
		require.Len(t, tail, 1)
		assert.Equal(t, c.ID, tail[0].ID)

		// The stored log replays to a working session.
		ses, err := transaction.FromChanges(sc, all)
		require.NoError(t, err)
		assert.Equal(t, 2, ses.Version())
	})

	t.Run("version conflict", func(t *testing.T) {
		store := open(t)
		_, err := store.CreateDocument(ctx, "doc1", sc.Name(), sc.ID(), DefaultSeed(sc))
		require.NoError(t, err)

		c := editChange(t, store, "doc1")
		_, err = store.AddChange(ctx, "doc1", 1, c)
		require.NoError(t, err)

		// A second writer still at version 1 must be rejected.
		_, err = store.AddChange(ctx, "doc1", 1, editChange(t, store, "doc1"))
		assert.ErrorIs(t, err, ErrVersionConflict)

		v, err := store.GetVersion(ctx, "doc1")
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("list and delete", func(t *testing.T) {
		store := open(t)
		for _, id := range []string{"b-doc", "a-doc"} {
			_, err := store.CreateDocument(ctx, id, sc.Name(), sc.ID(), DefaultSeed(sc))
			require.NoError(t, err)
		}

		infos, err := store.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "a-doc", infos[0].ID)
		assert.Equal(t, "b-doc", infos[1].ID)

		require.NoError(t, store.DeleteDocument(ctx, "a-doc"))
		_, err = store.GetDocument(ctx, "a-doc")
		assert.ErrorIs(t, err, ErrNotFound)

		infos, err = store.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store := NewMemory()
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store, err := Open(filepath.Join(t.TempDir(), "docs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestDefaultSeed(t *testing.T) {
	sc := testSchema(t)
	c, err := DefaultSeed(sc)()
	require.NoError(t, err)

	require.Len(t, c.Ops, 3)
	assert.Equal(t, operation.OpCreate, c.Ops[0].Kind)
	assert.Equal(t, "body", c.Ops[0].Node.Type)
	assert.Equal(t, operation.OpCreate, c.Ops[1].Kind)
	assert.Equal(t, "paragraph", c.Ops[1].Node.Type)
	assert.Equal(t, operation.OpUpdate, c.Ops[2].Kind)
	assert.Equal(t, operation.ListInsert, c.Ops[2].Diff.Kind)

	sel, ok := c.After.Selection.(model.PropertySelection)
	require.True(t, ok, "seed should leave a property cursor")
	assert.True(t, sel.IsCollapsed())
	assert.Equal(t, c.Ops[1].Node.ID, sel.Start.NodeID())
	assert.Equal(t, c.Ops[0].Node.ID, sel.ContainerID)

	// The seed replays to a valid session at version 1.
	ses, err := transaction.FromChanges(sc, []transaction.Change{c})
	require.NoError(t, err)
	assert.Equal(t, 1, ses.Version())
	assert.NotNil(t, ses.Document().Root())
}
