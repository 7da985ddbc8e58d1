package docstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends(t *testing.T) []backend {
	t.Helper()
	bs := []backend{
		{"sqlite", func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "chatadmin.db"))
			require.NoError(t, err)
			return s
		}},
		{"bolt", func(t *testing.T) Store {
			s, err := OpenBolt(filepath.Join(t.TempDir(), "chatadmin.bolt"))
			require.NoError(t, err)
			return s
		}},
	}
	if addr := os.Getenv("CHATADMIN_TEST_REDIS_ADDR"); addr != "" {
		bs = append(bs, backend{"redis", func(t *testing.T) Store {
			s, err := OpenRedis(context.Background(), RedisOptions{
				Addr:   addr,
				Prefix: "chatadmin-test:" + uuid.NewString(),
			})
			require.NoError(t, err)
			return s
		}})
	}
	return bs
}

// forEachBackend runs fn once per backend with a fresh store.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func TestInsertGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.Insert(ctx, "chats", map[string]any{"name": "Trip A", "type": "group", "members": []any{}})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, "chats", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "Trip A", doc.Data["name"])
		assert.Equal(t, []any{}, doc.Data["members"])
	})
}

func TestGetMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "chats", "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var want []string
		for _, name := range []string{"c", "a", "b"} {
			id, err := s.Insert(ctx, "chats", map[string]any{"name": name})
			require.NoError(t, err)
			want = append(want, id)
		}

		docs, err := s.List(ctx, "chats", Query{})
		require.NoError(t, err)
		var got []string
		for _, d := range docs {
			got = append(got, d.ID)
		}
		assert.Equal(t, want, got)
	})
}

func TestListOrderBy(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, name := range []string{"Charlie", "Alice", "Bob"} {
			_, err := s.Insert(ctx, "users", map[string]any{"displayName": name})
			require.NoError(t, err)
		}
		_, err := s.Insert(ctx, "users", map[string]any{"email": "nobody@example.com"})
		require.NoError(t, err)

		docs, err := s.List(ctx, "users", Query{OrderBy: "displayName"})
		require.NoError(t, err)
		require.Len(t, docs, 4)
		assert.Nil(t, docs[0].Data["displayName"], "missing values sort first")
		assert.Equal(t, "Alice", docs[1].Data["displayName"])
		assert.Equal(t, "Bob", docs[2].Data["displayName"])
		assert.Equal(t, "Charlie", docs[3].Data["displayName"])

		docs, err = s.List(ctx, "users", Query{OrderBy: "displayName", Descending: true})
		require.NoError(t, err)
		assert.Equal(t, "Charlie", docs[0].Data["displayName"])
	})
}

func TestListEmptyCollection(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		docs, err := s.List(context.Background(), "chats", Query{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestUpdateMerges(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.Insert(ctx, "users", map[string]any{"displayName": "Alice", "status": "User"})
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, "users", id, map[string]any{"status": "TL"}))

		doc, err := s.Get(ctx, "users", id)
		require.NoError(t, err)
		assert.Equal(t, "TL", doc.Data["status"])
		assert.Equal(t, "Alice", doc.Data["displayName"])
	})
}

func TestUpdateMissing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		err := s.Update(context.Background(), "users", "nope", map[string]any{"status": "TL"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		keep, err := s.Insert(ctx, "chats", map[string]any{"name": "keep"})
		require.NoError(t, err)
		gone, err := s.Insert(ctx, "chats", map[string]any{"name": "gone"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "chats", gone))
		assert.ErrorIs(t, s.Delete(ctx, "chats", gone), ErrNotFound)

		docs, err := s.List(ctx, "chats", Query{})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, keep, docs[0].ID)

		n, err := s.Count(ctx, "chats")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestAppend(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.Insert(ctx, "chats", map[string]any{"name": "Trip A"})
		require.NoError(t, err)

		out, err := s.Append(ctx, "chats", id, "members", map[string]any{"displayName": "Alice"})
		require.NoError(t, err)
		require.Len(t, out, 1)

		out, err = s.Append(ctx, "chats", id, "members", map[string]any{"displayName": "Bob"})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "Bob", out[1].(map[string]any)["displayName"])

		doc, err := s.Get(ctx, "chats", id)
		require.NoError(t, err)
		assert.Len(t, doc.Data["members"], 2)
	})
}

func TestAppendNotArray(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.Insert(ctx, "chats", map[string]any{"name": "Trip A"})
		require.NoError(t, err)
		_, err = s.Append(ctx, "chats", id, "name", "x")
		assert.ErrorIs(t, err, ErrNotArray)
	})
}

func TestAppendConcurrent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		id, err := s.Insert(ctx, "chats", map[string]any{"name": "Trip A", "members": []any{}})
		require.NoError(t, err)

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Append(ctx, "chats", id, "members", map[string]any{"n": i})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		doc, err := s.Get(ctx, "chats", id)
		require.NoError(t, err)
		assert.Len(t, doc.Data["members"], n)
	})
}

func TestInvalidKeys(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.List(ctx, "Users", Query{})
		assert.ErrorIs(t, err, ErrInvalidCollection)
		_, err = s.Insert(ctx, "", map[string]any{})
		assert.ErrorIs(t, err, ErrInvalidCollection)
		_, err = s.Get(ctx, "users", "")
		assert.ErrorIs(t, err, ErrInvalidID)
	})
}
