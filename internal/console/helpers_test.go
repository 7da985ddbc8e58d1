package console

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/entity"
)

var errBackend = errors.New("backend unavailable")

func testStore(t *testing.T) docstore.Store {
	t.Helper()
	s, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "chatadmin.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// flakyStore fails the operations named in failing.
type flakyStore struct {
	docstore.Store

	mu      sync.Mutex
	failing map[string]bool
}

func newFlakyStore(s docstore.Store) *flakyStore {
	return &flakyStore{Store: s, failing: make(map[string]bool)}
}

func (f *flakyStore) fail(ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, op := range ops {
		f.failing[op] = true
	}
}

func (f *flakyStore) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[op] {
		return errBackend
	}
	return nil
}

func (f *flakyStore) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	if err := f.check("list"); err != nil {
		return nil, err
	}
	return f.Store.List(ctx, collection, q)
}

func (f *flakyStore) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := f.check("insert"); err != nil {
		return "", err
	}
	return f.Store.Insert(ctx, collection, data)
}

func (f *flakyStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := f.check("update"); err != nil {
		return err
	}
	return f.Store.Update(ctx, collection, id, fields)
}

func (f *flakyStore) Delete(ctx context.Context, collection, id string) error {
	if err := f.check("delete"); err != nil {
		return err
	}
	return f.Store.Delete(ctx, collection, id)
}

func (f *flakyStore) Append(ctx context.Context, collection, id, field string, values ...any) ([]any, error) {
	if err := f.check("append"); err != nil {
		return nil, err
	}
	return f.Store.Append(ctx, collection, id, field, values...)
}

func seedUser(t *testing.T, s docstore.Store, u entity.User) string {
	t.Helper()
	id, err := s.Insert(context.Background(), entity.UsersCollection, u.Fields())
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func storedUser(t *testing.T, s docstore.Store, id string) entity.User {
	t.Helper()
	doc, err := s.Get(context.Background(), entity.UsersCollection, id)
	if err != nil {
		t.Fatal(err)
	}
	return entity.UserFromDoc(*doc)
}

func nopLogger() *zap.Logger { return zap.NewNop() }

func isRemote(err error) bool {
	var r *RemoteError
	return errors.As(err, &r)
}
