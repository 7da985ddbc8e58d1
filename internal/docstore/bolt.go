package docstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	docsBucket = []byte("docs")
	idsBucket  = []byte("ids")
	countKey   = []byte("count")
)

// Bolt stores each collection in its own top-level bucket. Inside it,
// "docs" maps an 8-byte big-endian sequence followed by the id to the
// document JSON, so a cursor walk yields insertion order, "ids" maps the
// id back to its docs key, and the "count" key holds the number of
// documents.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the bbolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) List(_ context.Context, collection string, q Query) ([]Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	docs := []Document{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(collection))
		if root == nil {
			return nil
		}
		return root.Bucket(docsBucket).ForEach(func(k, v []byte) error {
			data, err := decode(v)
			if err != nil {
				return err
			}
			docs = append(docs, Document{ID: string(k[8:]), Data: data})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	Sort(docs, q)
	return docs, nil
}

func (b *Bolt) Get(_ context.Context, collection, id string) (*Document, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	var doc *Document
	err := b.db.View(func(tx *bbolt.Tx) error {
		data, _, err := boltGet(tx, collection, id)
		if err != nil {
			return err
		}
		doc = &Document{ID: id, Data: data}
		return nil
	})
	return doc, err
}

func (b *Bolt) Insert(_ context.Context, collection string, data map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	raw, err := encode(data)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	err = b.db.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		docs, err := root.CreateBucketIfNotExists(docsBucket)
		if err != nil {
			return err
		}
		ids, err := root.CreateBucketIfNotExists(idsBucket)
		if err != nil {
			return err
		}
		seq, err := root.NextSequence()
		if err != nil {
			return err
		}
		if err := addCount(root, ids, 1); err != nil {
			return err
		}
		key := docKey(seq, id)
		if err := docs.Put(key, raw); err != nil {
			return err
		}
		return ids.Put([]byte(id), key)
	})
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

func (b *Bolt) Update(_ context.Context, collection, id string, fields map[string]any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, key, err := boltGet(tx, collection, id)
		if err != nil {
			return err
		}
		merge(data, fields)
		return boltPut(tx, collection, key, data)
	})
}

func (b *Bolt) Delete(_ context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(collection))
		if root == nil {
			return ErrNotFound
		}
		ids := root.Bucket(idsBucket)
		key := ids.Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		// key aliases mmap'd memory that Delete may invalidate.
		key = append([]byte(nil), key...)
		if err := addCount(root, ids, -1); err != nil {
			return err
		}
		if err := ids.Delete([]byte(id)); err != nil {
			return err
		}
		return root.Bucket(docsBucket).Delete(key)
	})
}

func (b *Bolt) Append(_ context.Context, collection, id, field string, values ...any) ([]any, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	var out []any
	err := b.db.Update(func(tx *bbolt.Tx) error {
		data, key, err := boltGet(tx, collection, id)
		if err != nil {
			return err
		}
		out, err = appendField(data, field, values)
		if err != nil {
			return err
		}
		return boltPut(tx, collection, key, data)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Count(_ context.Context, collection string) (int, error) {
	if err := ValidateCollection(collection); err != nil {
		return 0, err
	}
	var n int
	err := b.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(collection))
		if root == nil {
			return nil
		}
		n = storedCount(root, root.Bucket(idsBucket))
		return nil
	})
	return n, err
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// storedCount reads the count key. Files written before the key existed
// fall back to counting the ids bucket.
func storedCount(root, ids *bbolt.Bucket) int {
	if v := root.Get(countKey); len(v) == 8 {
		return int(binary.BigEndian.Uint64(v))
	}
	if ids == nil {
		return 0
	}
	return ids.Stats().KeyN
}

// addCount must run before ids changes so the fallback sees the old size.
func addCount(root, ids *bbolt.Bucket, delta int) error {
	n := storedCount(root, ids) + delta
	if n < 0 {
		n = 0
	}
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(n))
	return root.Put(countKey, v)
}

func docKey(seq uint64, id string) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, seq)
	return append(key, id...)
}

func boltGet(tx *bbolt.Tx, collection, id string) (map[string]any, []byte, error) {
	root := tx.Bucket([]byte(collection))
	if root == nil {
		return nil, nil, ErrNotFound
	}
	key := root.Bucket(idsBucket).Get([]byte(id))
	if key == nil {
		return nil, nil, ErrNotFound
	}
	key = append([]byte(nil), key...)
	data, err := decode(root.Bucket(docsBucket).Get(key))
	if err != nil {
		return nil, nil, fmt.Errorf("%s/%s: %w", collection, id, err)
	}
	return data, key, nil
}

func boltPut(tx *bbolt.Tx, collection string, key []byte, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(collection)).Bucket(docsBucket).Put(key, raw)
}
