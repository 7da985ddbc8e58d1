package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 16

// Redis keeps each document as a JSON string and the enumeration order in a
// sorted set scored by a per-collection counter.
//
//	<prefix>:doc:<collection>:<id>  document JSON
//	<prefix>:idx:<collection>       ZSET of ids by insertion sequence
//	<prefix>:seq:<collection>       INCR counter
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures OpenRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedis connects to the server and pings it.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "chatadmin"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) docKey(collection, id string) string {
	return fmt.Sprintf("%s:doc:%s:%s", r.prefix, collection, id)
}

func (r *Redis) idxKey(collection string) string {
	return fmt.Sprintf("%s:idx:%s", r.prefix, collection)
}

func (r *Redis) seqKey(collection string) string {
	return fmt.Sprintf("%s:seq:%s", r.prefix, collection)
}

func (r *Redis) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	ids, err := r.client.ZRange(ctx, r.idxKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	docs := []Document{}
	if len(ids) == 0 {
		return docs, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(collection, id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Index entry without a document: deleted between ZRANGE and MGET.
			continue
		}
		data, err := decode([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", collection, ids[i], err)
		}
		docs = append(docs, Document{ID: ids[i], Data: data})
	}
	Sort(docs, q)
	return docs, nil
}

func (r *Redis) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	data, err := r.load(ctx, r.client, collection, id)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Data: data}, nil
}

func (r *Redis) Insert(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	raw, err := encode(data)
	if err != nil {
		return "", err
	}
	seq, err := r.client.Incr(ctx, r.seqKey(collection)).Result()
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	id := uuid.NewString()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.docKey(collection, id), raw, 0)
		pipe.ZAdd(ctx, r.idxKey(collection), redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

func (r *Redis) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	return r.modify(ctx, collection, id, func(data map[string]any) error {
		merge(data, fields)
		return nil
	})
}

func (r *Redis) Delete(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.docKey(collection, id))
		pipe.ZRem(ctx, r.idxKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Append(ctx context.Context, collection, id, field string, values ...any) ([]any, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	var out []any
	err := r.modify(ctx, collection, id, func(data map[string]any) error {
		var err error
		out, err = appendField(data, field, values)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Redis) Count(ctx context.Context, collection string) (int, error) {
	if err := ValidateCollection(collection); err != nil {
		return 0, err
	}
	n, err := r.client.ZCard(ctx, r.idxKey(collection)).Result()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return int(n), nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// modify runs a WATCH/MULTI read-modify-write on one document, retrying
// when another client changed it in between.
func (r *Redis) modify(ctx context.Context, collection, id string, fn func(map[string]any) error) error {
	key := r.docKey(collection, id)
	txf := func(tx *redis.Tx) error {
		data, err := r.load(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
		raw, err := encode(data)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}

	for range redisMaxRetries {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("modify %s/%s: too much contention", collection, id)
}

func (r *Redis) load(ctx context.Context, c getter, collection, id string) (map[string]any, error) {
	raw, err := c.Get(ctx, r.docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decode(raw)
}
