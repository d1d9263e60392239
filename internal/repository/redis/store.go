package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/NordCoder/Sentinel/internal/domain/record"
	goredis "github.com/redis/go-redis/v9"
)

// Connect accepts either a redis:// URL or a bare host:port.
func Connect(_ context.Context, redisURL string) (*goredis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return goredis.NewClient(opt), nil
	}
	return goredis.NewClient(&goredis.Options{Addr: redisURL}), nil
}

var _ record.Store = (*Store)(nil)

// Store keeps each record as a string at <prefix>:<collection>:<id> and tracks
// the ids of a collection in the set <prefix>:<collection>.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

func NewStore(client goredis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Create(ctx context.Context, collection, id string, data []byte) error {
	ok, err := s.client.SetNX(ctx, s.key(collection, id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	if !ok {
		return fmt.Errorf("create %s/%s: %w", collection, id, record.ErrExists)
	}
	if err := s.client.SAdd(ctx, s.index(collection), id).Err(); err != nil {
		return fmt.Errorf("index %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, collection, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("read %s/%s: %w", collection, id, record.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// Update only overwrites an existing key (SET XX).
func (s *Store) Update(ctx context.Context, collection, id string, data []byte) error {
	ok, err := s.client.SetXX(ctx, s.key(collection, id), data, goredis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if !ok {
		return fmt.Errorf("update %s/%s: %w", collection, id, record.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	var del *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		del = p.Del(ctx, s.key(collection, id))
		p.SRem(ctx, s.index(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("delete %s/%s: %w", collection, id, record.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.index(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) key(collection, id string) string {
	return s.index(collection) + ":" + id
}

func (s *Store) index(collection string) string {
	if s.prefix == "" {
		return collection
	}
	return s.prefix + ":" + collection
}
