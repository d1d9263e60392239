package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/NordCoder/Sentinel/internal/domain/record"
)

const ext = ".json"

var ErrBadKey = errors.New("invalid collection or id")

var _ record.Store = (*Store)(nil)

// Store keeps every record as dir/<collection>/<id>.json.
type Store struct {
	dir   string
	locks sync.Map // "<collection>/<id>" -> *sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Ping(context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *Store) Create(ctx context.Context, collection, id string, data []byte) error {
	path, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(collection, id)
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create %s/%s: %w", collection, id, record.ErrExists)
		}
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s/%s: %w", collection, id, werr)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, collection, id string) ([]byte, error) {
	path, err := s.path(collection, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := s.lock(collection, id)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s/%s: %w", collection, id, record.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return data, nil
}

// Update replaces the record through a temp file and rename, so readers never see a torn write.
func (s *Store) Update(ctx context.Context, collection, id string, data []byte) error {
	path, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(collection, id)
	defer unlock()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("update %s/%s: %w", collection, id, record.ErrNotFound)
		}
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), path)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("update %s/%s: %w", collection, id, werr)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	path, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(collection, id)
	defer unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s/%s: %w", collection, id, record.ErrNotFound)
		}
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// List returns the ids of a collection in lexical order. A missing collection is empty.
func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if !validName(collection) {
		return nil, ErrBadKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) path(collection, id string) (string, error) {
	if !validName(collection) || !validName(id) {
		return "", fmt.Errorf("%w: %q/%q", ErrBadKey, collection, id)
	}
	return filepath.Join(s.dir, collection, id+ext), nil
}

func (s *Store) lock(collection, id string) func() {
	v, _ := s.locks.LoadOrStore(collection+"/"+id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.HasPrefix(s, ".") && !strings.ContainsAny(s, `/\`)
}
