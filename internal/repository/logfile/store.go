package logfile

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/NordCoder/Sentinel/internal/domain/run"
	"github.com/klauspost/compress/gzip"
)

const (
	liveExt    = ".log"
	archiveExt = ".gz.b64"
)

var ErrBadName = errors.New("invalid log name")

var _ run.LogStore = (*Store)(nil)

// Store keeps live logs as <dir>/<id>.log and archives as <dir>/<archive-id>.gz.b64
// (gzip, then base64).
type Store struct {
	dir   string
	locks sync.Map // log id -> *sync.Mutex

	mu         sync.Mutex
	compressed map[string]int64 // log id -> bytes covered by its last archive
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Store{dir: dir, compressed: make(map[string]int64)}, nil
}

// Append writes line at the end of the live log, creating it on first use.
// A failed write leaves the log as it was before the call.
func (s *Store) Append(ctx context.Context, logID string, line []byte) error {
	if !validName(logID) {
		return fmt.Errorf("%w: %q", ErrBadName, logID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(logID)
	defer unlock()

	f, err := os.OpenFile(s.live(logID), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", logID, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat log %s: %w", logID, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Truncate(st.Size())
		return fmt.Errorf("append log %s: %w", logID, err)
	}
	return nil
}

func (s *Store) ListLive(ctx context.Context) ([]string, error) {
	return s.list(ctx, liveExt)
}

func (s *Store) ListArchives(ctx context.Context) ([]string, error) {
	return s.list(ctx, archiveExt)
}

// Compress writes the current contents of the live log into a new archive. An existing
// archive with the same id is never overwritten: ErrArchiveExists is returned and the
// live log is left alone.
func (s *Store) Compress(ctx context.Context, logID, archiveID string) error {
	if !validName(logID) || !validName(archiveID) {
		return fmt.Errorf("%w: %q -> %q", ErrBadName, logID, archiveID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(logID)
	defer unlock()

	data, err := os.ReadFile(s.live(logID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("compress %s: %w", logID, run.ErrLogNotFound)
		}
		return fmt.Errorf("read log %s: %w", logID, err)
	}

	path := s.archive(archiveID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("compress %s into %s: %w", logID, archiveID, run.ErrArchiveExists)
		}
		return fmt.Errorf("create archive %s: %w", archiveID, err)
	}

	werr := encode(f, data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write archive %s: %w", archiveID, werr)
	}

	s.mu.Lock()
	s.compressed[logID] = int64(len(data))
	s.mu.Unlock()
	return nil
}

func (s *Store) Decompress(ctx context.Context, archiveID string) ([]byte, error) {
	if !validName(archiveID) {
		return nil, fmt.Errorf("%w: %q", ErrBadName, archiveID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.archive(archiveID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("decompress %s: %w", archiveID, run.ErrArchiveMissing)
		}
		return nil, fmt.Errorf("open archive %s: %w", archiveID, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(base64.NewDecoder(base64.StdEncoding, f))
	if err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", archiveID, err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate archive %s: %w", archiveID, err)
	}
	return out, nil
}

// Truncate drops the part of the live log covered by its last archive. Lines appended
// after that Compress stay in the log. Without a prior Compress the whole log is emptied.
func (s *Store) Truncate(ctx context.Context, logID string) error {
	if !validName(logID) {
		return fmt.Errorf("%w: %q", ErrBadName, logID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock(logID)
	defer unlock()

	s.mu.Lock()
	covered, ok := s.compressed[logID]
	delete(s.compressed, logID)
	s.mu.Unlock()

	path := s.live(logID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("truncate %s: %w", logID, run.ErrLogNotFound)
		}
		return fmt.Errorf("read log %s: %w", logID, err)
	}

	var tail []byte
	if ok && covered < int64(len(data)) {
		tail = data[covered:]
	}

	tmp, err := os.CreateTemp(s.dir, "."+logID+".*.tmp")
	if err != nil {
		return fmt.Errorf("truncate %s: %w", logID, err)
	}
	_, werr := tmp.Write(tail)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), path)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("truncate %s: %w", logID, werr)
	}
	return nil
}

func (s *Store) list(ctx context.Context, suffix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) live(id string) string    { return filepath.Join(s.dir, id+liveExt) }
func (s *Store) archive(id string) string { return filepath.Join(s.dir, id+archiveExt) }

func (s *Store) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func encode(w io.Writer, data []byte) error {
	b64 := base64.NewEncoder(base64.StdEncoding, w)
	zw := gzip.NewWriter(b64)
	if _, err := io.Copy(zw, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return b64.Close()
}

func validName(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && !strings.ContainsAny(s, `/\`)
}
