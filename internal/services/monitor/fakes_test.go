package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/notification"
	"github.com/NordCoder/Sentinel/internal/domain/record"
	"github.com/NordCoder/Sentinel/internal/domain/run"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var t0 = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

type memChecks struct {
	mu      sync.Mutex
	raw     map[string][]byte
	saved   map[string]*check.Check
	loadErr map[string]error
	saveErr error
}

func newMemChecks() *memChecks {
	return &memChecks{raw: map[string][]byte{}, saved: map[string]*check.Check{}, loadErr: map[string]error{}}
}

func (m *memChecks) put(raw string) {
	var v struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal([]byte(raw), &v)
	m.raw[v.ID] = []byte(raw)
}

func (m *memChecks) IDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.raw)+len(m.loadErr))
	for id := range m.raw {
		ids = append(ids, id)
	}
	for id := range m.loadErr {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memChecks) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.loadErr[id]; ok {
		return nil, err
	}
	raw, ok := m.raw[id]
	if !ok {
		return nil, record.ErrNotFound
	}
	return raw, nil
}

func (m *memChecks) Save(_ context.Context, c *check.Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[c.ID] = c
	return nil
}

func (m *memChecks) savedCheck(id string) *check.Check {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[id]
}

type memLogs struct {
	mu          sync.Mutex
	live        map[string][]byte
	archives    map[string][]byte
	compressErr map[string]error
}

func newMemLogs() *memLogs {
	return &memLogs{live: map[string][]byte{}, archives: map[string][]byte{}, compressErr: map[string]error{}}
}

func (l *memLogs) Append(_ context.Context, id string, line []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live[id] = append(l.live[id], line...)
	return nil
}

func (l *memLogs) ListLive(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.live))
	for id := range l.live {
		out = append(out, id)
	}
	return out, nil
}

func (l *memLogs) ListArchives(context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.archives))
	for id := range l.archives {
		out = append(out, id)
	}
	return out, nil
}

func (l *memLogs) Compress(_ context.Context, id, archive string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.compressErr[id]; err != nil {
		return err
	}
	if _, ok := l.archives[archive]; ok {
		return run.ErrArchiveExists
	}
	l.archives[archive] = append([]byte(nil), l.live[id]...)
	return nil
}

func (l *memLogs) Decompress(_ context.Context, archive string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, ok := l.archives[archive]
	if !ok {
		return nil, run.ErrArchiveMissing
	}
	return data, nil
}

func (l *memLogs) Truncate(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live[id] = nil
	return nil
}

func (l *memLogs) entries(id string) []run.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []run.Entry
	dec := json.NewDecoder(bytes.NewReader(l.live[id]))
	for dec.More() {
		var e run.Entry
		if err := dec.Decode(&e); err != nil {
			panic(fmt.Sprintf("bad log line: %v", err))
		}
		out = append(out, e)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notification.Alert
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, a notification.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type stubProber func(c *check.Check) run.Outcome

func (f stubProber) Probe(_ context.Context, c *check.Check) run.Outcome { return f(c) }

type ctxProber func(ctx context.Context, c *check.Check) run.Outcome

func (f ctxProber) Probe(ctx context.Context, c *check.Check) run.Outcome { return f(ctx, c) }

var errBoom = errors.New("boom")

// checkJSON renders a valid record with the given id suffix and overrides.
func checkJSON(id string, extra string) string {
	base := fmt.Sprintf(`{"id":%q,"userPhone":"5551234567","protocol":"http","url":"example.com/health","method":"get","successCodes":[200],"timeoutSeconds":2`, id)
	if extra != "" {
		base += "," + extra
	}
	return base + "}"
}

func logsContent(dir, id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, id+".log"))
	return string(data), err
}
