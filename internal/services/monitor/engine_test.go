package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/run"
	"github.com/NordCoder/Sentinel/internal/repository/filestore"
	"github.com/NordCoder/Sentinel/internal/repository/logfile"
	"github.com/NordCoder/Sentinel/internal/services/monitor/repo"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEngine(d Deps, cfg config.Sched) *Engine {
	if d.Clock == nil {
		d.Clock = fixedClock{t0}
	}
	if d.Notifier == nil {
		d.Notifier = &recordingNotifier{}
	}
	return NewEngine(d, cfg, prometheus.NewRegistry(), zap.NewNop())
}

func TestProcessAllChecks_IsolatesFailures(t *testing.T) {
	checks := newMemChecks()
	checks.put(checkJSON(id20(1), `"state":"down","lastChecked":1700000000000`))
	checks.put(checkJSON(id20(2), ""))
	checks.put(`{"id":"` + id20(3) + `","protocol":"ftp"}`)
	checks.loadErr[id20(4)] = errBoom
	logs, notifier := newMemLogs(), &recordingNotifier{}

	e := newEngine(Deps{
		Checks:   checks,
		Logs:     logs,
		Notifier: notifier,
		Prober: stubProber(func(c *check.Check) run.Outcome {
			if c.ID == id20(1) {
				return run.Outcome{ResponseCode: 200}
			}
			return run.Outcome{Error: "refused"}
		}),
	}, config.Sched{Concurrency: 4})

	stats, err := e.ProcessAllChecks(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, stats.CycleID)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Probed)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.ReadFailed)
	assert.Zero(t, stats.Abandoned)
	assert.Zero(t, stats.SideEffectFailed)
	assert.Equal(t, 1, stats.Alerts)
	assert.Equal(t, stats.Total, stats.Probed+stats.Malformed+stats.ReadFailed+stats.Abandoned)

	assert.Equal(t, check.StateUp, checks.savedCheck(id20(1)).State)
	assert.Equal(t, check.StateDown, checks.savedCheck(id20(2)).State)
	assert.Nil(t, checks.savedCheck(id20(3)))
	assert.Len(t, logs.entries(id20(1)), 1)
	assert.Len(t, logs.entries(id20(2)), 1)
	assert.Empty(t, logs.entries(id20(3)))
	assert.Equal(t, 1, notifier.count())
}

func TestProcessAllChecks_BoundedFanOut(t *testing.T) {
	checks := newMemChecks()
	for i := 0; i < 12; i++ {
		checks.put(checkJSON(id20(i), ""))
	}
	var inFlight, peak atomic.Int32
	prober := stubProber(func(*check.Check) run.Outcome {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return run.Outcome{ResponseCode: 200}
	})

	e := newEngine(Deps{Checks: checks, Logs: newMemLogs(), Prober: prober}, config.Sched{Concurrency: 3})
	stats, err := e.ProcessAllChecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Probed)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestProcessAllChecks_ListFailure(t *testing.T) {
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	e := newEngine(Deps{Checks: failingIDs{repo.CheckRepo{Store: store}}, Logs: newMemLogs(), Prober: stubProber(nil)}, config.Sched{})

	_, err = e.ProcessAllChecks(context.Background())
	require.ErrorIs(t, err, errBoom)
}

type failingIDs struct{ check.Repo }

func (failingIDs) IDs(context.Context) ([]string, error) { return nil, errBoom }

// A target that never answers within timeoutSeconds=2 ends as one "timeout" entry.
func TestProcessAllChecks_TimeoutEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := hangingServer(t)

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	logDir := t.TempDir()
	logs, err := logfile.New(logDir)
	require.NoError(t, err)

	c := targetCheck(t, srv.URL, "GET", 2)
	raw, err := c.Encode()
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, check.Collection, c.ID, raw))

	notifier := &recordingNotifier{}
	e := newEngine(Deps{
		Checks:   repo.CheckRepo{Store: store},
		Prober:   NewHTTPProber(config.HTTPProbe{HardCap: 4 * time.Second}),
		Logs:     logs,
		Notifier: notifier,
	}, config.Sched{})

	stats, err := e.ProcessAllChecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Probed)
	assert.Zero(t, notifier.count())

	data, err := logsContent(logDir, c.ID)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(data, "\n"), "\n")
	require.Len(t, lines, 1)

	var entry run.Entry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, run.ErrTimeout, entry.Outcome.Error)
	assert.Equal(t, check.StateDown, entry.State)
	assert.False(t, entry.Alert)

	stored, err := store.Read(ctx, check.Collection, c.ID)
	require.NoError(t, err)
	saved, err := check.Parse(stored)
	require.NoError(t, err)
	assert.Equal(t, check.StateDown, saved.State)
	assert.Equal(t, t0.UnixMilli(), saved.LastChecked)
}

func TestEngine_StartRunsBothLoopsImmediately(t *testing.T) {
	checks := newMemChecks()
	checks.put(checkJSON(id20(1), ""))
	logs := newMemLogs()
	var probes atomic.Int32

	e := newEngine(Deps{
		Checks: checks,
		Logs:   logs,
		Prober: stubProber(func(*check.Check) run.Outcome {
			probes.Add(1)
			return run.Outcome{ResponseCode: 200}
		}),
	}, config.Sched{ProbeInterval: time.Hour, RotateInterval: time.Hour})

	require.Error(t, e.Health(context.Background()))
	e.Start(context.Background())
	e.Start(context.Background())
	require.NoError(t, e.Health(context.Background()))

	require.Eventually(t, func() bool { return probes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		archives, _ := logs.ListArchives(context.Background())
		return len(archives) > 0 || len(logs.entries(id20(1))) == 1
	}, 2*time.Second, 10*time.Millisecond)

	e.Stop()
	e.Stop()
	assert.False(t, e.Running())
	assert.EqualValues(t, 1, probes.Load())
}

func TestProcessAllChecks_SideEffectFailureCountsAsProbed(t *testing.T) {
	checks := newMemChecks()
	checks.put(checkJSON(id20(1), ""))
	checks.saveErr = errBoom

	e := newEngine(Deps{
		Checks: checks,
		Logs:   newMemLogs(),
		Prober: stubProber(func(*check.Check) run.Outcome { return run.Outcome{ResponseCode: 200} }),
	}, config.Sched{})

	stats, err := e.ProcessAllChecks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Probed)
	assert.Equal(t, 1, stats.SideEffectFailed)
	assert.Zero(t, stats.ReadFailed)
	assert.Equal(t, stats.Total, stats.Probed+stats.Malformed+stats.ReadFailed+stats.Abandoned)
}

// Stopping the engine while a probe is in flight leaves the check untouched.
func TestEngine_StopMidProbeRecordsNothing(t *testing.T) {
	checks := newMemChecks()
	checks.put(checkJSON(id20(1), `"state":"up","lastChecked":1700000000000`))
	logs, notifier := newMemLogs(), &recordingNotifier{}

	entered := make(chan struct{})
	e := NewEngine(Deps{
		Checks:   checks,
		Logs:     logs,
		Notifier: notifier,
		Clock:    fixedClock{t0},
		Prober: ctxProber(func(ctx context.Context, _ *check.Check) run.Outcome {
			close(entered)
			<-ctx.Done()
			return run.Outcome{Error: ctx.Err().Error(), Cause: ctx.Err()}
		}),
	}, config.Sched{ProbeInterval: time.Hour, RotateInterval: time.Hour}, prometheus.NewRegistry(), zap.NewNop())

	e.Start(context.Background())
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("prober never called")
	}
	e.Stop()

	assert.Zero(t, notifier.count())
	assert.Nil(t, checks.savedCheck(id20(1)))
	assert.Empty(t, logs.entries(id20(1)))
}

// A real HTTP prober against a hanging target, cancelled before the check's timeout.
func TestProcessAllChecks_CancelledCycleAbandonsHTTPProbe(t *testing.T) {
	srv := hangingServer(t)
	checks := newMemChecks()
	c := targetCheck(t, srv.URL, "GET", 5)
	raw, err := c.Encode()
	require.NoError(t, err)
	checks.put(string(raw))
	logs, notifier := newMemLogs(), &recordingNotifier{}

	e := newEngine(Deps{
		Checks:   checks,
		Logs:     logs,
		Notifier: notifier,
		Prober:   NewHTTPProber(config.HTTPProbe{HardCap: 10 * time.Second}),
	}, config.Sched{})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	stats, err := e.ProcessAllChecks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Abandoned)
	assert.Zero(t, stats.Probed)
	assert.Zero(t, notifier.count())
	assert.Nil(t, checks.savedCheck(c.ID))
	assert.Empty(t, logs.entries(c.ID))
}

func TestEngine_Routes(t *testing.T) {
	checks := newMemChecks()
	checks.put(checkJSON(id20(1), ""))
	e := newEngine(Deps{
		Checks: checks,
		Logs:   newMemLogs(),
		Prober: stubProber(func(*check.Check) run.Outcome { return run.Outcome{ResponseCode: 200} }),
	}, config.Sched{})

	r := chi.NewRouter()
	e.Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/cycle", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats CycleStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Probed)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/rotate", bytes.NewReader(nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var rs RotateStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rs))
	assert.Equal(t, 1, rs.Rotated)

	// a caller that already hung up still gets a full cycle
	gone, cancel := context.WithCancel(context.Background())
	cancel()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/cycle", nil).WithContext(gone))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Probed)
	assert.Zero(t, stats.Abandoned)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cycle", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
