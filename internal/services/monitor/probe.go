package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/domain/run"
)

type Prober interface {
	Probe(ctx context.Context, c *check.Check) run.Outcome
}

// gate forwards the first offered outcome and drops the rest.
type gate struct {
	claimed atomic.Bool
	out     chan run.Outcome
}

func newGate() *gate { return &gate{out: make(chan run.Outcome, 1)} }

func (g *gate) offer(o run.Outcome) bool {
	if !g.claimed.CompareAndSwap(false, true) {
		return false
	}
	g.out <- o
	return true
}

func (g *gate) wait() run.Outcome { return <-g.out }

// HTTPProber sends a single request per check. The check timeout races the response
// and the transport error; whichever comes first is the outcome. Reaching the timeout
// does not abort the request.
type HTTPProber struct {
	clients   map[check.Protocol]*http.Client
	userAgent string
}

var _ Prober = (*HTTPProber)(nil)

func NewHTTPProber(cfg config.HTTPProbe) *HTTPProber {
	return &HTTPProber{clients: newClients(cfg), userAgent: cfg.UserAgent}
}

func (p *HTTPProber) Probe(ctx context.Context, c *check.Check) run.Outcome {
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	client, ok := p.clients[c.Protocol]
	if !ok {
		err := fmt.Errorf("unsupported protocol %q", c.Protocol)
		return run.Outcome{Error: err.Error(), Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, string(c.Method), c.Target(), nil)
	if err != nil {
		return run.Outcome{Error: err.Error(), Cause: err}
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	g := newGate()
	timer := time.AfterFunc(c.Timeout(), func() {
		g.offer(run.Outcome{Error: run.ErrTimeout, LatencyMS: elapsed()})
	})
	defer timer.Stop()

	go func() {
		resp, err := client.Do(req)
		if err != nil {
			g.offer(run.Outcome{Error: err.Error(), Cause: err, LatencyMS: elapsed()})
			return
		}
		g.offer(run.Outcome{ResponseCode: resp.StatusCode, LatencyMS: elapsed()})
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
	}()

	select {
	case o := <-g.out:
		return o
	case <-ctx.Done():
		err := ctx.Err()
		g.offer(run.Outcome{Error: err.Error(), Cause: err, LatencyMS: elapsed()})
		return g.wait()
	}
}
