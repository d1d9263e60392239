package monitor

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	config "github.com/NordCoder/Sentinel/internal/config/monitor"
	"github.com/NordCoder/Sentinel/internal/domain/check"
	"github.com/NordCoder/Sentinel/internal/obs"
)

// newClients builds one client per protocol. The client timeout is only a hard cap
// for requests whose check deadline already produced an outcome.
func newClients(cfg config.HTTPProbe) map[check.Protocol]*http.Client {
	hardCap := cfg.HardCap
	if hardCap <= 0 {
		hardCap = 30 * time.Second
	}

	plain := baseTransport(hardCap)

	secure := baseTransport(hardCap)
	secure.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: !cfg.VerifyTLS,
		MinVersion:         tls.VersionTLS12,
	}

	return map[check.Protocol]*http.Client{
		check.ProtocolHTTP:  newClient(obs.HTTPTransport(plain, "probe.http"), hardCap, cfg.FollowRedirects),
		check.ProtocolHTTPS: newClient(obs.HTTPTransport(secure, "probe.https"), hardCap, cfg.FollowRedirects),
	}
}

func baseTransport(dialTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func newClient(rt http.RoundTripper, timeout time.Duration, follow bool) *http.Client {
	c := &http.Client{Timeout: timeout, Transport: rt}
	if !follow {
		c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c
}
