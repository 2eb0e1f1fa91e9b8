package httpx

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
)

// Client guards outbound calls with a host allowlist and a consecutive-failure circuit.
// It never retries: a failed generation call is reported, not repeated.
type Client struct {
	base      http.RoundTripper
	opt       Options
	fail      int32 // consecutive failures
	openUntil int64 // unix nanos for circuit open deadline
}

type Options struct {
	Timeout            time.Duration
	HostAllowlist      []string
	MaxConsecutiveFail int
	CircuitOpen        time.Duration
}

var (
	ErrCircuitOpen    = errors.New("circuit open")
	ErrHostNotAllowed = errors.New("host not allowed")
)

func NewFromConfig(cfg *config.HTTPClientConfig) *Client {
	to := 60 * time.Second
	if cfg != nil && cfg.TimeoutMs > 0 {
		to = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	mcf := 5
	if cfg != nil && cfg.MaxConsecutiveFailures > 0 {
		mcf = cfg.MaxConsecutiveFailures
	}
	cop := 5 * time.Second
	if cfg != nil && cfg.CircuitOpenSeconds > 0 {
		cop = time.Duration(cfg.CircuitOpenSeconds) * time.Second
	}
	var allow []string
	if cfg != nil {
		allow = cfg.HostAllowlist
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        100,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return New(transport, Options{Timeout: to, HostAllowlist: allow, MaxConsecutiveFail: mcf, CircuitOpen: cop})
}

// New wraps an arbitrary transport, e.g. an httptest server's.
func New(base http.RoundTripper, opt Options) *Client {
	if base == nil {
		base = http.DefaultTransport
	}
	if opt.MaxConsecutiveFail <= 0 {
		opt.MaxConsecutiveFail = 5
	}
	if opt.CircuitOpen <= 0 {
		opt.CircuitOpen = 5 * time.Second
	}
	return &Client{base: base, opt: opt}
}

// StandardClient exposes the guarded transport as an *http.Client for SDKs.
func (c *Client) StandardClient() *http.Client {
	return &http.Client{Timeout: c.opt.Timeout, Transport: c}
}

// Do sends req through the guarded transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.StandardClient().Do(req)
}

func (c *Client) allowed(host string) bool {
	if len(c.opt.HostAllowlist) == 0 {
		return true
	}
	for _, h := range c.opt.HostAllowlist {
		if matchHost(h, host) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	if pattern == "*" {
		return true
	}
	if strings.EqualFold(pattern, host) {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suf := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suf) || host == suf
	}
	return false
}

// RoundTrip implements http.RoundTripper.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	if !c.allowed(req.URL.Hostname()) {
		logger.Warnf("httpx: blocked outbound host: %s", req.URL.Hostname())
		return nil, ErrHostNotAllowed
	}
	if atomic.LoadInt64(&c.openUntil) > time.Now().UnixNano() {
		return nil, ErrCircuitOpen
	}

	resp, err := c.base.RoundTrip(req)
	if err == nil && resp.StatusCode < 500 {
		atomic.StoreInt32(&c.fail, 0)
		return resp, nil
	}
	if err != nil {
		logger.Warnf("httpx: request to %s failed: %v", req.URL.Host, err)
	} else {
		logger.Warnf("httpx: request to %s returned %d", req.URL.Host, resp.StatusCode)
	}
	if atomic.AddInt32(&c.fail, 1) >= int32(c.opt.MaxConsecutiveFail) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.opt.CircuitOpen).UnixNano())
		atomic.StoreInt32(&c.fail, 0)
		logger.Warnf("httpx: circuit opened for %v", c.opt.CircuitOpen)
	}
	return resp, err
}
