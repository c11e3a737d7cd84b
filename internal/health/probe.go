// Package health probes the xray DNS inbound after a restart. A restart
// tears the listener down for a moment; the daemon uses this probe to log
// whether the service came back instead of declaring success blindly.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// Probe 对 xray DNS 入站做 A 记录查询, 直到收到应答或超时
type Probe struct {
	Addr    string // DNS 监听地址, 如 127.0.0.1:5353
	Domain  string // 探测域名
	Timeout time.Duration

	// QueryTimeout bounds a single query attempt.
	QueryTimeout time.Duration
}

func NewProbe(addr, domain string, timeout time.Duration) *Probe {
	return &Probe{Addr: addr, Domain: domain, Timeout: timeout, QueryTimeout: 2 * time.Second}
}

// Check issues one query and reports whether the service answered. Any
// response, including NXDOMAIN, counts: the listener is up.
func (p *Probe) Check(ctx context.Context) error {
	c := &dns.Client{Timeout: p.QueryTimeout}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(p.Domain), dns.TypeA)

	_, _, err := c.ExchangeContext(ctx, m, p.Addr)
	if err != nil {
		return fmt.Errorf("dns probe %s: %w", p.Addr, err)
	}
	return nil
}

// Wait retries Check until it succeeds or the probe deadline passes.
func (p *Probe) Wait(ctx context.Context) error {
	deadline := time.Now().Add(p.Timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var lastErr error
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if lastErr = p.Check(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service not answering within %s: %v", p.Timeout, lastErr)
		case <-ticker.C:
		}
	}
}
