package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDNSServer runs a throwaway UDP DNS responder and returns its address.
func startDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &dns.Server{PacketConn: pc, Handler: handler}
	go srv.ActivateAndServe()
	t.Cleanup(func() { srv.Shutdown() })

	return pc.LocalAddr().String()
}

func answerAnything(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	w.WriteMsg(m)
}

func TestProbe_CheckAgainstLiveServer(t *testing.T) {
	addr := startDNSServer(t, answerAnything)

	p := NewProbe(addr, "www.example.com", 5*time.Second)
	require.NoError(t, p.Check(context.Background()))
}

func TestProbe_CheckNXDOMAINStillCountsAsUp(t *testing.T) {
	addr := startDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(r, dns.RcodeNameError)
		w.WriteMsg(m)
	})

	p := NewProbe(addr, "definitely.not.a.domain", 5*time.Second)
	assert.NoError(t, p.Check(context.Background()), "any answer means the listener is up")
}

func TestProbe_CheckTimesOutAgainstDeadAddr(t *testing.T) {
	// A bound but unserved UDP port swallows the query.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	p := NewProbe(pc.LocalAddr().String(), "www.example.com", time.Second)
	p.QueryTimeout = 200 * time.Millisecond
	assert.Error(t, p.Check(context.Background()))
}

func TestProbe_WaitFailsWithinDeadline(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	p := NewProbe(pc.LocalAddr().String(), "www.example.com", 500*time.Millisecond)
	p.QueryTimeout = 100 * time.Millisecond

	start := time.Now()
	err = p.Wait(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProbe_WaitSucceedsImmediately(t *testing.T) {
	addr := startDNSServer(t, answerAnything)

	p := NewProbe(addr, "www.example.com", 5*time.Second)
	require.NoError(t, p.Wait(context.Background()))
}
