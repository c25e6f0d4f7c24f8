package testutil

import (
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// StartDNSServer runs a miekg/dns UDP server on a loopback port that answers
// every A/AAAA query with a fixed record after delay. It is shut down when the
// test ends.
func StartDNSServer(t *testing.T, delay time.Duration) netip.AddrPort {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			time.Sleep(delay)
			m := new(dns.Msg)
			m.SetReply(r)
			if len(r.Question) > 0 && r.Question[0].Qtype == dns.TypeA {
				m.Answer = append(m.Answer, &dns.A{
					Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
					A:   net.IPv4(192, 0, 2, 1),
				})
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return netip.MustParseAddrPort(pc.LocalAddr().String())
}

// RawReply builds the datagrams a raw server sends back for one query.
type RawReply func(query *dns.Msg) [][]byte

// StartRawUDPServer answers each received datagram with whatever reply
// returns, byte for byte, so tests can send mismatched ids or garbage.
// Returning nil keeps the server silent.
func StartRawUDPServer(t *testing.T, reply RawReply) netip.AddrPort {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	go func() {
		buf := make([]byte, 1500)
		for {
			n, from, err := pc.ReadFrom(buf)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			var q dns.Msg
			if err := q.Unpack(buf[:n]); err != nil {
				continue
			}
			for _, d := range reply(&q) {
				_, _ = pc.WriteTo(d, from)
			}
		}
	}()

	return netip.MustParseAddrPort(pc.LocalAddr().String())
}

// PackReply packs a response to q with the given id.
func PackReply(t *testing.T, q *dns.Msg, id uint16) []byte {
	t.Helper()
	m := new(dns.Msg)
	m.SetReply(q)
	m.Id = id
	data, err := m.Pack()
	require.NoError(t, err)
	return data
}

// ClosedUDPAddr returns a loopback address with nothing listening on it.
func ClosedUDPAddr(t *testing.T) netip.AddrPort {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := netip.MustParseAddrPort(pc.LocalAddr().String())
	require.NoError(t, pc.Close())
	return addr
}
