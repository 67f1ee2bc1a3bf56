package rower

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

// Resolver turns a hostname into an address.
//
// Implementations are called on the request critical path, on address
// cache misses only.
type Resolver interface {
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, host string) (netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	return f(ctx, host)
}

// SystemResolver resolves through the operating system, preferring IPv4
// addresses when a host has both families.
type SystemResolver struct {
	// Resolver defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

func (r *SystemResolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, ok := literalAddr(host); ok {
		return addr, nil
	}

	res := r.Resolver
	if res == nil {
		res = net.DefaultResolver
	}

	addrs, err := res.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, err
	}
	return pickAddr(addrs)
}

// DNSResolver queries a single DNS server for A then AAAA records.
type DNSResolver struct {
	server string
	client *dns.Client
}

// NewDNSResolver targets server, given as host or host:port.
func NewDNSResolver(server string) (*DNSResolver, error) {
	if server == "" {
		return nil, fmt.Errorf("empty DNS server")
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(strings.Trim(server, "[]"), "53")
	}

	return &DNSResolver{
		server: server,
		client: &dns.Client{Timeout: 5 * time.Second},
	}, nil
}

// Server returns the host:port queried.
func (r *DNSResolver) Server() string {
	return r.server
}

func (r *DNSResolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, ok := literalAddr(host); ok {
		return addr, nil
	}

	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addr, err := r.query(ctx, host, qtype)
		if err == nil {
			return addr, nil
		}
		lastErr = err
	}
	return netip.Addr{}, lastErr
}

func (r *DNSResolver) query(ctx context.Context, host string, qtype uint16) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return netip.Addr{}, err
	}
	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("%s lookup of %s: %s",
			dns.TypeToString[qtype], host, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		var ip net.IP
		switch rec := rr.(type) {
		case *dns.A:
			ip = rec.A
		case *dns.AAAA:
			ip = rec.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: no %s record for %s", ErrNoAddress, dns.TypeToString[qtype], host)
}

func literalAddr(host string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func pickAddr(addrs []netip.Addr) (netip.Addr, error) {
	if len(addrs) == 0 {
		return netip.Addr{}, ErrNoAddress
	}
	for _, addr := range addrs {
		if addr.Unmap().Is4() {
			return addr.Unmap(), nil
		}
	}
	return addrs[0], nil
}

// normalizeHost converts internationalized names to their ASCII form, so
// that the cache sees a single spelling per host. Names idna rejects are
// kept as typed.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if _, ok := literalAddr(host); ok {
		return strings.Trim(host, "[]")
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return strings.ToLower(host)
	}
	return ascii
}
