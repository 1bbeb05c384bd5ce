package common

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// dnsCache is a best-effort name→address map with a fixed TTL. It only
// exists to cut redundant resolver round-trips on outbound calls; stale
// entries self-heal on the next lookup after expiry.
type dnsCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]dnsEntry
}

type dnsEntry struct {
	addrs   []string
	expires time.Time
}

func newDNSCache(ttl time.Duration) *dnsCache {
	return &dnsCache{
		ttl:     ttl,
		entries: make(map[string]dnsEntry),
	}
}

func (d *dnsCache) lookup(ctx context.Context, host string) ([]string, error) {
	d.mu.RLock()
	entry, ok := d.entries[host]
	d.mu.RUnlock()

	if ok && time.Now().Before(entry.expires) {
		return entry.addrs, nil
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		// Serve the stale entry if there is one; the cache is an
		// optimization, not a source of truth.
		if ok {
			return entry.addrs, nil
		}
		return nil, err
	}

	d.mu.Lock()
	d.entries[host] = dnsEntry{addrs: addrs, expires: time.Now().Add(d.ttl)}
	d.mu.Unlock()

	return addrs, nil
}

// NewHTTPClient builds the process-wide outbound client. Dialing goes
// through the TTL'd DNS cache; everything else is a stock transport.
func NewHTTPClient(dnsTTL time.Duration) *http.Client {
	cache := newDNSCache(dnsTTL)
	dialer := &net.Dialer{Timeout: 5 * time.Second}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			if net.ParseIP(host) != nil {
				return dialer.DialContext(ctx, network, addr)
			}

			addrs, err := cache.lookup(ctx, host)
			if err != nil {
				return nil, err
			}

			var lastErr error
			for _, resolved := range addrs {
				conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(resolved, port))
				if dialErr == nil {
					return conn, nil
				}
				lastErr = dialErr
			}
			return nil, lastErr
		},
		MaxIdleConns:        20,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}
}
