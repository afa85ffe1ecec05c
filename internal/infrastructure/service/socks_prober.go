package service

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/btcsuite/go-socks/socks"

	vo "ikedadada/go-onionctl/internal/domain/value_object"
)

// SocksProber checks that a published service answers through the daemon's
// SOCKS port. Descriptor propagation can take a while after publication, so
// callers usually retry.
type SocksProber struct {
	proxy  *socks.Proxy
	dial   func(network, addr string) (net.Conn, error)
	logger *slog.Logger
}

// NewSocksProber probes through the SOCKS5 proxy at proxyAddr. Each probe
// gets its own circuit.
func NewSocksProber(proxyAddr string, logger *slog.Logger) *SocksProber {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &socks.Proxy{Addr: proxyAddr, TorIsolation: true}
	return &SocksProber{proxy: p, dial: p.Dial, logger: logger}
}

// Probe opens and closes one stream to addr.
func (p *SocksProber) Probe(ctx context.Context, addr vo.OnionAddress) error {
	type result struct {
		conn net.Conn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		c, err := p.dial("tcp", addr.String())
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("probe %s via %s: %w", addr, p.proxy.Addr, r.err)
		}
		r.conn.Close()
		p.logger.Info("onion service reachable", "address", addr.String())
		return nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.conn != nil {
				r.conn.Close()
			}
		}()
		return ctx.Err()
	}
}
