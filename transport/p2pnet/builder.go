package p2pnet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"upmesh/transport"
	"upmesh/transport/bus"
	"upmesh/uri"
)

// Builder configures and constructs a NetworkTransport. The authority
// names the session scope; with no explicit bus, Build starts a
// GossipBus using the authority as the discovery rendezvous.
type Builder struct {
	authority   string
	substrate   bus.Bus
	listenAddrs []string
	bootstrap   []string
	mdns        bool
}

func NewBuilder(authority string) *Builder {
	return &Builder{authority: authority, mdns: true}
}

// WithBus injects a substrate instead of the default gossip bus. The
// caller keeps ownership; the transport's Close will not close it.
func (b *Builder) WithBus(s bus.Bus) *Builder {
	b.substrate = s
	return b
}

// WithListenAddrs sets the multiaddrs the gossip bus listens on.
func (b *Builder) WithListenAddrs(addrs ...string) *Builder {
	b.listenAddrs = addrs
	return b
}

// WithBootstrap sets peers the gossip bus dials at startup.
func (b *Builder) WithBootstrap(peers ...string) *Builder {
	b.bootstrap = peers
	return b
}

// WithMDNS toggles local peer discovery. Enabled by default.
func (b *Builder) WithMDNS(enabled bool) *Builder {
	b.mdns = enabled
	return b
}

// Build validates the configuration and opens the substrate session.
// It fails with ErrInvalidConfiguration before any partially usable
// transport exists.
func (b *Builder) Build(ctx context.Context) (*NetworkTransport, error) {
	if b.authority == "" {
		return nil, fmt.Errorf("%w: empty authority", transport.ErrInvalidConfiguration)
	}
	substrate := b.substrate
	ownsBus := false
	if substrate == nil {
		gb, err := bus.NewGossipBus(ctx, bus.GossipOptions{
			ListenAddrs: b.listenAddrs,
			Bootstrap:   b.bootstrap,
			Rendezvous:  b.authority,
			EnableMDNS:  b.mdns,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", transport.ErrInvalidConfiguration, err)
		}
		substrate = gb
		ownsBus = true
	}
	return &NetworkTransport{
		authority: b.authority,
		substrate: substrate,
		ownsBus:   ownsBus,
		registry:  transport.NewListenerRegistry(),
		group:     new(errgroup.Group),
		subs:      make(map[uri.UUri]func()),
	}, nil
}
