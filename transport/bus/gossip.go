package bus

import (
	"context"
	"fmt"
	"log"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	mdns "github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
	"golang.org/x/sync/errgroup"
)

// GossipOptions configures the libp2p-backed bus.
type GossipOptions struct {
	// ListenAddrs are multiaddrs to listen on. Defaults to an ephemeral
	// TCP port on all interfaces.
	ListenAddrs []string
	// Bootstrap peers are dialed at startup; dial failures are logged,
	// not fatal.
	Bootstrap []string
	// Rendezvous names the mDNS discovery scope. Peers only find each
	// other when they share it.
	Rendezvous string
	EnableMDNS bool
}

// GossipBus carries substrate messages between processes over libp2p
// gossipsub. Messages published while no peer session is established are
// lost, not retried.
type GossipBus struct {
	cancel context.CancelFunc
	group  *errgroup.Group
	gctx   context.Context

	host host.Host
	ps   *pubsub.PubSub

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

func NewGossipBus(parent context.Context, opts GossipOptions) (*GossipBus, error) {
	ctx, cancel := context.WithCancel(parent)

	addrs := make([]ma.Multiaddr, 0, len(opts.ListenAddrs))
	for _, s := range opts.ListenAddrs {
		if s == "" {
			continue
		}
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("invalid listen multiaddr %q: %w", s, err)
		}
		addrs = append(addrs, a)
	}
	if len(addrs) == 0 {
		a, _ := ma.NewMultiaddr("/ip4/0.0.0.0/tcp/0")
		addrs = append(addrs, a)
	}

	h, err := libp2p.New(libp2p.ListenAddrs(addrs...))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create host: %w", err)
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		_ = h.Close()
		cancel()
		return nil, fmt.Errorf("create gossipsub: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	b := &GossipBus{
		cancel: cancel,
		group:  group,
		gctx:   gctx,
		host:   h,
		ps:     ps,
		topics: make(map[string]*pubsub.Topic),
	}

	if opts.EnableMDNS {
		svc := mdns.NewMdnsService(h, opts.Rendezvous, &mdnsNotifee{host: h})
		if err := svc.Start(); err != nil {
			log.Printf("bus: mdns start error: %v", err)
		}
	}
	for _, raw := range opts.Bootstrap {
		if raw == "" {
			continue
		}
		addr, err := ma.NewMultiaddr(raw)
		if err != nil {
			log.Printf("bus: skip bootstrap addr %q: %v", raw, err)
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			log.Printf("bus: skip bootstrap addr %q: %v", raw, err)
			continue
		}
		if err := h.Connect(ctx, *info); err != nil {
			log.Printf("bus: bootstrap connect failed %s: %v", info.ID, err)
		} else {
			log.Printf("bus: connected bootstrap peer %s", info.ID)
		}
	}

	return b, nil
}

func (b *GossipBus) Publish(topic string, payload []byte) error {
	t, err := b.getOrJoinTopic(topic)
	if err != nil {
		return err
	}
	return t.Publish(b.gctx, payload)
}

func (b *GossipBus) Subscribe(topic string) (<-chan Message, func(), error) {
	t, err := b.getOrJoinTopic(topic)
	if err != nil {
		return nil, nil, err
	}
	sub, err := t.Subscribe()
	if err != nil {
		return nil, nil, err
	}

	out := make(chan Message, 64)
	subCtx, subCancel := context.WithCancel(b.gctx)
	b.group.Go(func() error {
		defer close(out)
		for {
			msg, err := sub.Next(subCtx)
			if err != nil {
				return nil
			}
			select {
			case out <- Message{Topic: topic, Payload: append([]byte(nil), msg.Data...)}:
			default:
			}
		}
	})

	cancel := func() {
		subCancel()
		sub.Cancel()
	}
	return out, cancel, nil
}

// Close stops every subscription pump, leaves all joined topics and
// shuts the libp2p host down.
func (b *GossipBus) Close() error {
	b.cancel()
	_ = b.group.Wait()
	b.mu.Lock()
	for name, t := range b.topics {
		_ = t.Close()
		delete(b.topics, name)
	}
	b.mu.Unlock()
	return b.host.Close()
}

// PeerID returns the host's peer identity, usable in bootstrap addrs.
func (b *GossipBus) PeerID() string {
	return b.host.ID().String()
}

// ListenAddrs returns the full dialable multiaddrs of this host.
func (b *GossipBus) ListenAddrs() []string {
	out := make([]string, 0, len(b.host.Addrs()))
	for _, addr := range b.host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", addr.String(), b.host.ID().String()))
	}
	return out
}

// ConnectedPeers lists the ids of currently connected peers.
func (b *GossipBus) ConnectedPeers() []string {
	peers := b.host.Network().Peers()
	out := make([]string, 0, len(peers))
	for _, pid := range peers {
		out = append(out, pid.String())
	}
	return out
}

func (b *GossipBus) getOrJoinTopic(name string) (*pubsub.Topic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.topics[name]; ok {
		return t, nil
	}
	t, err := b.ps.Join(name)
	if err != nil {
		return nil, err
	}
	b.topics[name] = t
	return t, nil
}

type mdnsNotifee struct {
	host host.Host
}

func (n *mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	if err := n.host.Connect(context.Background(), info); err != nil {
		log.Printf("bus: mdns connect failed %s: %v", info.ID, err)
	}
}
