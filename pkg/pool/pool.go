// Package pool drives several msgr2 connections concurrently — one per
// cluster member a caller needs to reach (a set of monitors, or a set
// of OSDs) — while keeping each pkg/ceph.Client single-owner for the
// lifetime of its own goroutine, per the connection state machine's
// one-owner-at-a-time rule. It implements pkg/adminapi.StatusProvider
// so the admin HTTP surface can report on every pooled connection
// without importing this package's dial/retry machinery.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/marmos91/cephmsgr/internal/logger"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/adminapi"
	"github.com/marmos91/cephmsgr/pkg/ceph"
	"github.com/marmos91/cephmsgr/pkg/metrics"
)

// Target is one cluster member to dial: its address and the entity
// type this client should announce itself as talking to.
type Target struct {
	Name       string
	Addr       string
	EntityType wireaddr.EntityType
}

type entry struct {
	target Target
	client *ceph.Client
	err    error
}

// Pool holds one negotiated ceph.Client per Target, dialed
// concurrently with bounded parallelism, and exposes their live status.
type Pool struct {
	mu      sync.RWMutex
	entries map[string]*entry

	cfg            ceph.Config
	metrics        *metrics.ConnectionMetrics
	maxConcurrency int
}

// New builds an empty Pool. cfg is used to dial every Target; m may be
// nil. maxConcurrency bounds how many dials run at once; zero means
// unbounded.
func New(cfg ceph.Config, m *metrics.ConnectionMetrics, maxConcurrency int) *Pool {
	return &Pool{
		entries:        make(map[string]*entry),
		cfg:            cfg,
		metrics:        m,
		maxConcurrency: maxConcurrency,
	}
}

// Dial connects to every target concurrently, replacing any existing
// entry with the same name. It returns the combined error of every
// failed dial (via errors.Join), but always records an entry — failed
// or not — so Statuses still reports on every target afterward.
func (p *Pool) Dial(ctx context.Context, targets []Target) error {
	p.mu.Lock()
	for _, t := range targets {
		p.entries[t.Name] = &entry{target: t}
	}
	p.mu.Unlock()

	dialPool := pool.New().WithErrors().WithContext(ctx)
	if p.maxConcurrency > 0 {
		dialPool = dialPool.WithMaxGoroutines(p.maxConcurrency)
	}

	for _, t := range targets {
		t := t
		dialPool.Go(func(ctx context.Context) error {
			client, err := ceph.Dial(ctx, t.Addr, t.EntityType, p.cfg, p.metrics)

			p.mu.Lock()
			p.entries[t.Name] = &entry{target: t, client: client, err: err}
			p.mu.Unlock()

			if err != nil {
				logger.WarnCtx(ctx, "pool: dial failed", logger.Err(err), logger.PeerAddr(t.Addr))
				return fmt.Errorf("pool: dialing %s (%s): %w", t.Name, t.Addr, err)
			}
			return nil
		})
	}

	return dialPool.Wait()
}

// Client returns the negotiated connection for name, if Dial reached
// Active for it.
func (p *Pool) Client(name string) (*ceph.Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[name]
	if !ok || e.client == nil {
		return nil, false
	}
	return e.client, true
}

// Statuses implements pkg/adminapi.StatusProvider.
func (p *Pool) Statuses() []adminapi.ConnectionStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]adminapi.ConnectionStatus, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, entryStatus(e))
	}
	return out
}

func entryStatus(e *entry) adminapi.ConnectionStatus {
	switch {
	case e.client != nil:
		return adminapi.ConnectionStatus{PeerAddr: e.target.Addr, State: "active", Secure: e.client.Secure()}
	case e.err != nil:
		return adminapi.ConnectionStatus{PeerAddr: e.target.Addr, State: "failed"}
	default:
		return adminapi.ConnectionStatus{PeerAddr: e.target.Addr, State: "dialing"}
	}
}

// Close tears down every negotiated connection and returns the
// combined close error, if any.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for name, e := range p.entries {
		if e.client == nil {
			continue
		}
		if err := e.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pool: closing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
