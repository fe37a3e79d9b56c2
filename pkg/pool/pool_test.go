package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/ceph"
)

func TestPool_Dial_RecordsFailureStatusWithoutBlockingOtherTargets(t *testing.T) {
	// Nothing is listening on this port; dialing it should fail fast
	// and the pool should still record a status for it.
	unreachable := Target{Name: "mon.unreachable", Addr: "127.0.0.1:1", EntityType: wireaddr.EntityTypeMon}

	p := New(ceph.Config{}, nil, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Dial(ctx, []Target{unreachable})
	require.Error(t, err)

	statuses := p.Statuses()
	require.Len(t, statuses, 1)
	require.Equal(t, "failed", statuses[0].State)

	_, ok := p.Client("mon.unreachable")
	require.False(t, ok)
}

func TestPool_Statuses_ReportsDialingBeforeCompletion(t *testing.T) {
	// An entry with neither a client nor an error yet represents a dial
	// still in flight; Dial populates it this way before any goroutine
	// reports back.
	p := New(ceph.Config{}, nil, 4)
	target := Target{Name: "mon.a", Addr: "127.0.0.1:6789", EntityType: wireaddr.EntityTypeMon}

	p.mu.Lock()
	p.entries[target.Name] = &entry{target: target}
	p.mu.Unlock()

	statuses := p.Statuses()
	require.Len(t, statuses, 1)
	require.Equal(t, "dialing", statuses[0].State)
}
