package session

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/game/state"
)

// playHuman 用最简单的策略替真人操作一步
func playHuman(g *GameSession) error {
	snap := g.Snapshot()
	own := snap.Players[snap.OwnIndex]
	switch snap.Phase {
	case state.Bid:
		cheapest := 0
		for slot, o := range snap.Offer {
			if o.MinimumBid < snap.Offer[cheapest].MinimumBid {
				cheapest = slot
			}
		}
		amount := min(snap.Offer[cheapest].MinimumBid, own.Status.Money)
		return g.Bid(cheapest, amount)
	case state.UseItem:
		if len(own.Inventory) > 0 {
			return g.UseItem(0)
		}
		return g.SkipItem()
	case state.AttackTarget:
		return g.Attack()
	}
	return nil
}

func newCPUGame(t *testing.T, lb *Loopback) *GameSession {
	t.Helper()
	g := New(Config{
		UserID:   "me",
		Names:    []string{"me", "cpu"},
		Host:     true,
		HasCPU:   true,
		Items:    item.DefaultSet(rand.New(rand.NewPCG(3, 4))),
		Rollouts: 30,
		Seed:     11,
	}, lb)
	lb.Attach(g)
	return g
}

func TestLoopback_CPUGame(t *testing.T) {
	t.Parallel()

	lb := NewLoopback("me")
	g := newCPUGame(t, lb)
	require.NoError(t, g.Start())

	prevSeq := 0
	for range 3000 {
		lb.Drain()
		snap := g.Snapshot()
		require.GreaterOrEqual(t, snap.ConsumedSeqNo, prevSeq)
		prevSeq = snap.ConsumedSeqNo
		for _, p := range snap.Players {
			require.LessOrEqual(t, p.Status.CurrentHP, p.Status.MaxHP)
		}
		if snap.GameOver {
			break
		}
		require.False(t, snap.InputGuard, "phase %v seq %d", snap.Phase, snap.ConsumedSeqNo)
		require.NoError(t, playHuman(g))
	}

	require.NoError(t, g.Err())
	snap := g.Snapshot()
	assert.Greater(t, snap.ConsumedSeqNo, 2)
	// 电脑确实行动过
	assert.NotEmpty(t, snap.Log)
}

func TestLoopback_Run(t *testing.T) {
	t.Parallel()

	lb := NewLoopback("me")
	g := newCPUGame(t, lb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		lb.Run(ctx)
		close(done)
	}()

	require.NoError(t, g.Start())
	require.Eventually(t, func() bool {
		snap := g.Snapshot()
		return snap.Phase == state.Bid && !snap.InputGuard
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, g.Bid(0, 1))
	// 电脑出价后再次轮到自己
	require.Eventually(t, func() bool {
		return g.Snapshot().ConsumedSeqNo >= 2
	}, 10*time.Second, 10*time.Millisecond)

	lb.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loopback did not stop")
	}
	assert.ErrorIs(t, lb.EnqueueOutbound([]byte("{}")), ErrLoopbackClosed)
}

func TestLoopback_JoinReportsState(t *testing.T) {
	t.Parallel()

	lb := NewLoopback("me")
	g := newCPUGame(t, lb)
	require.NoError(t, g.Start())
	lb.Drain()
	require.NoError(t, playHuman(g))
	lb.Drain()
	before := g.Snapshot().ConsumedSeqNo
	require.Positive(t, before)

	// 自己重新加入时广播的 GameState 会被自己忽略
	require.NoError(t, lb.Join())
	lb.Drain()
	assert.Equal(t, before, g.Snapshot().ConsumedSeqNo)
	assert.NoError(t, g.Err())
}
