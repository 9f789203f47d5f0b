package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/protocol"
)

func testItems() []item.Item {
	return item.FromKinds([]item.Kind{
		item.Dagger, item.Cure, item.LongSword, item.ChainMail, item.MagicBolt,
		item.Treasure, item.GainUp, item.LeatherArmour, item.Dagger, item.Excalibur,
	})
}

func newTestState() *SharedState {
	return New(Options{Names: []string{"alice", "bob"}, Items: testItems()})
}

// newStarted 双方同意开局并进入拍卖阶段
func newStarted(t *testing.T) *SharedState {
	t.Helper()
	s := newTestState()
	require.NoError(t, s.ApplyGameStartApproved(protocol.GameStartApprovedPayload{PlayerIndex: 0, Approved: true}))
	require.NoError(t, s.ApplyGameStartApproved(protocol.GameStartApprovedPayload{PlayerIndex: 1, Approved: true}))
	s.CheckPhaseComplete(false)
	require.Equal(t, Bid, s.Phase)
	return s
}

func bid(t *testing.T, s *SharedState, player, slot, amount int) {
	t.Helper()
	require.NoError(t, s.ApplyBid(protocol.BidPayload{
		SeqNo:           s.SeqNoToSend(),
		PlayerIndex:     player,
		TargetItemIndex: slot,
		BidAmount:       amount,
	}, false))
}

func useItem(t *testing.T, s *SharedState, player, index int, skipped, blocks bool) {
	t.Helper()
	require.NoError(t, s.ApplyUseItem(protocol.UseItemPayload{
		SeqNo:       s.SeqNoToSend(),
		Turn:        s.Turn,
		PlayerIndex: player,
		ItemIndex:   index,
		Skipped:     skipped,
		BlocksNext:  blocks,
	}, false))
}

func attack(t *testing.T, s *SharedState, player int, skipped bool) {
	t.Helper()
	require.NoError(t, s.ApplyAttackTarget(protocol.AttackTargetPayload{
		SeqNo:             s.SeqNoToSend(),
		Turn:              s.Turn,
		PlayerIndex:       player,
		TargetPlayerIndex: s.OpponentIndex(player),
		Skipped:           skipped,
	}, false, true))
}
