package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/protocol"
)

func TestCheckAndAdvanceSeq(t *testing.T) {
	t.Parallel()

	s := newTestState()
	assert.Equal(t, 1, s.SeqNoToSend())

	ok, err := s.CheckAndAdvanceSeq(1, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.ConsumedSeqNo)

	// Duplicate own echo is dropped silently
	ok, err = s.CheckAndAdvanceSeq(1, true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.ConsumedSeqNo)

	// Duplicate from the peer is fatal
	ok, err = s.CheckAndAdvanceSeq(1, false)
	assert.False(t, ok)
	var desync *apperrors.DesyncError
	require.True(t, errors.As(err, &desync))
	assert.Equal(t, 2, desync.Expected)
	assert.Equal(t, 1, desync.Got)

	// Gap is fatal too
	_, err = s.CheckAndAdvanceSeq(4, false)
	assert.Error(t, err)
	assert.Equal(t, 1, s.ConsumedSeqNo)
}

func TestCheckAndAdvanceSeq_Monotonic(t *testing.T) {
	t.Parallel()

	s := newTestState()
	prev := s.ConsumedSeqNo
	for _, tc := range []struct {
		seq int
		own bool
	}{{1, false}, {1, true}, {3, true}, {2, false}, {2, true}, {0, true}, {3, false}} {
		_, _ = s.CheckAndAdvanceSeq(tc.seq, tc.own)
		assert.GreaterOrEqual(t, s.ConsumedSeqNo, prev)
		prev = s.ConsumedSeqNo
	}
	assert.Equal(t, 3, s.ConsumedSeqNo)
}

func TestUpdateByMessage_DropsOwnEcho(t *testing.T) {
	t.Parallel()

	s := newStarted(t)
	msg := protocol.MustNewMessage(protocol.MsgBid, protocol.BidPayload{SeqNo: 1, PlayerIndex: 0, BidAmount: 1})

	require.NoError(t, s.UpdateByMessage(msg, true))
	assert.Len(t, s.TemporaryBids, 1)

	// 中继回显同一条消息
	require.NoError(t, s.UpdateByMessage(msg, true))
	assert.Len(t, s.TemporaryBids, 1)
	assert.Equal(t, 1, s.ConsumedSeqNo)
}

func TestUpdateByMessage_PeerDuplicateIsDesync(t *testing.T) {
	t.Parallel()

	s := newStarted(t)
	msg := protocol.MustNewMessage(protocol.MsgBid, protocol.BidPayload{SeqNo: 1, PlayerIndex: 1, BidAmount: 1})
	require.NoError(t, s.UpdateByMessage(msg, true))

	err := s.UpdateByMessage(msg, true)
	var desync *apperrors.DesyncError
	assert.True(t, errors.As(err, &desync))

	// 标记为补发时静默丢弃
	require.NoError(t, s.UpdateByMessage(msg.AsResend(), true))
}

func TestUpdateByMessage_Dispatch(t *testing.T) {
	t.Parallel()

	s := newTestState()
	s.OwnIndex = 1

	require.NoError(t, s.UpdateByMessage(protocol.MustNewMessage(protocol.MsgGameRule, protocol.GameRulePayload{
		HostPlayerName:   "host",
		HostPlayerIndex:  0,
		GuestPlayerName:  "guest",
		GuestPlayerIndex: 1,
		ItemKinds:        []item.Kind{item.Cure, item.Cure, item.Cure, item.Excalibur},
	}), false))
	assert.Equal(t, []string{"host", "guest"}, s.Names())
	assert.Len(t, s.Scheduled, 4)

	require.NoError(t, s.UpdateByMessage(protocol.MustNewMessage(protocol.MsgGameStartApproved,
		protocol.GameStartApprovedPayload{PlayerIndex: 0, Approved: true}), false))
	assert.True(t, s.Players[0].GameStartApproved)

	require.NoError(t, s.UpdateByMessage(protocol.MustNewMessage(protocol.MsgGameState,
		protocol.GameStatePayload{PlayerIndex: 0}), false))

	err := s.UpdateByMessage(&protocol.Message{Type: "nope"}, false)
	assert.Error(t, err)

	err = s.UpdateByMessage(&protocol.Message{Type: protocol.MsgBid, Payload: []byte("{")}, false)
	assert.Error(t, err)
}

func TestUpdateByMessage_AttackNotices(t *testing.T) {
	t.Parallel()

	s := newTestState()
	s.Phase = AttackTarget
	msg := protocol.MustNewMessage(protocol.MsgAttackTarget, protocol.AttackTargetPayload{
		SeqNo: 1, PlayerIndex: 0, TargetPlayerIndex: 1,
	})

	require.NoError(t, s.UpdateByMessage(msg, false))
	notices := s.DrainNotices()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "bob")
	assert.Empty(t, s.DrainNotices())

	skip := protocol.MustNewMessage(protocol.MsgAttackTarget, protocol.AttackTargetPayload{
		SeqNo: 2, PlayerIndex: 1, TargetPlayerIndex: 0, Skipped: true,
	})
	require.NoError(t, s.UpdateByMessage(skip, true))
	assert.Empty(t, s.DrainNotices())
	assert.Equal(t, 6, s.Players[1].Status.Money)
}

// 校验失败的消息不消费序号，也不留下历史
func TestApply_InvalidPayloads(t *testing.T) {
	t.Parallel()

	s := newStarted(t)

	err := s.ApplyBid(protocol.BidPayload{SeqNo: 1, PlayerIndex: 0, TargetItemIndex: 3}, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSlot)

	err = s.ApplyBid(protocol.BidPayload{SeqNo: 1, PlayerIndex: 2, TargetItemIndex: 0}, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTarget)

	err = s.ApplyUseItem(protocol.UseItemPayload{SeqNo: 1, PlayerIndex: 0, ItemIndex: 0}, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidItem)

	err = s.ApplyAttackTarget(protocol.AttackTargetPayload{SeqNo: 1, PlayerIndex: 0, TargetPlayerIndex: 0}, false, true)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTarget)

	assert.Equal(t, 0, s.ConsumedSeqNo)
	assert.Empty(t, s.TemporaryBids)
	assert.Empty(t, s.UseItemHistory)
	assert.Empty(t, s.AttackHistory)
	assert.Equal(t, 5, s.Players[0].Status.Money)

	// 同一序号的合法消息仍可应用
	bid(t, s, 0, 0, 1)
	assert.Equal(t, 1, s.ConsumedSeqNo)
}

func TestApplyGameRule(t *testing.T) {
	t.Parallel()

	kinds := []item.Kind{item.Chaos, item.Cure, item.Treasure, item.Dagger, item.Excalibur}

	// 开局后、出价前到达时重新上架
	s := newStarted(t)
	require.NoError(t, s.ApplyGameRule(protocol.GameRulePayload{ItemKinds: kinds}))
	assert.Equal(t, kinds[:3], item.Kinds(s.OnOffer))
	assert.Equal(t, kinds[3:], item.Kinds(s.Scheduled))

	// 出价后拒绝
	bid(t, s, 0, 0, 1)
	err := s.ApplyGameRule(protocol.GameRulePayload{ItemKinds: kinds})
	assert.ErrorIs(t, err, apperrors.ErrWrongPhase)
}

func TestResendSince(t *testing.T) {
	t.Parallel()

	s := newStarted(t)
	bid(t, s, 0, 0, 1) // 1
	bid(t, s, 1, 0, 3) // 2
	bid(t, s, 0, 1, 1) // 3
	s.CheckPhaseComplete(false)
	bid(t, s, 1, 0, 1) // 4 (temporary)

	s.Players[0].Inventory = item.FromKinds([]item.Kind{item.Cure})
	useItem(t, s, 0, 0, false, false) // 5
	attack(t, s, 1, true)             // 6

	msgs := s.ResendSince(1)
	require.Len(t, msgs, 5)
	wantTypes := []protocol.MessageType{
		protocol.MsgBid, protocol.MsgBid, protocol.MsgBid, protocol.MsgUseItem, protocol.MsgAttackTarget,
	}
	for i, m := range msgs {
		assert.Equal(t, wantTypes[i], m.Type)
		assert.True(t, m.Resend)
	}

	first, err := protocol.ParsePayload[protocol.BidPayload](msgs[0])
	require.NoError(t, err)
	assert.Equal(t, 2, first.SeqNo)
	assert.Equal(t, 3, first.BidAmount)

	assert.Nil(t, s.ResendSince(6))
	assert.Nil(t, s.ResendSince(10))
	assert.Len(t, s.ResendSince(0), 6)
}

// 补发消息可以让落后的一端追上
func TestResendSince_ReplayCatchesUp(t *testing.T) {
	t.Parallel()

	ahead := newStarted(t)
	behind := newStarted(t)
	behind.OwnIndex = 1

	bid(t, ahead, 0, 0, 1)
	bid(t, ahead, 1, 2, 1)
	ahead.CheckPhaseComplete(false)
	bid(t, ahead, 0, 1, 1)

	for _, m := range ahead.ResendSince(behind.ConsumedSeqNo) {
		data, err := m.Encode()
		require.NoError(t, err)
		decoded, err := protocol.Decode(data)
		require.NoError(t, err)
		require.NoError(t, behind.UpdateByMessage(decoded, true))
		behind.CheckPhaseComplete(true)
	}

	assert.Equal(t, ahead.ConsumedSeqNo, behind.ConsumedSeqNo)
	assert.Equal(t, ahead.Players[0].Status, behind.Players[0].Status)
	assert.Equal(t, item.Kinds(ahead.OnOffer), item.Kinds(behind.OnOffer))
	assert.Equal(t, ahead.TemporaryBids, behind.TemporaryBids)
	assert.Equal(t, ahead.Turn, behind.Turn)
}
