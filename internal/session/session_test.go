package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/game/state"
	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/testutil"
)

func testItems() []item.Item {
	return item.FromKinds([]item.Kind{
		item.Dagger, item.Cure, item.LongSword, item.ChainMail, item.MagicBolt,
		item.Treasure, item.GainUp, item.LeatherArmour, item.Dagger, item.Excalibur,
	})
}

func messageEvent(t *testing.T, sender string, msg *protocol.Message) *protocol.ChannelEvent {
	t.Helper()
	data, err := msg.Encode()
	require.NoError(t, err)
	return &protocol.ChannelEvent{Kind: protocol.EventMessage, Sender: sender, Payload: data}
}

// echo 把记录下来的出站消息回灌给会话，模拟中继回显
func echo(t *testing.T, g *GameSession, rec *testutil.RecordingOutbound, sender string) {
	t.Helper()
	for _, m := range rec.Take() {
		require.NoError(t, g.HandleEvent(messageEvent(t, sender, m)))
	}
}

// newPair 通过内存中继连接的房主与客人，已进入拍卖阶段
func newPair(t *testing.T) (hub *testutil.Hub, host, guest *GameSession) {
	t.Helper()
	hub = &testutil.Hub{}
	host = New(Config{
		UserID: "host", Names: []string{"alice", "bob"}, OwnIndex: 0,
		Host: true, Matched: true, Items: testItems(),
	}, hub.Outbound("host"))
	guest = New(Config{
		UserID: "guest", Names: []string{"alice", "bob"}, OwnIndex: 1,
		Matched: true,
	}, hub.Outbound("guest"))
	hub.Add(host)
	hub.Add(guest)

	require.NoError(t, host.Start())
	require.NoError(t, guest.Start())
	hub.Flush()

	require.Equal(t, state.Bid, host.Snapshot().Phase)
	require.Equal(t, state.Bid, guest.Snapshot().Phase)
	return hub, host, guest
}

// actor 返回需要行动的会话
func actor(t *testing.T, host, guest *GameSession) (*GameSession, *GameSession) {
	t.Helper()
	switch host.RequiredActor() {
	case 0:
		return host, guest
	case 1:
		return guest, host
	}
	t.Fatal("nobody to act")
	return nil, nil
}

func TestStart_HostSendsRuleThenApproval(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingOutbound{}
	g := New(Config{UserID: "u", Host: true, Matched: true, Items: testItems()}, rec)
	require.NoError(t, g.Start())
	assert.Equal(t, []protocol.MessageType{protocol.MsgGameRule, protocol.MsgGameStartApproved}, rec.Types())

	rule, err := protocol.ParsePayload[protocol.GameRulePayload](rec.Sent[0])
	require.NoError(t, err)
	assert.Equal(t, item.Kinds(testItems()), rule.ItemKinds)

	// 客人等收到牌堆后才同意开局
	guestRec := &testutil.RecordingOutbound{}
	guest := New(Config{UserID: "v", OwnIndex: 1, Matched: true}, guestRec)
	require.NoError(t, guest.Start())
	assert.Empty(t, guestRec.Sent)

	require.NoError(t, guest.HandleEvent(messageEvent(t, "u", rec.Sent[0])))
	assert.Equal(t, []protocol.MessageType{protocol.MsgGameStartApproved}, guestRec.Types())
}

func TestPair_ReplaysSameState(t *testing.T) {
	t.Parallel()

	hub, host, guest := newPair(t)
	assert.Equal(t, host.Snapshot().Offer, guest.Snapshot().Offer)

	for range 4 {
		a, _ := actor(t, host, guest)
		snap := a.Snapshot()
		slot := snap.OwnIndex % len(snap.Offer)
		require.NoError(t, a.Bid(slot, snap.Offer[slot].MinimumBid))
		hub.Flush()
	}

	hs, gs := host.Snapshot(), guest.Snapshot()
	assert.Equal(t, hs.ConsumedSeqNo, gs.ConsumedSeqNo)
	assert.Equal(t, 4, hs.ConsumedSeqNo)
	assert.Equal(t, hs.Players, gs.Players)
	assert.Equal(t, hs.Offer, gs.Offer)
	assert.Equal(t, hs.Turn, gs.Turn)
	assert.NoError(t, host.Err())
	assert.NoError(t, guest.Err())
}

func TestPair_RejoinCatchesUp(t *testing.T) {
	t.Parallel()

	hub, host, guest := newPair(t)
	for range 2 {
		a, _ := actor(t, host, guest)
		snap := a.Snapshot()
		require.NoError(t, a.Bid(snap.OwnIndex, snap.Offer[snap.OwnIndex].MinimumBid))
		hub.Flush()
	}
	require.Equal(t, 2, guest.Snapshot().ConsumedSeqNo)

	a, other := actor(t, host, guest)
	otherID := map[*GameSession]string{host: "host", guest: "guest"}[other]
	hub.SetOnline(other, otherID, false)
	snap := a.Snapshot()
	require.NoError(t, a.Bid(0, snap.Offer[0].MinimumBid))
	hub.Flush()
	require.Equal(t, 2, other.Snapshot().ConsumedSeqNo)

	hub.SetOnline(other, otherID, true)
	hub.Flush()

	assert.Equal(t, 3, other.Snapshot().ConsumedSeqNo)
	assert.Equal(t, a.Snapshot().Offer, other.Snapshot().Offer)
	assert.NoError(t, a.Err())
	assert.NoError(t, other.Err())
}

func TestLateGuest_ReceivesRule(t *testing.T) {
	t.Parallel()

	hub := &testutil.Hub{}
	host := New(Config{UserID: "host", Host: true, Matched: true, Items: testItems()}, hub.Outbound("host"))
	hub.Add(host)
	require.NoError(t, host.Start())
	hub.Flush()

	guest := New(Config{UserID: "guest", OwnIndex: 1, Matched: true}, hub.Outbound("guest"))
	hub.Add(guest)
	hub.SetOnline(guest, "guest", true)
	hub.Flush()

	assert.Equal(t, state.Bid, guest.Snapshot().Phase)
	assert.Equal(t, host.Snapshot().Offer, guest.Snapshot().Offer)
	assert.True(t, guest.Snapshot().Players[1].Approved)
}

func TestLocalActions_Validation(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingOutbound{}
	g := New(Config{UserID: "u", Host: true, Matched: true, Items: testItems()}, rec)

	assert.ErrorIs(t, g.Bid(0, 1), apperrors.ErrWrongPhase)

	require.NoError(t, g.Start())
	echo(t, g, rec, "u")
	require.Equal(t, state.Bid, g.Snapshot().Phase)
	require.False(t, g.Snapshot().InputGuard)

	tests := []struct {
		name   string
		slot   int
		amount int
		want   error
	}{
		{"invalid slot", 5, 1, apperrors.ErrInvalidSlot},
		{"negative slot", -1, 1, apperrors.ErrInvalidSlot},
		{"too low", 0, 0, apperrors.ErrBidTooLow},
		{"too much", 0, 6, apperrors.ErrInsufficientMoney},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, g.Bid(tt.slot, tt.amount), tt.want, tt.name)
	}
	assert.ErrorIs(t, g.UseItem(0), apperrors.ErrWrongPhase)
	assert.ErrorIs(t, g.Attack(), apperrors.ErrWrongPhase)

	require.NoError(t, g.Bid(1, 2))
	sent := rec.Take()
	require.Len(t, sent, 1)
	p, err := protocol.ParsePayload[protocol.BidPayload](sent[0])
	require.NoError(t, err)
	assert.Equal(t, protocol.BidPayload{SeqNo: 1, PlayerIndex: 0, TargetItemIndex: 1, BidAmount: 2}, *p)

	// 等待回显期间不能重复操作
	assert.ErrorIs(t, g.Bid(0, 1), apperrors.ErrNotYourTurn)
	assert.True(t, g.TakeKeepAlive())
	assert.False(t, g.TakeKeepAlive())
}

func TestBid_AllInWhenBroke(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingOutbound{}
	g := New(Config{UserID: "u", Host: true, Matched: true, Items: testItems()}, rec)
	require.NoError(t, g.Start())
	echo(t, g, rec, "u")

	g.state.Players[0].Status.Money = 0
	require.NoError(t, g.Bid(2, 0))

	g.state.InputGuard = false
	g.state.Players[0].Status.Money = 1
	assert.ErrorIs(t, g.Bid(2, 0), apperrors.ErrBidTooLow)
}

func TestBid_BrokePlayerCannotUndercutLiveBid(t *testing.T) {
	t.Parallel()

	hub, host, guest := newPair(t)
	first, second := actor(t, host, guest)
	require.NoError(t, first.Bid(0, 5))
	hub.Flush()

	require.Equal(t, second.Snapshot().OwnIndex, second.RequiredActor())
	second.state.Players[second.state.OwnIndex].Status.Money = 0

	assert.ErrorIs(t, second.Bid(0, 0), apperrors.ErrBidTooLow)
	assert.Empty(t, second.state.TemporaryBids[1:])
	assert.Equal(t, 7, first.Snapshot().Offer[0].MinimumBid)

	// 无人出价的位置仍可押上全部金币
	require.NoError(t, second.Bid(1, 0))
	hub.Flush()
	assert.NoError(t, first.Err())
	assert.NoError(t, second.Err())
}

func TestHandleEvent_DesyncIsLatched(t *testing.T) {
	t.Parallel()

	rec := &testutil.RecordingOutbound{}
	g := New(Config{UserID: "u", Host: true, Matched: true, Items: testItems()}, rec)
	require.NoError(t, g.Start())
	echo(t, g, rec, "u")

	bad := protocol.MustNewMessage(protocol.MsgBid, protocol.BidPayload{SeqNo: 5, PlayerIndex: 1, BidAmount: 1})
	err := g.HandleEvent(messageEvent(t, "peer", bad))
	var desync *apperrors.DesyncError
	require.True(t, errors.As(err, &desync))
	assert.Equal(t, 1, desync.Expected)

	assert.ErrorAs(t, g.Err(), &desync)
	assert.Equal(t, []protocol.MessageType{protocol.MsgError}, rec.Types())
	assert.ErrorIs(t, g.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventJoin, Sender: "peer"}), ErrClosed)
	assert.ErrorIs(t, g.Bid(0, 1), ErrClosed)
}

func TestHandleEvent_PeerErrorBecomesNotice(t *testing.T) {
	t.Parallel()

	g := New(Config{UserID: "u"}, &testutil.RecordingOutbound{})
	errMsg := protocol.NewErrorMessage(protocol.ErrCodeDesync)

	require.NoError(t, g.HandleEvent(messageEvent(t, "u", errMsg)))
	assert.Empty(t, g.DrainNotices())

	require.NoError(t, g.HandleEvent(messageEvent(t, "peer", errMsg)))
	assert.Equal(t, []string{"对手: " + protocol.ErrorMessages[protocol.ErrCodeDesync]}, g.DrainNotices())
	assert.NoError(t, g.Err())
}

func TestHandleEvent_OwnRejoinReportsState(t *testing.T) {
	t.Parallel()

	out := &testutil.MockOutbound{}
	out.On("EnqueueOutbound", mock.Anything).Return(nil)

	g := New(Config{UserID: "u", OwnIndex: 1, Matched: true}, out)
	require.NoError(t, g.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventJoin, Sender: "u"}))
	out.AssertNotCalled(t, "EnqueueOutbound", mock.Anything)

	g.state.ConsumedSeqNo = 3
	require.NoError(t, g.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventJoin, Sender: "u"}))
	out.AssertNumberOfCalls(t, "EnqueueOutbound", 1)

	msg, err := protocol.Decode(out.Calls[0].Arguments.Get(0).([]byte))
	require.NoError(t, err)
	p, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.GameStatePayload{PlayerIndex: 1, LastConsumedSeqNo: 3}, *p)
}

func TestHandleEvent_OutboundFailure(t *testing.T) {
	t.Parallel()

	out := &testutil.MockOutbound{}
	out.On("EnqueueOutbound", mock.Anything).Return(errors.New("buffer full"))

	g := New(Config{UserID: "u", Host: true, Items: testItems()}, out)
	err := g.Start()
	assert.ErrorContains(t, err, "buffer full")
}

func TestHandleEvent_BadPayloadNotLatched(t *testing.T) {
	t.Parallel()

	g := New(Config{UserID: "u"}, &testutil.RecordingOutbound{})
	err := g.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventMessage, Sender: "x", Payload: []byte("{")})
	assert.Error(t, err)
	assert.NoError(t, g.Err())
}

func TestOnUpdate(t *testing.T) {
	t.Parallel()

	g := New(Config{UserID: "u"}, &testutil.RecordingOutbound{})
	calls := 0
	g.OnUpdate(func() { calls++ })
	require.NoError(t, g.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventLeft, Sender: "peer"}))
	require.NoError(t, g.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventLeft, Sender: "u"}))
	assert.Equal(t, 2, calls)
	assert.Len(t, g.DrainNotices(), 1)
	assert.Empty(t, g.DrainNotices())
}
