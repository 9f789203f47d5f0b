package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/testutil"
)

func TestMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first string
		later string
	}{
		{"smaller id requests first", "aaa", "bbb"},
		{"larger id requests first", "bbb", "aaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hub := &testutil.Hub{}
			first := NewMatcher(tt.first, "first", hub)
			hub.Add(first)
			require.NoError(t, first.Request())
			hub.Flush()

			later := NewMatcher(tt.later, "later", hub)
			hub.Add(later)
			require.NoError(t, later.Request())
			hub.Flush()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			a, err := first.Wait(ctx)
			require.NoError(t, err)
			b, err := later.Wait(ctx)
			require.NoError(t, err)

			assert.Equal(t, a.Channel, b.Channel)
			assert.True(t, strings.HasPrefix(a.Channel, "bop-"))
			assert.NotEqual(t, a.Host, b.Host)
			assert.Equal(t, 1, a.OwnIndex+b.OwnIndex)

			host, guest := a, b
			if b.Host {
				host, guest = b, a
			}
			assert.Equal(t, 0, host.OwnIndex)
			assert.Equal(t, "aaa", guest.OpponentID)
			assert.Equal(t, "bbb", host.OpponentID)
		})
	}
}

func TestMatcher_IgnoresOthers(t *testing.T) {
	t.Parallel()

	out := &testutil.MockEventSender{}
	m := NewMatcher("mmm", "me", out)

	// 自己的请求与发给别人的应答都忽略
	require.NoError(t, m.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventMatchRequest, Sender: "mmm"}))
	require.NoError(t, m.HandleEvent(&protocol.ChannelEvent{
		Kind: protocol.EventMatchResponse, Sender: "aaa",
		Payload: []byte(`{"channel":"x","host_id":"aaa","guest_id":"zzz"}`),
	}))
	out.AssertNotCalled(t, "SendEvent", mock.Anything)

	err := m.HandleEvent(&protocol.ChannelEvent{Kind: protocol.EventMatchResponse, Sender: "aaa", Payload: []byte("{")})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatcher_RepeatsRequestOnce(t *testing.T) {
	t.Parallel()

	out := &testutil.MockEventSender{}
	out.On("SendEvent", mock.Anything).Return(nil)
	m := NewMatcher("zzz", "me", out)

	req := &protocol.ChannelEvent{Kind: protocol.EventMatchRequest, Sender: "aaa", Payload: []byte("peer")}
	require.NoError(t, m.HandleEvent(req))
	require.NoError(t, m.HandleEvent(req))
	out.AssertNumberOfCalls(t, "SendEvent", 1)

	ev := out.Calls[0].Arguments.Get(0).(*protocol.ChannelEvent)
	assert.Equal(t, protocol.EventMatchRequest, ev.Kind)
	assert.Equal(t, "me", string(ev.Payload))
}
