package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/bop/internal/game/item"
)

func TestMessage_EncodeDecode(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(MsgUseItem, UseItemPayload{SeqNo: 4, Turn: 2, PlayerIndex: 1, ItemIndex: 0})
	data, err := msg.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "resend")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MsgUseItem, decoded.Type)
	assert.False(t, decoded.Resend)

	payload, err := ParsePayload[UseItemPayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, 4, payload.SeqNo)
	assert.Equal(t, 1, payload.PlayerIndex)
}

func TestMessage_AsResend(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(MsgBid, BidPayload{SeqNo: 1})
	resent := msg.AsResend()
	assert.True(t, resent.Resend)
	assert.False(t, msg.Resend)

	data, err := resent.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.Resend)
}

func TestGameRulePayload_ItemKinds(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(MsgGameRule, GameRulePayload{
		HostPlayerName: "alice",
		ItemKinds:      []item.Kind{item.Cure, item.Excalibur},
	})
	assert.Contains(t, string(msg.Payload), `"excalibur"`)

	payload, err := ParsePayload[GameRulePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, []item.Kind{item.Cure, item.Excalibur}, payload.ItemKinds)
}

func TestMessageType_IsSequenced(t *testing.T) {
	t.Parallel()

	assert.True(t, MsgBid.IsSequenced())
	assert.True(t, MsgUseItem.IsSequenced())
	assert.True(t, MsgAttackTarget.IsSequenced())
	assert.False(t, MsgGameState.IsSequenced())
	assert.False(t, MsgGameRule.IsSequenced())
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(ErrCodeDesync)
	payload, err := ParsePayload[ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, ErrCodeDesync, payload.Code)
	assert.Equal(t, ErrorMessages[ErrCodeDesync], payload.Message)
}
