package cpu

import (
	"fmt"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/state"
	"github.com/palemoky/bop/internal/protocol"
)

// BuildMessage 把选择的动作下标转换为对局消息
// Bid: 展示区位置；UseItem: 背包下标，等于背包长度表示跳过；AttackTarget: 0 攻击，1 跳过
func BuildMessage(s *state.SharedState, actor, index int) (*protocol.Message, error) {
	switch s.Phase {
	case state.Bid:
		if index < 0 || index >= len(s.OnOffer) {
			return nil, fmt.Errorf("cpu bid slot %d: %w", index, apperrors.ErrInvalidSlot)
		}
		return protocol.NewMessage(protocol.MsgBid, bidPayload(s, actor, index))
	case state.UseItem:
		if index < 0 || index > len(s.Players[actor].Inventory) {
			return nil, fmt.Errorf("cpu item %d: %w", index, apperrors.ErrInvalidItem)
		}
		return protocol.NewMessage(protocol.MsgUseItem, useItemPayload(s, actor, index))
	case state.AttackTarget:
		return protocol.NewMessage(protocol.MsgAttackTarget, attackPayload(s, actor, index))
	}
	return nil, fmt.Errorf("cpu in phase %v: %w", s.Phase, apperrors.ErrWrongPhase)
}

// bidPayload 按最低价出价，金币不足时押上全部金币
func bidPayload(s *state.SharedState, actor, slot int) protocol.BidPayload {
	amount := min(s.MinimumBids()[slot], s.Players[actor].Status.Money)
	return protocol.BidPayload{
		SeqNo:           s.SeqNoToSend(),
		PlayerIndex:     actor,
		TargetItemIndex: slot,
		BidAmount:       amount,
	}
}

func useItemPayload(s *state.SharedState, actor, index int) protocol.UseItemPayload {
	return protocol.UseItemPayload{
		SeqNo:       s.SeqNoToSend(),
		Turn:        s.Turn,
		PlayerIndex: actor,
		ItemIndex:   index,
		Skipped:     index == len(s.Players[actor].Inventory),
	}
}

func attackPayload(s *state.SharedState, actor, index int) protocol.AttackTargetPayload {
	return protocol.AttackTargetPayload{
		SeqNo:             s.SeqNoToSend(),
		Turn:              s.Turn,
		PlayerIndex:       actor,
		TargetPlayerIndex: s.OpponentIndex(actor),
		Skipped:           index == 1,
	}
}

// applyAction 模拟中直接应用动作，跳过编解码
func applyAction(s *state.SharedState, actor, index int) error {
	switch s.Phase {
	case state.Bid:
		return s.ApplyBid(bidPayload(s, actor, index), false)
	case state.UseItem:
		return s.ApplyUseItem(useItemPayload(s, actor, index), false)
	case state.AttackTarget:
		return s.ApplyAttackTarget(attackPayload(s, actor, index), false, true)
	}
	return apperrors.ErrWrongPhase
}
