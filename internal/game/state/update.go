package state

import (
	"fmt"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/protocol"
)

// UpdateByMessage 应用一条对局消息
// game_state 需要发送补发消息，由会话层处理，这里直接忽略
func (s *SharedState) UpdateByMessage(msg *protocol.Message, headless bool) error {
	switch msg.Type {
	case protocol.MsgGameStartApproved:
		p, err := protocol.ParsePayload[protocol.GameStartApprovedPayload](msg)
		if err != nil {
			return fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return s.ApplyGameStartApproved(*p)

	case protocol.MsgGameRule:
		p, err := protocol.ParsePayload[protocol.GameRulePayload](msg)
		if err != nil {
			return fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return s.ApplyGameRule(*p)

	case protocol.MsgBid:
		p, err := protocol.ParsePayload[protocol.BidPayload](msg)
		if err != nil {
			return fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return s.ApplyBid(*p, s.isOwnResend(p.PlayerIndex, msg))

	case protocol.MsgUseItem:
		p, err := protocol.ParsePayload[protocol.UseItemPayload](msg)
		if err != nil {
			return fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return s.ApplyUseItem(*p, s.isOwnResend(p.PlayerIndex, msg))

	case protocol.MsgAttackTarget:
		p, err := protocol.ParsePayload[protocol.AttackTargetPayload](msg)
		if err != nil {
			return fmt.Errorf("parse %s: %w", msg.Type, err)
		}
		return s.ApplyAttackTarget(*p, s.isOwnResend(p.PlayerIndex, msg), headless)

	case protocol.MsgGameState, protocol.MsgError:
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

// isOwnResend 自己发出的消息被中继回显，或对端补发的历史消息
func (s *SharedState) isOwnResend(playerIndex int, msg *protocol.Message) bool {
	return msg.Resend || playerIndex == s.OwnIndex
}

// ApplyGameStartApproved 记录开局同意
func (s *SharedState) ApplyGameStartApproved(p protocol.GameStartApprovedPayload) error {
	if !s.validPlayer(p.PlayerIndex) {
		return fmt.Errorf("game start approval from player %d: %w", p.PlayerIndex, apperrors.ErrInvalidTarget)
	}
	s.Players[p.PlayerIndex].GameStartApproved = p.Approved
	return nil
}

// ApplyGameRule 采用房主下发的座位名与牌堆，必须在首次出价之前到达
func (s *SharedState) ApplyGameRule(p protocol.GameRulePayload) error {
	if len(s.TemporaryBids) > 0 || len(s.BidHistory) > 0 {
		return fmt.Errorf("game rule after bidding started: %w", apperrors.ErrWrongPhase)
	}
	if s.validPlayer(p.HostPlayerIndex) && p.HostPlayerName != "" {
		s.Players[p.HostPlayerIndex].Name = p.HostPlayerName
	}
	if s.validPlayer(p.GuestPlayerIndex) && p.GuestPlayerName != "" {
		s.Players[p.GuestPlayerIndex].Name = p.GuestPlayerName
	}
	if len(p.ItemKinds) == 0 {
		return nil
	}
	s.Scheduled = item.FromKinds(p.ItemKinds)
	if s.Phase != GameStart {
		s.OnOffer = nil
		s.refill()
	}
	return nil
}

// ApplyBid 记录一次出价
func (s *SharedState) ApplyBid(p protocol.BidPayload, isOwnResend bool) error {
	ok, err := s.checkSeq(p.SeqNo, isOwnResend)
	if err != nil || !ok {
		return err
	}
	if !s.validPlayer(p.PlayerIndex) {
		return fmt.Errorf("bid seq %d: player %d: %w", p.SeqNo, p.PlayerIndex, apperrors.ErrInvalidTarget)
	}
	if p.TargetItemIndex < 0 || p.TargetItemIndex >= len(s.OnOffer) {
		return fmt.Errorf("bid seq %d: slot %d: %w", p.SeqNo, p.TargetItemIndex, apperrors.ErrInvalidSlot)
	}
	s.ConsumedSeqNo = p.SeqNo
	s.TemporaryBids = append(s.TemporaryBids, p)
	return nil
}

// ApplyUseItem 使用道具：从背包移除并执行效果
func (s *SharedState) ApplyUseItem(p protocol.UseItemPayload, isOwnResend bool) error {
	ok, err := s.checkSeq(p.SeqNo, isOwnResend)
	if err != nil || !ok {
		return err
	}
	if !s.validPlayer(p.PlayerIndex) {
		return fmt.Errorf("use_item seq %d: player %d: %w", p.SeqNo, p.PlayerIndex, apperrors.ErrInvalidTarget)
	}
	inv := s.Players[p.PlayerIndex].Inventory
	if !p.Skipped && (p.ItemIndex < 0 || p.ItemIndex >= len(inv)) {
		return fmt.Errorf("use_item seq %d: item %d: %w", p.SeqNo, p.ItemIndex, apperrors.ErrInvalidItem)
	}
	s.ConsumedSeqNo = p.SeqNo

	if !p.Skipped {
		used := inv[p.ItemIndex]
		s.Players[p.PlayerIndex].Inventory = append(inv[:p.ItemIndex], inv[p.ItemIndex+1:]...)
		used.Kind.Effect().Apply(s, p.PlayerIndex)
		s.addLog(LogEntry{Kind: LogUseItem, Player: p.PlayerIndex, Item: used.Kind})
	}
	s.UseItemHistory = append(s.UseItemHistory, p)
	return nil
}

// ApplyAttackTarget 攻击对手，或跳过并获得 1 金币
func (s *SharedState) ApplyAttackTarget(p protocol.AttackTargetPayload, isOwnResend, headless bool) error {
	ok, err := s.checkSeq(p.SeqNo, isOwnResend)
	if err != nil || !ok {
		return err
	}
	if !s.validPlayer(p.PlayerIndex) {
		return fmt.Errorf("attack seq %d: player %d: %w", p.SeqNo, p.PlayerIndex, apperrors.ErrInvalidTarget)
	}
	target := s.OpponentIndex(p.PlayerIndex)
	if !p.Skipped && p.TargetPlayerIndex != target {
		return fmt.Errorf("attack seq %d: target %d: %w", p.SeqNo, p.TargetPlayerIndex, apperrors.ErrInvalidTarget)
	}
	s.ConsumedSeqNo = p.SeqNo
	attacker := &s.Players[p.PlayerIndex]

	if p.Skipped {
		attacker.Status.Money++
		s.addLog(LogEntry{Kind: LogSkipAttack, Player: p.PlayerIndex, Value: 1})
		if !headless {
			s.notify("%s 放弃攻击，获得 1 金币", attacker.Name)
		}
	} else {
		defender := &s.Players[target]
		damage := defender.Status.DamageFrom(attacker.Status.Attack)
		defender.Status.UpdateCurrentHP(-damage)
		s.addLog(LogEntry{Kind: LogAttack, Player: p.PlayerIndex, Value: damage})
		if !headless {
			s.notify("%s 受到 %d 点伤害（剩余 HP: %d）", defender.Name, damage, defender.Status.CurrentHP)
		}
	}
	s.AttackHistory = append(s.AttackHistory, p)
	return nil
}
