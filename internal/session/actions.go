package session

import (
	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/state"
	"github.com/palemoky/bop/internal/protocol"
)

// 本地操作只校验并入队，状态在中继回显后才更新

// checkTurn 校验阶段与输入锁
func (g *GameSession) checkTurn(phase state.PhaseType) error {
	if g.err != nil {
		return ErrClosed
	}
	s := g.state
	if s.Phase == state.GameEnd {
		return apperrors.ErrGameOver
	}
	if s.Phase != phase {
		return apperrors.ErrWrongPhase
	}
	if s.InputGuard {
		return apperrors.ErrNotYourTurn
	}
	return nil
}

// submit 发送后锁定输入，等待回显
func (g *GameSession) submit(t protocol.MessageType, payload any) error {
	g.keepAlive = true
	if err := g.send(t, payload); err != nil {
		return err
	}
	g.state.InputGuard = true
	return nil
}

// Bid 对展示区 slot 位置出价
func (g *GameSession) Bid(slot, amount int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(state.Bid); err != nil {
		return err
	}
	s := g.state
	if err := s.CheckBid(s.OwnIndex, slot, amount); err != nil {
		return err
	}

	return g.submit(protocol.MsgBid, protocol.BidPayload{
		SeqNo:           s.SeqNoToSend(),
		PlayerIndex:     s.OwnIndex,
		TargetItemIndex: slot,
		BidAmount:       amount,
	})
}

// UseItem 使用背包中第 index 件道具
func (g *GameSession) UseItem(index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(state.UseItem); err != nil {
		return err
	}
	s := g.state
	if index < 0 || index >= len(s.Players[s.OwnIndex].Inventory) {
		return apperrors.ErrInvalidItem
	}
	return g.submit(protocol.MsgUseItem, protocol.UseItemPayload{
		SeqNo:       s.SeqNoToSend(),
		Turn:        s.Turn,
		PlayerIndex: s.OwnIndex,
		ItemIndex:   index,
	})
}

// SkipItem 本回合不使用道具
func (g *GameSession) SkipItem() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(state.UseItem); err != nil {
		return err
	}
	s := g.state
	return g.submit(protocol.MsgUseItem, protocol.UseItemPayload{
		SeqNo:       s.SeqNoToSend(),
		Turn:        s.Turn,
		PlayerIndex: s.OwnIndex,
		ItemIndex:   len(s.Players[s.OwnIndex].Inventory),
		Skipped:     true,
	})
}

// Attack 攻击对手
func (g *GameSession) Attack() error {
	return g.attack(false)
}

// SkipAttack 放弃攻击，获得 1 金币
func (g *GameSession) SkipAttack() error {
	return g.attack(true)
}

func (g *GameSession) attack(skip bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(state.AttackTarget); err != nil {
		return err
	}
	s := g.state
	return g.submit(protocol.MsgAttackTarget, protocol.AttackTargetPayload{
		SeqNo:             s.SeqNoToSend(),
		Turn:              s.Turn,
		PlayerIndex:       s.OwnIndex,
		TargetPlayerIndex: s.OpponentIndex(s.OwnIndex),
		Skipped:           skip,
	})
}
