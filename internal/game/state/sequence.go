package state

import (
	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/protocol"
)

// SeqNoToSend 下一条游戏操作应携带的序号
func (s *SharedState) SeqNoToSend() int {
	return s.ConsumedSeqNo + 1
}

// CheckAndAdvanceSeq 校验并推进已消费序号
// 序号不连续时：自己的补发消息静默丢弃，其余情况视为不可恢复的分叉
func (s *SharedState) CheckAndAdvanceSeq(seqNo int, isOwnResend bool) (bool, error) {
	ok, err := s.checkSeq(seqNo, isOwnResend)
	if ok {
		s.ConsumedSeqNo = seqNo
	}
	return ok, err
}

// checkSeq 只校验不推进，消息内容校验通过后再推进序号
func (s *SharedState) checkSeq(seqNo int, isOwnResend bool) (bool, error) {
	if seqNo != s.ConsumedSeqNo+1 {
		if isOwnResend {
			return false, nil
		}
		return false, &apperrors.DesyncError{Expected: s.ConsumedSeqNo + 1, Got: seqNo}
	}
	return true, nil
}

// ResendSince 按序号升序返回 (lastConsumed, ConsumedSeqNo] 区间内保存的全部游戏操作
// 每条消息都标记为补发
func (s *SharedState) ResendSince(lastConsumed int) []*protocol.Message {
	if lastConsumed >= s.ConsumedSeqNo {
		return nil
	}
	bySeq := make(map[int]*protocol.Message, s.ConsumedSeqNo-lastConsumed)
	inRange := func(seq int) bool { return seq > lastConsumed && seq <= s.ConsumedSeqNo }

	for _, b := range s.BidHistory {
		if inRange(b.SeqNo) {
			bySeq[b.SeqNo] = protocol.MustNewMessage(protocol.MsgBid, b)
		}
	}
	for _, b := range s.TemporaryBids {
		if inRange(b.SeqNo) {
			bySeq[b.SeqNo] = protocol.MustNewMessage(protocol.MsgBid, b)
		}
	}
	for _, u := range s.UseItemHistory {
		if inRange(u.SeqNo) {
			bySeq[u.SeqNo] = protocol.MustNewMessage(protocol.MsgUseItem, u)
		}
	}
	for _, a := range s.AttackHistory {
		if inRange(a.SeqNo) {
			bySeq[a.SeqNo] = protocol.MustNewMessage(protocol.MsgAttackTarget, a)
		}
	}

	msgs := make([]*protocol.Message, 0, len(bySeq))
	for seq := lastConsumed + 1; seq <= s.ConsumedSeqNo; seq++ {
		if m, ok := bySeq[seq]; ok {
			m.Resend = true
			msgs = append(msgs, m)
		}
	}
	return msgs
}
