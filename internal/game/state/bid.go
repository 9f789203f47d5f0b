package state

import (
	"slices"

	"github.com/palemoky/bop/internal/apperrors"
)

// MinimumBids 展示区每个位置当前的最低合法出价：本轮该位置最后出价 +2，无人出价为 1
func (s *SharedState) MinimumBids() []int {
	mins := make([]int, len(s.OnOffer))
	for slot := range mins {
		mins[slot] = 1
		if s.CurrentBidder(slot) >= 0 {
			mins[slot] = s.CurrentBid(slot) + 2
		}
	}
	return mins
}

// CurrentBid 本轮该位置最后一次出价金额，无人出价为 0
func (s *SharedState) CurrentBid(slot int) int {
	for i := len(s.TemporaryBids) - 1; i >= 0; i-- {
		if s.TemporaryBids[i].TargetItemIndex == slot {
			return s.TemporaryBids[i].BidAmount
		}
	}
	return 0
}

// CurrentBidder 本轮该位置最后出价的玩家，无人出价为 -1
func (s *SharedState) CurrentBidder(slot int) int {
	for i := len(s.TemporaryBids) - 1; i >= 0; i-- {
		if s.TemporaryBids[i].TargetItemIndex == slot {
			return s.TemporaryBids[i].PlayerIndex
		}
	}
	return -1
}

// CheckBid 校验 player 对 slot 出价 amount：不低于最低价，低于最低价时只能按 AllInSlots 押上全部金币
func (s *SharedState) CheckBid(player, slot, amount int) error {
	if slot < 0 || slot >= len(s.OnOffer) {
		return apperrors.ErrInvalidSlot
	}
	money := s.Players[player].Status.Money
	if amount > money {
		return apperrors.ErrInsufficientMoney
	}
	if amount >= s.MinimumBids()[slot] {
		return nil
	}
	if amount == money && slices.Contains(s.AllInSlots(player), slot) {
		return nil
	}
	return apperrors.ErrBidTooLow
}

// AllInSlots 金币低于所有最低价时可押上全部金币的位置
// 只开放无人出价的位置，已有出价不能被压低；每个位置都有人出价时全部开放，保证总有合法出价
func (s *SharedState) AllInSlots(player int) []int {
	mins := s.MinimumBids()
	if len(mins) == 0 || s.Players[player].Status.Money >= slices.Min(mins) {
		return nil
	}
	var open []int
	for slot := range mins {
		if s.CurrentBidder(slot) < 0 {
			open = append(open, slot)
		}
	}
	if len(open) > 0 {
		return open
	}
	all := make([]int, len(mins))
	for slot := range all {
		all[slot] = slot
	}
	return all
}
