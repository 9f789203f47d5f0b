package state

// ShiftTo 执行阶段切换及其副作用
func (s *SharedState) ShiftTo(next PhaseType) {
	switch next {
	case Bid:
		switch s.Phase {
		case GameStart:
			s.refill()
		case Bid:
			s.settle()
			s.Turn++
		case AttackTarget:
			s.archiveTemporaryBids()
			s.Turn++
		}
	case UseItem:
		switch s.Phase {
		case Bid:
			s.settle()
		case AttackTarget:
			s.Turn++
		}
	case AttackTarget:
		if s.Phase == AttackTarget {
			s.Turn++
		}
	case GameEnd:
		s.enterGameEnd()
		return
	}
	s.Phase = next
}

// settle 结算本轮出价：调整行动顺序，按位置从后往前把道具交给最后出价者
func (s *SharedState) settle() {
	s.swapInitiative()

	for slot := len(s.OnOffer) - 1; slot >= 0; slot-- {
		winner := -1
		for i := len(s.TemporaryBids) - 1; i >= 0; i-- {
			if s.TemporaryBids[i].TargetItemIndex == slot {
				winner = i
				break
			}
		}
		if winner < 0 {
			continue
		}
		bid := s.TemporaryBids[winner]
		attrs := &s.Players[bid.PlayerIndex].Status
		attrs.Money = max(attrs.Money-bid.BidAmount+attrs.EstimatedGain, 0)

		won := s.OnOffer[slot]
		s.OnOffer = append(s.OnOffer[:slot], s.OnOffer[slot+1:]...)
		s.Players[bid.PlayerIndex].Inventory = append(s.Players[bid.PlayerIndex].Inventory, won)
		s.addLog(LogEntry{Kind: LogBidWon, Player: bid.PlayerIndex, Item: won.Kind, Value: bid.BidAmount})
	}

	s.archiveTemporaryBids()
	s.refill()
}

// swapInitiative 次位玩家最后出价不低于首位时交换行动顺序
func (s *SharedState) swapInitiative() {
	if len(s.Initiatives) < 2 {
		return
	}
	_, lastBid := s.lastBids()
	first, second := s.Initiatives[0], s.Initiatives[1]
	if lastBid[first] < 0 || lastBid[second] < 0 {
		return
	}
	if s.TemporaryBids[lastBid[second]].BidAmount >= s.TemporaryBids[lastBid[first]].BidAmount {
		s.Initiatives[0], s.Initiatives[1] = second, first
		s.addLog(LogEntry{Kind: LogInitiativeChanged, Player: second})
	}
}

// archiveTemporaryBids 临时出价移入历史，补发时仍可查到
func (s *SharedState) archiveTemporaryBids() {
	s.BidHistory = append(s.BidHistory, s.TemporaryBids...)
	s.TemporaryBids = s.TemporaryBids[:0:0]
}

// refill 从待上架队列补满展示区
func (s *SharedState) refill() {
	for len(s.OnOffer) < OfferSize && len(s.Scheduled) > 0 {
		s.OnOffer = append(s.OnOffer, s.Scheduled[0])
		s.Scheduled = s.Scheduled[1:]
	}
}

func (s *SharedState) enterGameEnd() {
	if s.Phase == GameEnd {
		return
	}
	s.Phase = GameEnd
	winner, _ := s.Winner()
	s.addLog(LogEntry{Kind: LogGameEnd, Player: winner})
}
