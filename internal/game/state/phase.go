package state

// PhaseType 对局阶段
type PhaseType int

const (
	GameStart PhaseType = iota
	Bid
	UseItem
	AttackTarget
	GameEnd
)

var phaseNames = map[PhaseType]string{
	GameStart:    "GameStart",
	Bid:          "Bid",
	UseItem:      "UseItem",
	AttackTarget: "AttackTarget",
	GameEnd:      "GameEnd",
}

func (p PhaseType) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// CheckResult 阶段检查结果
type CheckResult struct {
	Complete         bool
	Next             PhaseType
	HasNext          bool
	RequiresOwnInput bool
	Actor            int // RequiresOwnInput 为 true 时需要行动的玩家
}

func complete(next PhaseType) CheckResult {
	return CheckResult{Complete: true, Next: next, HasNext: true, Actor: -1}
}

func waitFor(required bool, actor int) CheckResult {
	if !required {
		actor = -1
	}
	return CheckResult{RequiresOwnInput: required, Actor: actor}
}

// CheckPhaseComplete 推进状态机直到到达终局或某位玩家需要输入
// 仅操控一名玩家时（有 CPU 或已匹配）只检查自己，否则依次代入每名玩家
// 注意: 会修改 OwnIndex 为最后检查的玩家
func (s *SharedState) CheckPhaseComplete(isMatched bool) CheckResult {
	result := waitFor(false, -1)
	for idx := range s.Players {
		if (s.HasCPU || isMatched) && idx != s.OwnIndex {
			continue
		}
		s.OwnIndex = idx
		for {
			result = s.checkPhase()
			if !result.Complete {
				break
			}
			if result.Next == GameEnd {
				s.enterGameEnd()
				return result
			}
			s.ShiftTo(result.Next)
		}
		if result.RequiresOwnInput {
			return result
		}
	}
	return result
}

func (s *SharedState) checkPhase() CheckResult {
	switch s.Phase {
	case GameStart:
		return s.checkGameStart()
	case Bid:
		return s.checkBid()
	case UseItem:
		return s.checkUseItem()
	case AttackTarget:
		return s.checkAttackTarget()
	case GameEnd:
		return complete(GameEnd)
	}
	panic("state: unknown phase")
}

// 任意一方同意即可开局
func (s *SharedState) checkGameStart() CheckResult {
	for _, p := range s.Players {
		if p.GameStartApproved {
			return complete(Bid)
		}
	}
	return waitFor(!s.Players[s.OwnIndex].GameStartApproved, s.OwnIndex)
}

func (s *SharedState) checkBid() CheckResult {
	n := len(s.Players)
	own := s.OwnIndex

	// 未满一轮时按行动顺序依次出价
	if len(s.TemporaryBids) < n {
		next := s.Initiatives[len(s.TemporaryBids)]
		return waitFor(next == own, own)
	}

	targets, lastBid := s.lastBids()
	for p := range n {
		if lastBid[p] < 0 {
			return waitFor(p == own, own)
		}
	}

	competing := make([]bool, n)
	anyCompeting := false
	for a := 1; a < n; a++ {
		for b := range a {
			if targets[a] == targets[b] {
				competing[a], competing[b] = true, true
				anyCompeting = true
			}
		}
	}

	if !anyCompeting {
		if s.needsMoreBidding() && s.offerAfterSettle(targets) >= n {
			return complete(Bid)
		}
		return complete(UseItem)
	}

	if !competing[own] {
		return waitFor(false, own)
	}
	// 竞争者中最后一次出价最早的一方先行动
	for p := range n {
		if p != own && competing[p] && lastBid[p] < lastBid[own] {
			return waitFor(false, own)
		}
	}
	return waitFor(true, own)
}

// lastBids 每名玩家本轮最后一次出价的目标位置及其在临时历史中的下标，未出价为 -1
func (s *SharedState) lastBids() (targets, lastBid []int) {
	n := len(s.Players)
	targets = make([]int, n)
	lastBid = make([]int, n)
	for p := range n {
		targets[p], lastBid[p] = -1, -1
	}
	for i, b := range s.TemporaryBids {
		if s.validPlayer(b.PlayerIndex) {
			targets[b.PlayerIndex] = b.TargetItemIndex
			lastBid[b.PlayerIndex] = i
		}
	}
	return targets, lastBid
}

// offerAfterSettle 结算并补充后展示区的道具数
func (s *SharedState) offerAfterSettle(targets []int) int {
	won := make(map[int]bool, len(targets))
	for _, slot := range targets {
		if slot >= 0 && slot < len(s.OnOffer) {
			won[slot] = true
		}
	}
	return min(OfferSize, len(s.OnOffer)-len(won)+len(s.Scheduled))
}

// needsMoreBidding 任意一方道具不足 2 件时继续拍卖
func (s *SharedState) needsMoreBidding() bool {
	for _, p := range s.Players {
		if len(p.Inventory) < 2 {
			return true
		}
	}
	return false
}

func (s *SharedState) checkUseItem() CheckResult {
	if s.IsGameEnd() {
		return complete(GameEnd)
	}
	own := s.OwnIndex

	var history []int
	lastBlocked, lastActor := false, -1
	for _, h := range s.UseItemHistory {
		if h.Turn == s.Turn {
			history = append(history, h.PlayerIndex)
			lastBlocked, lastActor = h.BlocksNext, h.PlayerIndex
		}
	}
	if len(history) == 0 {
		return waitFor(s.Initiatives[0] == own, own)
	}
	if lastBlocked {
		return waitFor(lastActor == own, own)
	}

	acted := make([]bool, len(s.Players))
	for _, p := range history {
		if s.validPlayer(p) {
			acted[p] = true
		}
	}
	for p := range s.Players {
		if len(s.Players[p].Inventory) == 0 {
			acted[p] = true
		}
	}
	return s.nextUnacted(acted, complete(AttackTarget))
}

func (s *SharedState) checkAttackTarget() CheckResult {
	if s.IsGameEnd() {
		return complete(GameEnd)
	}
	own := s.OwnIndex

	acted := make([]bool, len(s.Players))
	empty := true
	lastBlocked, lastActor := false, -1
	for _, h := range s.AttackHistory {
		if h.Turn == s.Turn {
			empty = false
			if s.validPlayer(h.PlayerIndex) {
				acted[h.PlayerIndex] = true
			}
			lastBlocked, lastActor = h.BlocksNext, h.PlayerIndex
		}
	}
	if empty {
		return waitFor(s.Initiatives[0] == own, own)
	}
	if lastBlocked {
		return waitFor(lastActor == own, own)
	}
	return s.nextUnacted(acted, complete(s.afterAttack()))
}

// afterAttack 攻击阶段结束后的去向：展示区不足 2 件时不再拍卖
func (s *SharedState) afterAttack() PhaseType {
	if len(s.OnOffer) >= 2 {
		return Bid
	}
	for _, p := range s.Players {
		if len(p.Inventory) > 0 {
			return UseItem
		}
	}
	return AttackTarget
}

// nextUnacted 全部行动完毕返回 done，否则按行动顺序找到第一个未行动的玩家
func (s *SharedState) nextUnacted(acted []bool, done CheckResult) CheckResult {
	all := true
	for _, a := range acted {
		all = all && a
	}
	if all {
		return done
	}
	for _, p := range s.Initiatives {
		if !acted[p] {
			return waitFor(p == s.OwnIndex, s.OwnIndex)
		}
	}
	return waitFor(false, s.OwnIndex)
}

// RequiredActor 不修改状态，返回当前需要行动的玩家，没有则为 -1
func (s *SharedState) RequiredActor() int {
	view := *s
	for idx := range s.Players {
		view.OwnIndex = idx
		if r := view.checkPhase(); !r.Complete && r.RequiresOwnInput {
			return idx
		}
	}
	return -1
}
