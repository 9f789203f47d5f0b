// Package state 双方各自回放的共享对局状态与阶段状态机
package state

import (
	"fmt"
	"slices"

	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/game/status"
	"github.com/palemoky/bop/internal/protocol"
)

// PlayerCount 固定两名玩家
const PlayerCount = 2

// OfferSize 展示区最多同时拍卖的道具数
const OfferSize = 3

// Player 玩家
type Player struct {
	Name              string
	GameStartApproved bool
	BattleViewed      bool
	Inventory         []item.Item
	Status            status.Attributes
}

// IsLose HP 归零即落败
func (p *Player) IsLose() bool {
	return p.Status.IsDead()
}

// SharedState 一端持有的完整对局状态
// 只能在单个 goroutine 中使用，模拟时通过 Clone 复制
type SharedState struct {
	Players  []Player
	OwnIndex int

	OnOffer   []item.Item // 展示区
	Scheduled []item.Item // 待上架

	TemporaryBids  []protocol.BidPayload // 本轮未结算出价
	BidHistory     []protocol.BidPayload // 已结算轮次的出价
	UseItemHistory []protocol.UseItemPayload
	AttackHistory  []protocol.AttackTargetPayload

	// 行动顺序，越靠前优先级越高
	Initiatives []int

	Turn          int
	Phase         PhaseType
	ConsumedSeqNo int
	HasCPU        bool
	InputGuard    bool // 等待对方输入

	Log     []LogEntry
	notices []string
}

// Options 创建对局的参数
type Options struct {
	Names    []string
	OwnIndex int
	HasCPU   bool
	Items    []item.Item       // 牌堆，按顺序上架
	Initial  status.Attributes // 零值使用默认开局属性
}

// New 创建开局状态
func New(opts Options) *SharedState {
	initial := opts.Initial
	if initial == (status.Attributes{}) {
		initial = status.Initial()
	}

	players := make([]Player, PlayerCount)
	for i := range players {
		name := fmt.Sprintf("Player %d", i+1)
		if i < len(opts.Names) && opts.Names[i] != "" {
			name = opts.Names[i]
		}
		players[i] = Player{Name: name, Status: initial}
	}

	return &SharedState{
		Players:     players,
		OwnIndex:    opts.OwnIndex,
		Scheduled:   slices.Clone(opts.Items),
		Initiatives: []int{0, 1},
		Phase:       GameStart,
		HasCPU:      opts.HasCPU,
	}
}

// Clone 深拷贝，供 CPU 模拟使用
func (s *SharedState) Clone() *SharedState {
	cp := *s
	cp.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Inventory = slices.Clone(p.Inventory)
		cp.Players[i] = p
	}
	cp.OnOffer = slices.Clone(s.OnOffer)
	cp.Scheduled = slices.Clone(s.Scheduled)
	cp.TemporaryBids = slices.Clone(s.TemporaryBids)
	cp.BidHistory = slices.Clone(s.BidHistory)
	cp.UseItemHistory = slices.Clone(s.UseItemHistory)
	cp.AttackHistory = slices.Clone(s.AttackHistory)
	cp.Initiatives = slices.Clone(s.Initiatives)
	cp.Log = slices.Clone(s.Log)
	cp.notices = nil
	return &cp
}

// PlayerAttributes 实现 item.Target
func (s *SharedState) PlayerAttributes(index int) *status.Attributes {
	return &s.Players[index].Status
}

// OpponentIndex 对手下标
func (s *SharedState) OpponentIndex(index int) int {
	return (index + 1) % len(s.Players)
}

// IsGameEnd 任意一方 HP 归零
func (s *SharedState) IsGameEnd() bool {
	return slices.ContainsFunc(s.Players, func(p Player) bool { return p.IsLose() })
}

// Winner 返回胜者下标，双方同时倒下时为 -1
func (s *SharedState) Winner() (index int, decided bool) {
	if !s.IsGameEnd() {
		return -1, false
	}
	for i := range s.Players {
		if !s.Players[i].IsLose() {
			return i, true
		}
	}
	return -1, true
}

func (s *SharedState) validPlayer(index int) bool {
	return index >= 0 && index < len(s.Players)
}
