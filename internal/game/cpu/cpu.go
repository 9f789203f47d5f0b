// Package cpu 基于随机对局模拟的电脑玩家
package cpu

import (
	"math/rand/v2"
	"time"

	"github.com/palemoky/bop/internal/game/state"
)

const (
	// DefaultRollouts 默认模拟局数
	DefaultRollouts = 40000

	recordDepth        = 6    // 每局记录的前几个决策
	maxPlayoutSteps    = 2000 // 双方攻击力为 0 时对局无法结束
	snapBidProbability = 0.3
	attackProbability  = 0.8
)

// Player 电脑玩家，持有状态副本，不会修改真实对局
type Player struct {
	state *state.SharedState
	rng   *rand.Rand
}

// Option 电脑玩家配置
type Option func(*Player)

// WithSeed 固定随机种子，相同种子与模拟局数得到相同选择
func WithSeed(seed uint64) Option {
	return func(p *Player) {
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand 使用外部随机源
func WithRand(r *rand.Rand) Option {
	return func(p *Player) {
		p.rng = r
	}
}

// NewPlayer 复制状态并标记双方已同意开局，使副本可以无人值守地运行
func NewPlayer(s *state.SharedState, opts ...Option) *Player {
	cp := s.Clone()
	for i := range cp.Players {
		cp.Players[i].GameStartApproved = true
	}
	cp.ConsumedSeqNo = 0
	cp.HasCPU = false
	cp.Log = nil

	p := &Player{state: cp}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		seed := uint64(time.Now().UnixNano())
		p.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return p
}

// Playout 一局模拟的结果
type Playout struct {
	Inputs      []int  // 前 recordDepth 个决策
	ActorIsSelf []bool // 对应决策是否由模拟方做出
	Won         bool
	Length      int // 结束时的序号
}

// SimulateOnce 从当前状态随机对局到结束
func (p *Player) SimulateOnce(simulating int) Playout {
	s := p.state.Clone()
	s.ConsumedSeqNo = 0

	var out Playout
	finished := false
	for range maxPlayoutSteps {
		result := s.CheckPhaseComplete(false)
		if s.Phase == state.GameEnd {
			finished = true
			break
		}
		if !result.RequiresOwnInput {
			break
		}
		actor := result.Actor
		if legalActions(s, actor) == 0 {
			break
		}
		index := p.randomAction(s, actor)
		if len(out.Inputs) < recordDepth {
			out.Inputs = append(out.Inputs, index)
			out.ActorIsSelf = append(out.ActorIsSelf, actor == simulating)
		}
		if err := applyAction(s, actor, index); err != nil {
			break
		}
	}
	out.Won = finished && !s.Players[simulating].IsLose()
	out.Length = s.ConsumedSeqNo
	return out
}

// randomAction 为当前阶段随机选择一个合法动作
func (p *Player) randomAction(s *state.SharedState, actor int) int {
	switch s.Phase {
	case state.Bid:
		return p.randomBid(s, actor)
	case state.UseItem:
		return p.rng.IntN(len(s.Players[actor].Inventory) + 1)
	case state.AttackTarget:
		if p.rng.Float64() < attackProbability {
			return 0
		}
		return 1
	}
	return 0
}

// randomBid 在买得起的位置中均匀选择，有 30% 概率改为第一个已有人出价的位置
// 都买不起时在 AllInSlots 中选择
func (p *Player) randomBid(s *state.SharedState, actor int) int {
	mins := s.MinimumBids()
	money := s.Players[actor].Status.Money

	var affordable []int
	snap := -1
	for slot, m := range mins {
		if m <= money {
			affordable = append(affordable, slot)
			if snap < 0 && m > 1 {
				snap = slot
			}
		}
	}
	if len(affordable) == 0 {
		if slots := s.AllInSlots(actor); len(slots) > 0 {
			return slots[p.rng.IntN(len(slots))]
		}
		return 0
	}
	slot := affordable[p.rng.IntN(len(affordable))]
	if snap >= 0 && p.rng.Float64() < snapBidProbability {
		slot = snap
	}
	return slot
}

// legalActions 当前阶段可选动作数
func legalActions(s *state.SharedState, actor int) int {
	switch s.Phase {
	case state.Bid:
		return len(s.OnOffer)
	case state.UseItem:
		return len(s.Players[actor].Inventory) + 1
	case state.AttackTarget:
		return 2
	}
	return 0
}
