package cpu

import (
	"context"
	"errors"
)

const (
	collapseDepth = 5
	confidentMin  = 15 // 样本数不少于该值直接保留
	extremeMin    = 10 // 样本数在 [extremeMin, confidentMin) 时仅保留胜率为 0 或 1 的序列
	ctxCheckEvery = 256
	noDefeat      = 9999 // shortestDefeat 的初值，表示尚无失败样本
)

// sequenceStat 相同决策序列的累计结果
type sequenceStat struct {
	inputs      []int
	actorIsSelf []bool
	wins        int
	total       int
	rate        float64
	longestWin     int
	shortestDefeat int
}

func sequenceKey(inputs []int) string {
	b := make([]byte, len(inputs))
	for i, v := range inputs {
		b[i] = byte(v)
	}
	return string(b)
}

func newSequenceStat(po Playout) *sequenceStat {
	return &sequenceStat{
		inputs:         po.Inputs,
		actorIsSelf:    po.ActorIsSelf,
		shortestDefeat: noDefeat,
	}
}

// record 累计一局结果
func (st *sequenceStat) record(po Playout) {
	st.total++
	if po.Won {
		st.wins++
		st.longestWin = max(st.longestWin, po.Length)
		return
	}
	st.shortestDefeat = min(st.shortestDefeat, po.Length)
}

// ChooseAction 模拟 rollouts 局后选择当前决策点的动作下标
// ctx 超时后停止采样并使用已有样本；ctx 被取消时返回错误
func (p *Player) ChooseAction(ctx context.Context, simulating, rollouts int) (int, error) {
	var stats []*sequenceStat
	index := make(map[string]int)

	for i := range rollouts {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				if errors.Is(err, context.Canceled) {
					return 0, err
				}
				break
			}
		}

		po := p.SimulateOnce(simulating)
		key := sequenceKey(po.Inputs)
		at, ok := index[key]
		if !ok {
			at = len(stats)
			index[key] = at
			stats = append(stats, newSequenceStat(po))
		}
		stats[at].record(po)
	}
	for _, st := range stats {
		st.rate = float64(st.wins) / float64(st.total)
	}

	best := pickBest(collapse(retain(stats)))
	if best == nil {
		return p.fallbackAction(), nil
	}
	return best.inputs[0], nil
}

// retain 丢弃置信度不足的序列，全部被丢弃时保留原样本
func retain(stats []*sequenceStat) []*sequenceStat {
	kept := make([]*sequenceStat, 0, len(stats))
	for _, st := range stats {
		if len(st.inputs) == 0 {
			continue
		}
		switch {
		case st.total >= confidentMin:
			kept = append(kept, st)
		case st.total >= extremeMin && (st.rate == 0 || st.rate == 1):
			kept = append(kept, st)
		}
	}
	if len(kept) > 0 {
		return kept
	}
	for _, st := range stats {
		if len(st.inputs) > 0 {
			kept = append(kept, st)
		}
	}
	return kept
}

// collapse 从长到短按公共前缀合并：前缀之后由自己决策时保留胜率最高者，由对手决策时保留胜率最低者
func collapse(stats []*sequenceStat) []*sequenceStat {
	for depth := collapseDepth; depth >= 1; depth-- {
		var order []string
		groups := make(map[string][]*sequenceStat)
		for _, st := range stats {
			key := sequenceKey(st.inputs[:min(depth, len(st.inputs))])
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], st)
		}

		next := make([]*sequenceStat, 0, len(order))
		for _, key := range order {
			group := groups[key]
			winner := group[0]
			if len(group) > 1 {
				selfDecides := decidingActor(group, depth)
				for _, st := range group[1:] {
					if (selfDecides && st.rate > winner.rate) || (!selfDecides && st.rate < winner.rate) {
						winner = st
					}
				}
			}
			if len(winner.inputs) > depth {
				winner.inputs = winner.inputs[:depth]
				winner.actorIsSelf = winner.actorIsSelf[:depth]
			}
			next = append(next, winner)
		}
		stats = next
	}
	return stats
}

// decidingActor 组内序列在 depth 位置分叉，返回该决策是否由自己做出
// 取分叉处 depth 位置的标记，而不是完整标记序列的最后一个；序列都不够长时才退回最后一个标记
func decidingActor(group []*sequenceStat, depth int) bool {
	for _, st := range group {
		if len(st.actorIsSelf) > depth {
			return st.actorIsSelf[depth]
		}
	}
	flags := group[0].actorIsSelf
	return flags[len(flags)-1]
}

// pickBest 胜率最高者，相同时取先出现的
func pickBest(stats []*sequenceStat) *sequenceStat {
	var best *sequenceStat
	for _, st := range stats {
		if best == nil || st.rate > best.rate {
			best = st
		}
	}
	return best
}

// fallbackAction 没有任何样本时均匀随机选择合法动作
func (p *Player) fallbackAction() int {
	s := p.state.Clone()
	result := s.CheckPhaseComplete(false)
	n := legalActions(s, result.Actor)
	if !result.RequiresOwnInput || n == 0 {
		return 0
	}
	return p.rng.IntN(n)
}
