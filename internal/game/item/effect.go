package item

import (
	"fmt"
	"math"

	"github.com/palemoky/bop/internal/game/status"
)

// Target 效果作用的对象，由共享状态实现
type Target interface {
	PlayerAttributes(index int) *status.Attributes
	OpponentIndex(index int) int
}

// Op 效果的基本操作
type Op int

const (
	OpAdd Op = iota
	OpScaleByMoney
	OpHalve
	OpSwap
	OpBalance
	OpCompose
)

// Effect 以数据描述的道具效果，由 Apply 统一解释
type Effect struct {
	Op      Op
	Self    bool // true 作用于使用者，false 作用于对手
	Status  status.Kind
	StatusB status.Kind
	Amount  int
	Scale   float64
	TakeMax bool
	Effects []Effect
}

// Additive 属性加减
func Additive(self bool, k status.Kind, amount int) Effect {
	return Effect{Op: OpAdd, Self: self, Status: k, Amount: amount}
}

// ScaledByMoney 属性增加 floor(目标当前金币 * scale)
func ScaledByMoney(self bool, k status.Kind, scale float64) Effect {
	return Effect{Op: OpScaleByMoney, Self: self, Status: k, Scale: scale}
}

// Halve 属性减少 ceil(当前值/2)
func Halve(self bool, k status.Kind) Effect {
	return Effect{Op: OpHalve, Self: self, Status: k}
}

// Swap 交换 0 号与 1 号玩家的属性
func Swap(k status.Kind) Effect {
	return Effect{Op: OpSwap, Status: k}
}

// BalanceOf 两个属性统一为二者的最大（或最小）值再加 modifier
func BalanceOf(self bool, a, b status.Kind, takeMax bool, modifier int) Effect {
	return Effect{Op: OpBalance, Self: self, Status: a, StatusB: b, TakeMax: takeMax, Amount: modifier}
}

// Compose 按顺序依次应用
func Compose(effects ...Effect) Effect {
	return Effect{Op: OpCompose, Effects: effects}
}

func (e Effect) targetIndex(t Target, actor int) int {
	if e.Self {
		return actor
	}
	return t.OpponentIndex(actor)
}

// Apply 对状态应用效果，actor 为使用者下标
func (e Effect) Apply(t Target, actor int) {
	switch e.Op {
	case OpAdd:
		t.PlayerAttributes(e.targetIndex(t, actor)).Add(e.Status, e.Amount)
	case OpScaleByMoney:
		a := t.PlayerAttributes(e.targetIndex(t, actor))
		a.Add(e.Status, int(math.Floor(float64(a.Money)*e.Scale)))
	case OpHalve:
		a := t.PlayerAttributes(e.targetIndex(t, actor))
		a.Add(e.Status, -int(math.Ceil(float64(a.Get(e.Status))/2)))
	case OpSwap:
		p0, p1 := t.PlayerAttributes(0), t.PlayerAttributes(1)
		if e.Status == status.HP || e.Status == status.MHP {
			p0.MaxHP, p1.MaxHP = p1.MaxHP, p0.MaxHP
			p0.CurrentHP, p1.CurrentHP = p1.CurrentHP, p0.CurrentHP
			return
		}
		v0, v1 := p0.Get(e.Status), p1.Get(e.Status)
		p1.Set(e.Status, v0)
		p0.Set(e.Status, v1)
	case OpBalance:
		a := t.PlayerAttributes(e.targetIndex(t, actor))
		va, vb := a.Get(e.Status), a.Get(e.StatusB)
		v := min(va, vb)
		if e.TakeMax {
			v = max(va, vb)
		}
		a.Set(e.Status, v+e.Amount)
		a.Set(e.StatusB, v+e.Amount)
	case OpCompose:
		for _, sub := range e.Effects {
			sub.Apply(t, actor)
		}
	default:
		panic(fmt.Sprintf("item: unknown effect op %d", int(e.Op)))
	}
}
