// Package status 定义玩家的数值属性以及所有修改路径上的上下限约束
package status

import "fmt"

// Kind 属性种类
type Kind int

const (
	ATK   Kind = iota // 攻击力
	DEF               // 防御力
	HP                // 当前 HP
	MHP               // 最大 HP
	Money             // 持有金币
	Gain              // 每次落札后的预计收入
)

var kindNames = map[Kind]string{
	ATK:   "ATK",
	DEF:   "DEF",
	HP:    "HP",
	MHP:   "MHP",
	Money: "Money",
	Gain:  "Gain",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Attributes 玩家属性，所有字段均为非负整数
// 不变式: 0 <= CurrentHP <= MaxHP
type Attributes struct {
	MaxHP         int `json:"max_hp"`
	CurrentHP     int `json:"current_hp"`
	Attack        int `json:"attack"`
	Defence       int `json:"defence"`
	Money         int `json:"money"`
	EstimatedGain int `json:"estimated_money_gain"`
}

// Initial 返回开局属性
func Initial() Attributes {
	return Attributes{
		MaxHP:         50,
		CurrentHP:     50,
		Attack:        10,
		Defence:       5,
		Money:         5,
		EstimatedGain: 3,
	}
}

// Get 读取属性值，未知属性视为程序错误
func (a *Attributes) Get(k Kind) int {
	switch k {
	case ATK:
		return a.Attack
	case DEF:
		return a.Defence
	case HP:
		return a.CurrentHP
	case MHP:
		return a.MaxHP
	case Money:
		return a.Money
	case Gain:
		return a.EstimatedGain
	}
	panic(fmt.Sprintf("status: unknown kind %d", int(k)))
}

// Set 直接设置属性值（下限 0，HP 上限为 MaxHP，降低 MHP 时同步截断当前 HP）
func (a *Attributes) Set(k Kind, v int) {
	v = max(v, 0)
	switch k {
	case ATK:
		a.Attack = v
	case DEF:
		a.Defence = v
	case HP:
		a.CurrentHP = min(v, a.MaxHP)
	case MHP:
		a.MaxHP = v
		a.CurrentHP = min(a.CurrentHP, a.MaxHP)
	case Money:
		a.Money = v
	case Gain:
		a.EstimatedGain = v
	default:
		panic(fmt.Sprintf("status: unknown kind %d", int(k)))
	}
}

// Add 按增量修改属性
func (a *Attributes) Add(k Kind, delta int) {
	if k == HP {
		a.UpdateCurrentHP(delta)
		return
	}
	a.Set(k, a.Get(k)+delta)
}

// UpdateCurrentHP 修改当前 HP，结果限制在 [0, MaxHP]
func (a *Attributes) UpdateCurrentHP(delta int) {
	a.CurrentHP = min(max(a.CurrentHP+delta, 0), a.MaxHP)
}

// IsDead HP 归零即死亡
func (a *Attributes) IsDead() bool {
	return a.CurrentHP == 0
}

// DamageFrom 计算受到攻击力为 attack 的一次攻击时的伤害
// 攻击力为 0 时无伤害，防御不低于攻击力时保底 1 点
func (a *Attributes) DamageFrom(attack int) int {
	if attack <= 0 {
		return 0
	}
	if a.Defence >= attack {
		return 1
	}
	return attack - a.Defence
}
