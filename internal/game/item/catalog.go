package item

import (
	"fmt"

	"github.com/palemoky/bop/internal/game/status"
)

var catalog = map[Kind]Effect{
	Dagger:        Additive(true, status.ATK, 5),
	LongSword:     Additive(true, status.ATK, 10),
	BuildUp:       Compose(Additive(true, status.MHP, 10), Additive(true, status.HP, 10)),
	GainUp:        Additive(true, status.Gain, 1),
	ArmourBreak:   Halve(false, status.DEF),
	Weakness:      Halve(false, status.ATK),
	LeatherArmour: Additive(true, status.DEF, 5),
	ChainMail:     Additive(true, status.DEF, 10),
	MagicBolt:     Additive(false, status.HP, -15),
	Cure:          Additive(true, status.HP, 20),
	HPSwap:        Swap(status.HP),
	ATKSwap:       Swap(status.ATK),
	DEFSwap:       Swap(status.DEF),
	Balance:       BalanceOf(true, status.ATK, status.DEF, true, 1),
	Shrink:        BalanceOf(false, status.ATK, status.DEF, false, -1),
	GoldenDagger:  ScaledByMoney(true, status.ATK, 1.0),
	GoldenSkin:    ScaledByMoney(true, status.DEF, 1.0),
	GoldenHeal:    ScaledByMoney(true, status.HP, 2.0),
	Treasure:      Additive(true, status.Money, 5),
	Chaos: Compose(
		Additive(true, status.HP, -5),
		Additive(false, status.HP, -5),
		Additive(true, status.ATK, 5),
		Additive(false, status.ATK, 5),
		Additive(true, status.DEF, -5),
		Additive(false, status.DEF, -5),
	),
	Excalibur: Compose(
		Additive(true, status.HP, 10),
		Additive(true, status.ATK, 10),
		Additive(true, status.DEF, 10),
	),
}

// Effect 返回道具绑定的效果
func (k Kind) Effect() Effect {
	e, ok := catalog[k]
	if !ok {
		panic(fmt.Sprintf("item: no effect bound to %v", k))
	}
	return e
}

// GetEffect 返回绑定了使用者下标的效果函数
func GetEffect(k Kind, actor int) func(Target) {
	e := k.Effect()
	return func(t Target) {
		e.Apply(t, actor)
	}
}
