// Package item 定义道具种类、展示文案以及开局发牌
package item

import (
	"fmt"
	"math/rand/v2"
)

// Kind 道具种类
type Kind int

const (
	LongSword Kind = iota
	LeatherArmour
	Dagger
	Balance
	Cure
	Shrink
	ArmourBreak
	GainUp
	Weakness
	ChainMail
	MagicBolt
	BuildUp
	HPSwap
	GoldenHeal
	Treasure
	GoldenSkin
	Chaos
	GoldenDagger
	ATKSwap
	DEFSwap
	Excalibur
)

// AllKinds 全部 21 种道具
var AllKinds = []Kind{
	LongSword, LeatherArmour, Dagger, Balance, Cure, Shrink, ArmourBreak,
	GainUp, Weakness, ChainMail, MagicBolt, BuildUp, HPSwap, GoldenHeal,
	Treasure, GoldenSkin, Chaos, GoldenDagger, ATKSwap, DEFSwap, Excalibur,
}

type kindInfo struct {
	code        string
	name        string
	description string
}

var kindInfos = map[Kind]kindInfo{
	LongSword:     {"long_sword", "长剑", "自身 ATK+10"},
	LeatherArmour: {"leather_armour", "皮甲", "自身 DEF+5"},
	Dagger:        {"dagger", "匕首", "自身 ATK+5"},
	Balance:       {"balance", "平衡", "自身 ATK、DEF 取较高者并 +1"},
	Cure:          {"cure", "治疗", "自身 HP+20"},
	Shrink:        {"shrink", "萎缩", "对手 ATK、DEF 取较低者并 -1"},
	ArmourBreak:   {"armour_break", "破甲", "对手 DEF 减半"},
	GainUp:        {"gain_up", "增收", "自身每轮收入 +1"},
	Weakness:      {"weakness", "虚弱", "对手 ATK 减半"},
	ChainMail:     {"chain_mail", "锁子甲", "自身 DEF+10"},
	MagicBolt:     {"magic_bolt", "魔法飞弹", "对手 HP-15"},
	BuildUp:       {"build_up", "强身", "自身 MHP+10、HP+10"},
	HPSwap:        {"hp_swap", "生命互换", "双方交换 MHP 与 HP"},
	GoldenHeal:    {"golden_heal", "黄金治疗", "自身 HP 增加当前金币×2"},
	Treasure:      {"treasure", "宝藏", "自身金币 +5"},
	GoldenSkin:    {"golden_skin", "黄金之肤", "自身 DEF 增加当前金币"},
	Chaos:         {"chaos", "混沌", "双方 HP-5、ATK+5、DEF-5"},
	GoldenDagger:  {"golden_dagger", "黄金匕首", "自身 ATK 增加当前金币"},
	ATKSwap:       {"atk_swap", "攻击互换", "双方交换 ATK"},
	DEFSwap:       {"def_swap", "防御互换", "双方交换 DEF"},
	Excalibur:     {"excalibur", "王者之剑", "自身 HP+10、ATK+10、DEF+10"},
}

var codeToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindInfos))
	for k, info := range kindInfos {
		m[info.code] = k
	}
	return m
}()

// String 返回线上传输使用的代码名
func (k Kind) String() string {
	if info, ok := kindInfos[k]; ok {
		return info.code
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Name 显示名称
func (k Kind) Name() string {
	return kindInfos[k].name
}

// Description 效果说明
func (k Kind) Description() string {
	return kindInfos[k].description
}

// ParseKind 按代码名解析道具种类
func ParseKind(code string) (Kind, error) {
	if k, ok := codeToKind[code]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown item kind %q", code)
}

func (k Kind) MarshalText() ([]byte, error) {
	info, ok := kindInfos[k]
	if !ok {
		return nil, fmt.Errorf("unknown item kind %d", int(k))
	}
	return []byte(info.code), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Item 一件道具
type Item struct {
	Kind    Kind `json:"kind"`
	SoldFor int  `json:"sold_for"` // 暂未使用
	Used    bool `json:"used"`
}

// New 创建道具
func New(k Kind) Item {
	return Item{Kind: k}
}

func (i Item) String() string {
	return i.Kind.Name()
}

// defaultKinds 开局牌堆（魔法飞弹两张，不含王者之剑）
var defaultKinds = []Kind{
	Treasure, GoldenSkin, Chaos, GoldenDagger, ATKSwap, DEFSwap, Shrink,
	ArmourBreak, LongSword, GainUp, Weakness, BuildUp, LeatherArmour, Dagger,
	Balance, ChainMail, MagicBolt, Cure, HPSwap, GoldenHeal, MagicBolt,
}

// DefaultSet 洗牌后返回开局牌堆，王者之剑固定放在最后
func DefaultSet(r *rand.Rand) []Item {
	items := make([]Item, 0, len(defaultKinds)+1)
	for _, k := range defaultKinds {
		items = append(items, New(k))
	}
	r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	return append(items, New(Excalibur))
}

// FromKinds 按给定顺序构建牌堆，用于回放房主下发的规则
func FromKinds(kinds []Kind) []Item {
	items := make([]Item, len(kinds))
	for i, k := range kinds {
		items[i] = New(k)
	}
	return items
}

// Kinds 提取道具种类列表
func Kinds(items []Item) []Kind {
	kinds := make([]Kind, len(items))
	for i, it := range items {
		kinds[i] = it.Kind
	}
	return kinds
}
