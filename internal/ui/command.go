package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/palemoky/bop/internal/game/state"
)

var (
	errBadInput  = errors.New("输入格式错误")
	errNotActive = errors.New("当前阶段无需输入")
)

// Game 界面需要的对局操作，由 session.GameSession 实现
type Game interface {
	Snapshot() state.Snapshot
	Bid(slot, amount int) error
	UseItem(index int) error
	SkipItem() error
	Attack() error
	SkipAttack() error
	DrainNotices() []string
	Touch()
	Err() error
}

// action 一次已解析的操作
type action func(Game) error

// parseCommand 按阶段解析输入框内容，编号从 1 开始
//
//	出价:     "<槽位> <金额>"
//	使用道具: "<编号>" 或 "s" 跳过
//	攻击:     "a" 或回车攻击，"s" 放弃攻击换取 1 金币
func parseCommand(phase state.PhaseType, text string) (action, error) {
	fields := strings.Fields(strings.ToLower(text))

	switch phase {
	case state.Bid:
		if len(fields) != 2 {
			return nil, errBadInput
		}
		slot, err1 := strconv.Atoi(fields[0])
		amount, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || slot < 1 || amount < 0 {
			return nil, errBadInput
		}
		return func(g Game) error { return g.Bid(slot-1, amount) }, nil

	case state.UseItem:
		if len(fields) == 0 || fields[0] == "s" {
			return Game.SkipItem, nil
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil || index < 1 {
			return nil, errBadInput
		}
		return func(g Game) error { return g.UseItem(index - 1) }, nil

	case state.AttackTarget:
		if len(fields) == 0 || fields[0] == "a" {
			return Game.Attack, nil
		}
		if fields[0] == "s" {
			return Game.SkipAttack, nil
		}
		return nil, errBadInput
	}
	return nil, errNotActive
}

// promptFor 当前阶段的输入提示
func promptFor(snap state.Snapshot) string {
	if snap.GameOver {
		return "对局结束，按 ESC 退出"
	}
	if snap.InputGuard {
		return "等待对手..."
	}
	switch snap.Phase {
	case state.Bid:
		return "出价：槽位 金额（如 2 5）"
	case state.UseItem:
		return "使用道具：输入编号，s 跳过"
	case state.AttackTarget:
		return "攻击：回车或 a 攻击，s 放弃并获得 1 金币"
	}
	return "等待开局..."
}
