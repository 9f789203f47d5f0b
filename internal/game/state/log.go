package state

import (
	"fmt"

	"github.com/palemoky/bop/internal/game/item"
)

// LogKind 对局日志类型
type LogKind int

const (
	LogBidWon LogKind = iota
	LogInitiativeChanged
	LogUseItem
	LogAttack
	LogSkipAttack
	LogGameEnd
)

// LogEntry 对局日志
type LogEntry struct {
	Turn   int
	Kind   LogKind
	Player int
	Item   item.Kind
	Value  int
}

// Format 渲染为可读文本
func (e LogEntry) Format(names []string) string {
	name := func(i int) string {
		if i >= 0 && i < len(names) {
			return names[i]
		}
		return "?"
	}
	switch e.Kind {
	case LogBidWon:
		return fmt.Sprintf("[%d] %s 以 %d 金币拍得 %s", e.Turn, name(e.Player), e.Value, e.Item.Name())
	case LogInitiativeChanged:
		return fmt.Sprintf("[%d] 行动顺序变更，%s 先手", e.Turn, name(e.Player))
	case LogUseItem:
		return fmt.Sprintf("[%d] %s 使用了 %s", e.Turn, name(e.Player), e.Item.Name())
	case LogAttack:
		return fmt.Sprintf("[%d] %s 发动攻击，造成 %d 点伤害", e.Turn, name(e.Player), e.Value)
	case LogSkipAttack:
		return fmt.Sprintf("[%d] %s 放弃攻击", e.Turn, name(e.Player))
	case LogGameEnd:
		if e.Player < 0 {
			return fmt.Sprintf("[%d] 游戏结束，平局", e.Turn)
		}
		return fmt.Sprintf("[%d] 游戏结束，%s 获胜", e.Turn, name(e.Player))
	}
	return ""
}

func (s *SharedState) addLog(e LogEntry) {
	e.Turn = s.Turn
	s.Log = append(s.Log, e)
}

func (s *SharedState) notify(format string, args ...any) {
	s.notices = append(s.notices, fmt.Sprintf(format, args...))
}

// DrainNotices 取出并清空待展示的提示
func (s *SharedState) DrainNotices() []string {
	n := s.notices
	s.notices = nil
	return n
}

// Names 玩家名列表
func (s *SharedState) Names() []string {
	names := make([]string, len(s.Players))
	for i, p := range s.Players {
		names[i] = p.Name
	}
	return names
}
