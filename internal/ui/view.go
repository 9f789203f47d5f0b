package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/bop/internal/game/state"
	"github.com/palemoky/bop/internal/ui/common"
)

const hpBarWidth = 20

var phaseLabels = map[state.PhaseType]string{
	state.GameStart:    "等待开局",
	state.Bid:          "竞拍",
	state.UseItem:      "使用道具",
	state.AttackTarget: "攻击",
	state.GameEnd:      "结束",
}

func (m *Model) View() string {
	if m.fatal != nil {
		return common.DocStyle.Render(common.ErrorStyle.Render(fmt.Sprintf("同步失败，对局已终止：%v\n\n按 ESC 退出", m.fatal)))
	}
	if !m.hasSnap {
		return common.DocStyle.Render("加载中...")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderPlayers())
	b.WriteString("\n")
	if len(m.snap.Offer) > 0 && m.snap.Phase == state.Bid {
		b.WriteString(m.renderOffer())
		b.WriteString("\n")
	}
	b.WriteString(m.renderLog())
	b.WriteString(m.renderPrompt())
	return common.DocStyle.Render(b.String())
}

func (m *Model) renderHeader() string {
	title := common.TitleStyle(fmt.Sprintf("BoP · 第 %d 回合 · %s", m.snap.Turn, phaseLabels[m.snap.Phase]))
	if m.connInfo != "" {
		title += "  " + common.DimStyle.Render(m.connInfo)
	}
	return title
}

func (m *Model) renderPlayers() string {
	boxes := make([]string, 0, len(m.snap.Players))
	for i, p := range m.snap.Players {
		boxes = append(boxes, m.renderPlayer(i, p))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *Model) renderPlayer(index int, p state.PlayerView) string {
	var b strings.Builder

	name := common.TruncateName(p.Name, 16)
	if index == m.snap.OwnIndex {
		name += "（你）"
	}
	if m.snap.GameOver && m.snap.Winner == index {
		name = common.CrownIcon + " " + name
	}
	b.WriteString(name + "\n")

	st := p.Status
	fmt.Fprintf(&b, "%s %s %d/%d\n", common.HPIcon, common.HPBar(st.CurrentHP, st.MaxHP, hpBarWidth), st.CurrentHP, st.MaxHP)
	fmt.Fprintf(&b, "%s %d  %s %d\n", common.AttackIcon, st.Attack, common.ShieldIcon, st.Defence)
	fmt.Fprintf(&b, "%s %d  %s +%d\n", common.MoneyIcon, st.Money, common.GainIcon, st.EstimatedGain)

	if len(p.Inventory) == 0 {
		b.WriteString(common.DimStyle.Render("（无道具）"))
	}
	for i, it := range p.Inventory {
		line := fmt.Sprintf("%d. %s", i+1, it.Kind.Name())
		if it.Used {
			line = common.DimStyle.Render(line + "（已用）")
		}
		b.WriteString(line)
		if i < len(p.Inventory)-1 {
			b.WriteString("\n")
		}
	}

	box := common.BoxStyle
	if m.isActive(index) {
		box = common.ActiveBox
	}
	return box.Width(34).Render(b.String())
}

// isActive 当前轮到操作的座位
func (m *Model) isActive(index int) bool {
	if m.snap.GameOver || m.snap.Phase == state.GameStart || len(m.snap.Initiatives) == 0 {
		return false
	}
	if index == m.snap.OwnIndex {
		return !m.snap.InputGuard
	}
	return m.snap.InputGuard
}

func (m *Model) renderOffer() string {
	var b strings.Builder
	b.WriteString(common.TitleStyle("拍卖区") + "\n")
	for slot, o := range m.snap.Offer {
		bidder := "无人出价"
		if o.Bidder >= 0 && o.Bidder < len(m.snap.Players) {
			bidder = fmt.Sprintf("%s 出价 %d", common.TruncateName(m.snap.Players[o.Bidder].Name, 10), o.CurrentBid)
		}
		fmt.Fprintf(&b, "%d. %-8s %s  [%s，最低 %d]\n",
			slot+1, o.Item.Kind.Name(), common.DimStyle.Render(o.Item.Kind.Description()), bidder, o.MinimumBid)
	}
	return b.String()
}

func (m *Model) renderLog() string {
	var b strings.Builder
	for _, line := range m.snap.Log {
		b.WriteString(common.DimStyle.Render(line) + "\n")
	}
	for _, n := range m.notices {
		b.WriteString(common.NoticeStyle.Render(n) + "\n")
	}
	return b.String()
}

func (m *Model) renderPrompt() string {
	var b strings.Builder
	b.WriteString(common.PromptStyle.Render(promptFor(m.snap)) + "\n")
	if !m.snap.GameOver && !m.snap.InputGuard && m.snap.Phase != state.GameStart {
		b.WriteString(m.input.View() + "\n")
	}
	if m.errMsg != "" {
		b.WriteString(common.ErrorStyle.Render(m.errMsg) + "\n")
	}
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}
