// Package common provides shared styles and utilities for the UI.
package common

import (
	"github.com/charmbracelet/lipgloss"
)

// Icon constants
const (
	HPIcon     = "❤️"
	AttackIcon = "⚔️"
	ShieldIcon = "🛡️"
	MoneyIcon  = "💰"
	GainIcon   = "📈"
	CrownIcon  = "👑"
)

// Lipgloss Styles
var (
	DocStyle     = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	ActiveBox    = BoxStyle.BorderForeground(lipgloss.Color("228"))
	PromptStyle  = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	NoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	HPFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57"))
	HPLowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CD0000"))
	HPEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)
