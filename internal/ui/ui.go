package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run 在全屏模式下运行对局界面直到退出
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
