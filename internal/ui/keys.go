package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap 全局按键
type keyMap struct {
	Submit key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "提交")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "帮助")),
		Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "退出")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.Help, k.Quit}}
}
