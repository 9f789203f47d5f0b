// Package ui 终端界面：轮询对局快照并把输入转成本地操作
package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/state"
	"github.com/palemoky/bop/internal/sound"
)

const (
	pollInterval = 100 * time.Millisecond
	errorTimeout = 3 * time.Second
	maxNotices   = 4
)

// --- Tea Messages ---

type tickMsg time.Time

type clearErrorMsg struct{}

// StatusMsg 连接状态提示，由网络层回调发出
type StatusMsg struct {
	Text string
}

// CuePlayer 播放提示音
type CuePlayer interface {
	Play(cue sound.Cue)
}

// Model 对局界面
type Model struct {
	game   Game
	cues   CuePlayer
	status chan tea.Msg

	snap     state.Snapshot
	hasSnap  bool
	notices  []string
	errMsg   string
	fatal    error
	connInfo string

	input    textinput.Model
	keys     keyMap
	help     help.Model
	showHelp bool
	width    int
	height   int
}

// NewModel 创建界面，cues 可以为 nil
func NewModel(game Game, cues CuePlayer) *Model {
	ti := textinput.New()
	ti.CharLimit = 20
	ti.Width = 30
	ti.Focus()

	return &Model{
		game:   game,
		cues:   cues,
		status: make(chan tea.Msg, 10),
		input:  ti,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Notify 从其他协程推送状态提示，缓冲满时丢弃
func (m *Model) Notify(text string) {
	select {
	case m.status <- StatusMsg{Text: text}:
	default:
	}
}

func (m *Model) listenForStatus() tea.Cmd {
	return func() tea.Msg {
		return <-m.status
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick(), m.listenForStatus())
}

// Update handles tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.refresh()
		cmds = append(cmds, tick())

	case StatusMsg:
		m.connInfo = msg.Text
		cmds = append(cmds, m.listenForStatus())

	case clearErrorMsg:
		m.errMsg = ""

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		}
		m.game.Touch()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// refresh 拉取最新快照并根据变化播放提示音
func (m *Model) refresh() {
	next := m.game.Snapshot()
	if m.hasSnap && m.cues != nil {
		if cue, ok := cueFor(m.snap, next); ok {
			m.cues.Play(cue)
		}
	}
	m.snap = next
	m.hasSnap = true

	m.notices = append(m.notices, m.game.DrainNotices()...)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
	if err := m.game.Err(); err != nil {
		m.fatal = err
	}
}

// submit 解析输入并执行操作
func (m *Model) submit() tea.Cmd {
	m.game.Touch()
	snap := m.game.Snapshot()
	if snap.GameOver || snap.InputGuard {
		return nil
	}

	act, err := parseCommand(snap.Phase, m.input.Value())
	if err == nil {
		err = act(m.game)
	}
	if err != nil {
		return m.showError(err)
	}
	m.input.Reset()
	m.refresh()
	return nil
}

func (m *Model) showError(err error) tea.Cmd {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		m.errMsg = gameErr.Message
	} else {
		m.errMsg = err.Error()
	}
	return tea.Tick(errorTimeout, func(time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

// cueFor 根据前后两次快照决定提示音
func cueFor(prev, next state.Snapshot) (sound.Cue, bool) {
	if next.GameOver {
		if prev.GameOver {
			return "", false
		}
		if next.Winner == next.OwnIndex {
			return sound.CueWin, true
		}
		return sound.CueLose, true
	}
	becameMine := !next.InputGuard && (prev.InputGuard || prev.Phase != next.Phase || prev.Turn != next.Turn)
	if !becameMine {
		return "", false
	}
	if next.Phase == state.AttackTarget {
		return sound.CueAttack, true
	}
	return sound.CueTurn, true
}

// Title 窗口标题
func (m *Model) Title() string {
	if !m.hasSnap || len(m.snap.Players) == 0 {
		return "BoP"
	}
	return fmt.Sprintf("BoP - %s", m.snap.Players[m.snap.OwnIndex].Name)
}
