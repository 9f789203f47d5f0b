package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/bop/internal/config"
	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/logger"
	"github.com/palemoky/bop/internal/network/client"
	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/session"
	"github.com/palemoky/bop/internal/sound"
	"github.com/palemoky/bop/internal/ui"
)

const matchTimeout = 5 * time.Minute

// eventFunc 把函数适配为事件处理器，用于先建连接后建会话
type eventFunc func(ev *protocol.ChannelEvent) error

func (f eventFunc) HandleEvent(ev *protocol.ChannelEvent) error { return f(ev) }

func main() {
	serverAddr := flag.String("server", "localhost:1780", "服务器地址")
	name := flag.String("name", client.GenerateNickname(), "昵称")
	vsCPU := flag.Bool("cpu", false, "与电脑对战（离线）")
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	if err := logger.Init("client"); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
	}
	defer logger.Close()
	defer logger.Recover("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	sm := sound.NewSoundManager()
	if err := sm.Init(); err != nil {
		logger.LogError("初始化音效失败: %v", err)
	}
	defer sm.Close()

	userID := uuid.NewString()
	if *vsCPU {
		err = playCPU(cfg, userID, *name, sm)
	} else {
		err = playOnline(cfg, fmt.Sprintf("ws://%s/ws", *serverAddr), userID, *name, sm)
	}
	if err != nil {
		log.Fatalf("客户端出错: %v", err)
	}
}

func sessionConfig(cfg *config.Config, userID string) session.Config {
	return session.Config{
		UserID:       userID,
		Initial:      cfg.Game.Initial(),
		LogLimit:     cfg.Game.LogLimit,
		Rollouts:     cfg.CPU.Rollouts,
		ThinkTimeout: cfg.CPU.ThinkTimeoutDuration(),
		Seed:         cfg.CPU.Seed,
	}
}

// playCPU 离线对战电脑，消息经本地回环
func playCPU(cfg *config.Config, userID, name string, cues ui.CuePlayer) error {
	sc := sessionConfig(cfg, userID)
	sc.Names = []string{name, "电脑"}
	sc.Host = true
	sc.HasCPU = true
	sc.Items = item.DefaultSet(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))

	lb := session.NewLoopback(userID)
	g := session.New(sc, lb)
	lb.Attach(g)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lb.Run(ctx)
	defer lb.Close()

	if err := g.Start(); err != nil {
		return err
	}
	return ui.Run(ui.NewModel(g, cues))
}

// playOnline 先在大厅匹配对手，再进入对局频道
func playOnline(cfg *config.Config, serverURL, userID, name string, cues ui.CuePlayer) error {
	fmt.Printf("正在匹配对手（%s）...\n", name)
	match, err := findMatch(serverURL, cfg.Relay.LobbyChannel, userID, name)
	if err != nil {
		return fmt.Errorf("匹配失败: %w", err)
	}
	logger.LogInfo("匹配成功: 频道 %s 对手 %s", match.Channel, match.OpponentName)

	sc := sessionConfig(cfg, userID)
	sc.Matched = true
	sc.Host = match.Host
	sc.OwnIndex = match.OwnIndex
	sc.Names = []string{name, match.OpponentName}
	if match.OwnIndex == 1 {
		sc.Names = []string{match.OpponentName, name}
	}
	if match.Host {
		sc.Items = item.DefaultSet(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}

	var g *session.GameSession
	conn := client.NewClient(serverURL, match.Channel, userID, eventFunc(func(ev *protocol.ChannelEvent) error {
		return g.HandleEvent(ev)
	}))
	g = session.New(sc, conn)
	model := ui.NewModel(g, cues)

	conn.OnReconnecting = func(attempt, limit int) {
		model.Notify(fmt.Sprintf("重连中 %d/%d", attempt, limit))
	}
	conn.OnReconnect = func() {
		model.Notify("已重新连接")
	}
	conn.OnClose = func() {
		model.Notify("连接已断开")
	}
	conn.OnLatency = func(ms int64) {
		model.Notify(fmt.Sprintf("延迟 %dms", ms))
	}

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("连接对局频道失败: %w", err)
	}
	defer conn.Close()
	conn.StartHeartbeat(g.TakeKeepAlive)

	if err := g.Start(); err != nil {
		return err
	}
	return ui.Run(model)
}

// findMatch 在大厅完成两人握手
// 房主等到自己的应答被中继回显后才断开，保证对方收到
func findMatch(serverURL, lobby, userID, name string) (session.Match, error) {
	var matcher *session.Matcher
	answered := make(chan struct{})
	var once sync.Once
	conn := client.NewClient(serverURL, lobby, userID, eventFunc(func(ev *protocol.ChannelEvent) error {
		if ev.Kind == protocol.EventMatchResponse && ev.Sender == userID {
			once.Do(func() { close(answered) })
		}
		return matcher.HandleEvent(ev)
	}))
	matcher = session.NewMatcher(userID, name, conn)

	if err := conn.Connect(); err != nil {
		return session.Match{}, err
	}
	defer conn.Close()

	if err := matcher.Request(); err != nil {
		return session.Match{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), matchTimeout)
	defer cancel()
	match, err := matcher.Wait(ctx)
	if err != nil || !match.Host {
		return match, err
	}
	select {
	case <-answered:
	case <-ctx.Done():
		return session.Match{}, ctx.Err()
	}
	return match, nil
}
