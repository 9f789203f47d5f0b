// Package session 连接中继与对局状态：处理频道事件、校验本地操作、驱动电脑玩家
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/palemoky/bop/internal/apperrors"
	"github.com/palemoky/bop/internal/game/cpu"
	"github.com/palemoky/bop/internal/game/item"
	"github.com/palemoky/bop/internal/game/state"
	"github.com/palemoky/bop/internal/game/status"
	"github.com/palemoky/bop/internal/protocol"
)

// Outbound 发送到中继的出站队列，必须保持顺序
type Outbound interface {
	EnqueueOutbound(data []byte) error
}

// ErrClosed 会话已因同步错误终止
var ErrClosed = errors.New("session: closed after fatal error")

// Config 会话参数
type Config struct {
	UserID   string   // 中继上的用户标识
	Names    []string // 座位名
	OwnIndex int
	Host     bool // 房主负责下发牌堆
	HasCPU   bool // 对手座位由电脑操控
	Matched  bool // 双方各自操控一个座位
	Items    []item.Item
	Initial  status.Attributes
	LogLimit int

	Rollouts     int
	ThinkTimeout time.Duration
	Seed         uint64 // 0 表示按时间取种子
}

// GameSession 一端的对局会话
// 中继读协程、界面协程都会调用，所有状态访问都经过 mu
type GameSession struct {
	mu    sync.Mutex
	cfg   Config
	state *state.SharedState
	out   Outbound

	approvalSent bool
	keepAlive    bool
	err          error
	notices      []string
	onUpdate     func()
	cpuSeq       uint64
	cpuIssuedAt  int // 上次为电脑生成决策时的已消费序号
}

// New 创建会话，Start 之前不会发送任何消息
func New(cfg Config, out Outbound) *GameSession {
	if cfg.Rollouts <= 0 {
		cfg.Rollouts = cpu.DefaultRollouts
	}
	return &GameSession{
		cfg:         cfg,
		out:         out,
		cpuIssuedAt: -1,
		state: state.New(state.Options{
			Names:    cfg.Names,
			OwnIndex: cfg.OwnIndex,
			HasCPU:   cfg.HasCPU,
			Items:    cfg.Items,
			Initial:  cfg.Initial,
		}),
	}
}

// OnUpdate 注册状态变化回调，在锁外调用
func (g *GameSession) OnUpdate(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onUpdate = fn
}

// Start 房主下发牌堆并同意开局；非房主等收到牌堆后再同意
func (g *GameSession) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cfg.Host || g.cfg.HasCPU || !g.cfg.Matched {
		return g.sendRuleAndApproval()
	}
	return nil
}

func (g *GameSession) sendRuleAndApproval() error {
	if g.cfg.Host {
		if err := g.send(protocol.MsgGameRule, g.rulePayload()); err != nil {
			return err
		}
	}
	g.approvalSent = true
	return g.send(protocol.MsgGameStartApproved, protocol.GameStartApprovedPayload{
		PlayerIndex: g.cfg.OwnIndex,
		Approved:    true,
	})
}

func (g *GameSession) rulePayload() protocol.GameRulePayload {
	own := g.cfg.OwnIndex
	opp := g.state.OpponentIndex(own)
	names := g.state.Names()
	return protocol.GameRulePayload{
		HostPlayerName:   names[own],
		HostPlayerIndex:  own,
		GuestPlayerName:  names[opp],
		GuestPlayerIndex: opp,
		ItemKinds:        item.Kinds(g.cfg.Items),
	}
}

func (g *GameSession) send(t protocol.MessageType, payload any) error {
	msg, err := protocol.NewMessage(t, payload)
	if err != nil {
		return err
	}
	return g.sendMessage(msg)
}

func (g *GameSession) sendMessage(msg *protocol.Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := g.out.EnqueueOutbound(data); err != nil {
		return fmt.Errorf("enqueue %s: %w", msg.Type, err)
	}
	return nil
}

// HandleEvent 处理一条中继频道事件
// 同步错误会被锁存，之后的事件一律拒绝
func (g *GameSession) HandleEvent(ev *protocol.ChannelEvent) error {
	g.mu.Lock()
	err := g.handle(ev)
	job := g.pendingCPUJob()
	onUpdate := g.onUpdate
	g.mu.Unlock()

	if job != nil {
		if cpuErr := g.runCPU(job); cpuErr != nil && err == nil {
			err = cpuErr
		}
	}
	if onUpdate != nil {
		onUpdate()
	}
	return err
}

func (g *GameSession) handle(ev *protocol.ChannelEvent) error {
	if g.err != nil {
		return ErrClosed
	}

	switch ev.Kind {
	case protocol.EventJoin:
		return g.handleJoin(ev.Sender)
	case protocol.EventLeft:
		if ev.Sender != g.cfg.UserID {
			g.notices = append(g.notices, "对手已断开，等待重连")
		}
		return nil
	case protocol.EventMessage:
		msg, err := protocol.Decode(ev.Payload)
		if err != nil {
			log.Printf("[session] 消息解析错误: %v", err)
			return fmt.Errorf("decode message: %w", err)
		}
		if msg.Type == protocol.MsgError {
			return g.handlePeerError(ev.Sender, msg)
		}
		return g.handleMessage(msg)
	}
	return nil
}

func (g *GameSession) handleJoin(sender string) error {
	s := g.state
	switch {
	case sender == g.cfg.UserID && s.ConsumedSeqNo != 0:
		// 自己重连，告知对端已消费的序号
		return g.send(protocol.MsgGameState, protocol.GameStatePayload{
			PlayerIndex:       s.OwnIndex,
			LastConsumedSeqNo: s.ConsumedSeqNo,
		})
	case sender != g.cfg.UserID && s.ConsumedSeqNo == 0 && g.cfg.Host:
		// 对手晚于开局消息加入
		return g.sendRuleAndApproval()
	}
	return nil
}

func (g *GameSession) handleMessage(msg *protocol.Message) error {
	s := g.state

	if msg.Type == protocol.MsgGameState {
		return g.handleGameState(msg)
	}

	if err := s.UpdateByMessage(msg, false); err != nil {
		var desync *apperrors.DesyncError
		if errors.As(err, &desync) {
			log.Printf("[session] 序号不同步: %v", err)
			// 通知对端本局已无法继续
			if sendErr := g.sendMessage(protocol.NewErrorMessage(desync.Code())); sendErr != nil {
				log.Printf("[session] 发送同步错误失败: %v", sendErr)
			}
		} else {
			log.Printf("[session] 应用消息失败: %v", err)
		}
		g.err = err
		return err
	}

	if msg.Type == protocol.MsgGameRule && !g.approvalSent {
		if err := g.sendRuleAndApproval(); err != nil {
			return err
		}
	}

	g.advance()
	return nil
}

// handlePeerError 对端报告的错误只作提示，自己的回显忽略
func (g *GameSession) handlePeerError(sender string, msg *protocol.Message) error {
	if sender == g.cfg.UserID {
		return nil
	}
	p, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
	if err != nil {
		return fmt.Errorf("parse %s: %w", msg.Type, err)
	}
	g.notices = append(g.notices, "对手: "+p.Message)
	return nil
}

// handleGameState 对端落后时补发历史消息
func (g *GameSession) handleGameState(msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.GameStatePayload](msg)
	if err != nil {
		return fmt.Errorf("parse %s: %w", msg.Type, err)
	}
	if p.PlayerIndex == g.state.OwnIndex || p.LastConsumedSeqNo >= g.state.ConsumedSeqNo {
		return nil
	}
	for _, m := range g.state.ResendSince(p.LastConsumedSeqNo) {
		if err := g.sendMessage(m); err != nil {
			return err
		}
	}
	return nil
}

// advance 推进阶段并更新输入锁
func (g *GameSession) advance() {
	s := g.state
	result := s.CheckPhaseComplete(g.cfg.Matched)
	if s.Phase == state.GameEnd {
		s.InputGuard = true
		return
	}
	s.InputGuard = !result.RequiresOwnInput
}

// cpuJob 在锁外执行的一次电脑决策
type cpuJob struct {
	clone *state.SharedState
	actor int
	seed  uint64
}

func (g *GameSession) pendingCPUJob() *cpuJob {
	s := g.state
	if g.err != nil || !g.cfg.HasCPU || !s.InputGuard || s.Phase == state.GameEnd {
		return nil
	}
	// 同一序号只决策一次，重复的决策会造成序号冲突
	if s.ConsumedSeqNo == g.cpuIssuedAt {
		return nil
	}
	actor := s.RequiredActor()
	if actor < 0 || actor == g.cfg.OwnIndex {
		return nil
	}
	g.cpuIssuedAt = s.ConsumedSeqNo
	g.cpuSeq++
	seed := uint64(0)
	if g.cfg.Seed != 0 {
		seed = g.cfg.Seed + g.cpuSeq
	}
	return &cpuJob{clone: s.Clone(), actor: actor, seed: seed}
}

func (g *GameSession) runCPU(job *cpuJob) error {
	var opts []cpu.Option
	if job.seed != 0 {
		opts = append(opts, cpu.WithSeed(job.seed))
	}
	ctx := context.Background()
	if g.cfg.ThinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.ThinkTimeout)
		defer cancel()
	}

	msg, err := ChooseMove(ctx, job.clone, job.actor, g.cfg.Rollouts, opts...)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sendMessage(msg)
}

// ChooseMove 在状态副本上搜索 actor 的下一步并生成消息
func ChooseMove(ctx context.Context, s *state.SharedState, actor, rollouts int, opts ...cpu.Option) (*protocol.Message, error) {
	player := cpu.NewPlayer(s, opts...)
	index, err := player.ChooseAction(ctx, actor, rollouts)
	if err != nil {
		return nil, fmt.Errorf("cpu search: %w", err)
	}
	return cpu.BuildMessage(s, actor, index)
}

// Err 锁存的致命错误
func (g *GameSession) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Snapshot 界面轮询用的只读快照
func (g *GameSession) Snapshot() state.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Snapshot(g.cfg.LogLimit)
}

// RequiredActor 当前需要行动的座位，没有则为 -1
func (g *GameSession) RequiredActor() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Phase == state.GameEnd {
		return -1
	}
	return g.state.RequiredActor()
}

// StateClone 当前状态的副本
func (g *GameSession) StateClone() *state.SharedState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// Send 以给定座位发送一条已构造的消息，用于无人值守的模拟
func (g *GameSession) Send(msg *protocol.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return ErrClosed
	}
	return g.sendMessage(msg)
}

// DrainNotices 取出待显示的提示
func (g *GameSession) DrainNotices() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := append(g.notices, g.state.DrainNotices()...)
	g.notices = nil
	return out
}

// TakeKeepAlive 返回并清除本周期内是否有过交互
func (g *GameSession) TakeKeepAlive() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	keep := g.keepAlive
	g.keepAlive = false
	return keep
}

// Touch 记录一次用户交互
func (g *GameSession) Touch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keepAlive = true
}
