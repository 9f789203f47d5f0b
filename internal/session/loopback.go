package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/palemoky/bop/internal/logger"
	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/protocol/codec"
)

// ErrLoopbackClosed 回环已关闭
var ErrLoopbackClosed = errors.New("session: loopback closed")

// EventHandler 接收频道事件的一端
type EventHandler interface {
	HandleEvent(ev *protocol.ChannelEvent) error
}

// Loopback 离线对局用的本地中继：按入队顺序在独立协程中回显给会话
// 帧经过与中继相同的编解码，队列不设上限，回显处理中可以再次入队
type Loopback struct {
	userID string

	mu      sync.Mutex
	queue   [][]byte
	closed  bool
	handler EventHandler
	wake    chan struct{}
}

// NewLoopback 创建回环，userID 作为回显事件的发送者
func NewLoopback(userID string) *Loopback {
	return &Loopback{
		userID: userID,
		wake:   make(chan struct{}, 1),
	}
}

// Attach 设置回显目标
func (l *Loopback) Attach(h EventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = h
}

// EnqueueOutbound 实现 Outbound
func (l *Loopback) EnqueueOutbound(data []byte) error {
	frame, err := codec.EncodeEvent(&protocol.ChannelEvent{
		Kind:      protocol.EventMessage,
		Sender:    l.userID,
		Payload:   data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return l.push(frame)
}

// Join 投递一条加入事件
func (l *Loopback) Join() error {
	frame, err := codec.EncodeEvent(&protocol.ChannelEvent{Kind: protocol.EventJoin, Sender: l.userID})
	if err != nil {
		return err
	}
	return l.push(frame)
}

func (l *Loopback) push(frame []byte) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopbackClosed
	}
	l.queue = append(l.queue, frame)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run 持续投递直到 ctx 结束或 Close
func (l *Loopback) Run(ctx context.Context) {
	defer logger.Recover("loopback")

	for {
		frame, ok := l.pop()
		if !ok {
			select {
			case <-l.wake:
				continue
			case <-ctx.Done():
				return
			}
		}
		if frame == nil {
			return
		}
		l.deliver(frame)
	}
}

func (l *Loopback) deliver(frame []byte) {
	ev := codec.GetEvent()
	defer codec.PutEvent(ev)

	if err := codec.DecodeEvent(frame, ev); err != nil {
		log.Printf("[loopback] 帧解析错误: %v", err)
		return
	}
	l.mu.Lock()
	h := l.handler
	l.mu.Unlock()
	if h == nil {
		return
	}
	if err := h.HandleEvent(ev); err != nil {
		log.Printf("[loopback] 事件处理失败: %v", err)
	}
}

// pop 取出队首，队列为空返回 false，已关闭返回 nil
func (l *Loopback) pop() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		if l.closed {
			return nil, true
		}
		return nil, false
	}
	frame := l.queue[0]
	l.queue = l.queue[1:]
	return frame, true
}

// Drain 投递队列中已有的全部帧，供同步测试与模拟使用
func (l *Loopback) Drain() {
	for {
		frame, ok := l.pop()
		if !ok || frame == nil {
			return
		}
		l.deliver(frame)
	}
}

// Close 停止接收，Run 在投递完剩余帧后退出
func (l *Loopback) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
