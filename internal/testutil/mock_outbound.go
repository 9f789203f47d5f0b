//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/bop/internal/protocol"
)

// MockOutbound 出站队列 mock
type MockOutbound struct {
	mock.Mock
}

func (m *MockOutbound) EnqueueOutbound(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

// MockEventSender 频道事件发送 mock
type MockEventSender struct {
	mock.Mock
}

func (m *MockEventSender) SendEvent(ev *protocol.ChannelEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}

// RecordingOutbound 记录出站消息，不使用 testify（用于只关心发出了什么的测试）
type RecordingOutbound struct {
	mu   sync.Mutex
	Sent []*protocol.Message
}

func (r *RecordingOutbound) EnqueueOutbound(data []byte) error {
	msg, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, msg)
	return nil
}

// Types 已发送消息的类型序列
func (r *RecordingOutbound) Types() []protocol.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]protocol.MessageType, len(r.Sent))
	for i, m := range r.Sent {
		types[i] = m.Type
	}
	return types
}

// Take 取出并清空已记录的消息
func (r *RecordingOutbound) Take() []*protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.Sent
	r.Sent = nil
	return out
}
