package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/bop/internal/protocol"
)

// Pools for relay frames, reused by the server broadcast loop and the client read pump
var (
	eventPool = sync.Pool{
		New: func() any {
			return &protocol.ChannelEvent{}
		},
	}

	bufferPool = sync.Pool{
		New: func() any {
			return new(bytes.Buffer)
		},
	}
)

// GetEvent retrieves a ChannelEvent from the pool
func GetEvent() *protocol.ChannelEvent {
	return eventPool.Get().(*protocol.ChannelEvent)
}

// PutEvent returns a ChannelEvent to the pool
func PutEvent(ev *protocol.ChannelEvent) {
	if ev == nil {
		return
	}
	*ev = protocol.ChannelEvent{}
	eventPool.Put(ev)
}

// GetBuffer retrieves a bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer returns a bytes.Buffer to the pool
// The buffer is reset but capacity is preserved
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}
