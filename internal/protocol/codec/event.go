// Package codec encodes relay frames in protobuf wire format.
//
//	message ChannelEvent {
//	  int32  kind      = 1;
//	  string sender    = 2;
//	  bytes  payload   = 3;
//	  int64  timestamp = 4;
//	}
package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/palemoky/bop/internal/protocol"
)

const (
	fieldKind      protowire.Number = 1
	fieldSender    protowire.Number = 2
	fieldPayload   protowire.Number = 3
	fieldTimestamp protowire.Number = 4
)

var ErrUnknownKind = errors.New("codec: unknown event kind")

// EncodeEvent appends the wire form of ev to a fresh slice.
func EncodeEvent(ev *protocol.ChannelEvent) ([]byte, error) {
	if ev.Kind == protocol.EventUnknown {
		return nil, ErrUnknownKind
	}
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Grow(32 + len(ev.Sender) + len(ev.Payload))
	b := buf.AvailableBuffer()
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(ev.Kind))
	if ev.Sender != "" {
		b = protowire.AppendTag(b, fieldSender, protowire.BytesType)
		b = protowire.AppendString(b, ev.Sender)
	}
	if len(ev.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, ev.Payload)
	}
	if ev.Timestamp != 0 {
		b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ev.Timestamp))
	}
	return append([]byte(nil), b...), nil
}

// DecodeEvent parses data into ev. Unknown fields are skipped.
func DecodeEvent(data []byte, ev *protocol.ChannelEvent) error {
	*ev = protocol.ChannelEvent{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("codec: tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("codec: kind: %w", protowire.ParseError(n))
			}
			ev.Kind = protocol.EventKind(v)
			data = data[n:]
		case num == fieldSender && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return fmt.Errorf("codec: sender: %w", protowire.ParseError(n))
			}
			ev.Sender = v
			data = data[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("codec: payload: %w", protowire.ParseError(n))
			}
			ev.Payload = append([]byte(nil), v...)
			data = data[n:]
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("codec: timestamp: %w", protowire.ParseError(n))
			}
			ev.Timestamp = int64(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("codec: field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if ev.Kind == protocol.EventUnknown {
		return ErrUnknownKind
	}
	return nil
}

// NewMessageEvent wraps a game message into a relay frame.
func NewMessageEvent(msg *protocol.Message) (*protocol.ChannelEvent, error) {
	data, err := msg.Encode()
	if err != nil {
		return nil, err
	}
	return &protocol.ChannelEvent{Kind: protocol.EventMessage, Payload: data}, nil
}
