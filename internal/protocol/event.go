package protocol

// EventKind 中继频道事件类型
type EventKind int

const (
	EventUnknown EventKind = iota
	EventJoin
	EventLeft
	EventMessage
	EventMatchRequest
	EventMatchResponse
)

var eventKindNames = map[EventKind]string{
	EventUnknown:       "unknown",
	EventJoin:          "join",
	EventLeft:          "left",
	EventMessage:       "message",
	EventMatchRequest:  "match_request",
	EventMatchResponse: "match_response",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ChannelEvent 中继投递的一条频道事件
// Payload 对 EventMessage 是编码后的 Message，对匹配事件是玩家名
type ChannelEvent struct {
	Kind      EventKind
	Sender    string
	Payload   []byte
	Timestamp int64 // 毫秒
}
