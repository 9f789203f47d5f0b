package protocol

import "encoding/json"

// Message 对局消息信封，Type 为显式判别字段
type Message struct {
	Type    MessageType     `json:"type"`
	Resend  bool            `json:"resend,omitempty"` // 补发的历史消息
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 对局消息类型（经由中继在两端之间传递）
const (
	// 同步
	MsgGameState         MessageType = "game_state"          // 重连后上报已消费的序号
	MsgGameStartApproved MessageType = "game_start_approved" // 同意开局
	MsgGameRule          MessageType = "game_rule"           // 房主下发座位与牌堆

	// 游戏操作（带序号）
	MsgBid          MessageType = "bid"           // 出价
	MsgUseItem      MessageType = "use_item"      // 使用道具
	MsgAttackTarget MessageType = "attack_target" // 攻击或跳过

	// 错误
	MsgError MessageType = "error"
)

// IsSequenced 是否为需要序号校验的游戏操作
func (t MessageType) IsSequenced() bool {
	switch t {
	case MsgBid, MsgUseItem, MsgAttackTarget:
		return true
	}
	return false
}
