package protocol

// 错误码
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001
	ErrCodeDesync     = 1002 // 序号不一致，需重新加入

	ErrCodeWrongPhase        = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeInsufficientMoney = 3003
	ErrCodeBidTooLow         = 3004
	ErrCodeInvalidSlot       = 3005
	ErrCodeInvalidItem       = 3006
	ErrCodeGameOver          = 3007
	ErrCodeInvalidTarget     = 3008
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeDesync:            "对局同步失败，请重新加入",
	ErrCodeWrongPhase:        "当前阶段不能进行该操作",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeInsufficientMoney: "金币不足",
	ErrCodeBidTooLow:         "出价低于最低价",
	ErrCodeInvalidSlot:       "无效的拍卖位置",
	ErrCodeInvalidItem:       "无效的道具",
	ErrCodeGameOver:          "游戏已结束",
	ErrCodeInvalidTarget:     "无效的攻击目标",
}
