package protocol

import "github.com/palemoky/bop/internal/game/item"

// --- 游戏操作 Payloads ---

// BidPayload 对展示区某个位置出价
type BidPayload struct {
	SeqNo           int `json:"seq_no"`
	PlayerIndex     int `json:"player_index"`
	TargetItemIndex int `json:"bid_item_index"` // 展示区下标 0..2
	BidAmount       int `json:"bid_amount"`
}

// UseItemPayload 使用道具或跳过
type UseItemPayload struct {
	SeqNo       int   `json:"seq_no"`
	Turn        int   `json:"turn"`
	BlocksNext  bool  `json:"check_is_blocked"` // 同一玩家需继续行动
	PlayerIndex int   `json:"player_index"`
	ItemIndex   int   `json:"use_item_index"`
	Skipped     bool  `json:"is_skipped"`
	ExtraI32    []int `json:"args_i32"`
	ExtraUsize  []int `json:"args_usize"`
}

// AttackTargetPayload 攻击或跳过（跳过获得 1 金币）
type AttackTargetPayload struct {
	SeqNo             int  `json:"seq_no"`
	Turn              int  `json:"turn"`
	PlayerIndex       int  `json:"player_index"`
	BlocksNext        bool `json:"check_is_blocked"`
	TargetPlayerIndex int  `json:"attack_target_player_index"`
	Skipped           bool `json:"is_skipped"`
}

// --- 同步 Payloads ---

// GameStatePayload 重连后广播，告知对端自己已消费到的序号
type GameStatePayload struct {
	PlayerIndex       int `json:"player_index"`
	LastConsumedSeqNo int `json:"last_consumed_seq_no"`
}

// GameStartApprovedPayload 同意开局
type GameStartApprovedPayload struct {
	PlayerIndex int  `json:"player_index"`
	Approved    bool `json:"game_start_is_approved"`
}

// GameRulePayload 房主决定座位并下发牌堆顺序
type GameRulePayload struct {
	HostPlayerName   string      `json:"host_player_name"`
	HostPlayerIndex  int         `json:"host_player_index"`
	GuestPlayerName  string      `json:"guest_player_name"`
	GuestPlayerIndex int         `json:"guest_player_index"`
	ItemKinds        []item.Kind `json:"item_kind_list"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
