package sound

import "time"

// Cue 提示音名称，同时也是 assets/sounds 下覆盖文件的文件名
type Cue string

const (
	CueTurn   Cue = "turn"   // 轮到自己操作
	CueAttack Cue = "attack" // 进入攻击阶段
	CueWin    Cue = "win"
	CueLose   Cue = "lose"
)

// note 一个音符，freq 为 0 表示休止
type note struct {
	freq   float64
	length time.Duration
}

var cueNotes = map[Cue][]note{
	CueTurn:   {{880, 80 * time.Millisecond}},
	CueAttack: {{220, 60 * time.Millisecond}, {0, 30 * time.Millisecond}, {220, 60 * time.Millisecond}},
	CueWin:    {{523, 120 * time.Millisecond}, {659, 120 * time.Millisecond}, {784, 240 * time.Millisecond}},
	CueLose:   {{392, 160 * time.Millisecond}, {330, 160 * time.Millisecond}, {262, 320 * time.Millisecond}},
}
