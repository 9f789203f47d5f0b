//go:build ci

package sound

// SoundManager CI 环境下没有音频设备
type SoundManager struct{}

func NewSoundManager() *SoundManager {
	return &SoundManager{}
}

func (sm *SoundManager) Init() error {
	return nil
}

func (sm *SoundManager) Play(cue Cue) {
	// No-op
}

func (sm *SoundManager) Close() {
	// No-op
}
