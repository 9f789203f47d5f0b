//go:build !ci

package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const sampleRate = beep.SampleRate(44100)

// SoundManager 播放提示音；assets/sounds 下的同名文件会替换合成音
type SoundManager struct {
	mu      sync.Mutex
	buffers map[Cue]*beep.Buffer
	enabled bool
}

func NewSoundManager() *SoundManager {
	return &SoundManager{
		buffers: make(map[Cue]*beep.Buffer),
	}
}

// Init 初始化扬声器并准备提示音，失败时保持静音
func (sm *SoundManager) Init() error {
	buffers := make(map[Cue]*beep.Buffer)
	for cue, notes := range cueNotes {
		buf, err := synthesize(notes)
		if err != nil {
			return err
		}
		buffers[cue] = buf
	}
	if err := loadSoundFiles("assets/sounds", buffers); err != nil {
		return err
	}

	// Init speaker with smaller buffer for lower latency
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.buffers = buffers
	sm.enabled = true
	return nil
}

func standardFormat() beep.Format {
	return beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
}

// synthesize 把音符序列合成为缓冲
func synthesize(notes []note) (*beep.Buffer, error) {
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		length := sampleRate.N(n.length)
		if n.freq == 0 {
			parts = append(parts, beep.Silence(length))
			continue
		}
		tone, err := generators.SineTone(sampleRate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("tone %.0fHz: %w", n.freq, err)
		}
		parts = append(parts, beep.Take(length, tone))
	}
	buffer := beep.NewBuffer(standardFormat())
	buffer.Append(beep.Seq(parts...))
	return buffer, nil
}

// loadSoundFiles loads mp3/wav overrides named after a cue
func loadSoundFiles(soundDir string, buffers map[Cue]*beep.Buffer) error {
	files, err := os.ReadDir(soundDir)
	if err != nil {
		// It's okay if directory doesn't exist, just no overrides
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read sound directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		ext := strings.ToLower(filepath.Ext(name))
		cue := Cue(strings.TrimSuffix(name, filepath.Ext(name)))
		if _, known := cueNotes[cue]; !known || (ext != ".mp3" && ext != ".wav") {
			continue
		}

		buf, err := loadSoundFile(filepath.Join(soundDir, name), ext)
		if err != nil {
			// Keep the synthesized cue
			continue
		}
		buffers[cue] = buf
	}
	return nil
}

// loadSoundFile loads a single sound file into a buffer
func loadSoundFile(path, ext string) (*beep.Buffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = streamer.Close() }()

	var resampled beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		resampled = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}

	buffer := beep.NewBuffer(standardFormat())
	buffer.Append(resampled)
	return buffer, nil
}

// Play 播放提示音，未初始化时什么也不做
func (sm *SoundManager) Play(cue Cue) {
	sm.mu.Lock()
	buffer, ok := sm.buffers[cue]
	enabled := sm.enabled
	sm.mu.Unlock()
	if !enabled || !ok {
		return
	}
	speaker.Play(buffer.Streamer(0, buffer.Len()))
}

func (sm *SoundManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.enabled = false
}
