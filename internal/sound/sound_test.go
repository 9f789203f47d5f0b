//go:build !ci

package sound

import (
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	for cue, notes := range cueNotes {
		buf, err := synthesize(notes)
		require.NoError(t, err, cue)

		total := 0
		for _, n := range notes {
			total += sampleRate.N(n.length)
		}
		assert.Equal(t, total, buf.Len(), cue)
	}
}

func TestLoadSoundFiles_MissingDir(t *testing.T) {
	t.Parallel()

	buffers := make(map[Cue]*beep.Buffer)
	assert.NoError(t, loadSoundFiles(t.TempDir()+"/missing", buffers))
	assert.Empty(t, buffers)
}

func TestPlay_Disabled(t *testing.T) {
	t.Parallel()

	sm := NewSoundManager()
	assert.NotPanics(t, func() { sm.Play(CueWin) })
	sm.Close()
}
