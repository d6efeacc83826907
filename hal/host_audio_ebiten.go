//go:build !tinygo && cgo

package hal

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

const hostSampleRate = 44100

var (
	audioOnce sync.Once
	audioCtx  *audio.Context
)

// hostAudio plays annunciator tones through Ebiten's audio package.
type hostAudio struct {
	mu      sync.Mutex
	players []*audio.Player
}

func newHostAudio() Audio {
	return &hostAudio{}
}

func (a *hostAudio) Beep(freqHz uint32, d time.Duration) {
	if freqHz == 0 || d <= 0 {
		return
	}
	audioOnce.Do(func() {
		audioCtx = audio.NewContext(hostSampleRate)
	})

	p := audioCtx.NewPlayerFromBytes(squareWave(freqHz, d, hostSampleRate))
	p.SetVolume(0.25)
	p.Play()

	a.mu.Lock()
	defer a.mu.Unlock()
	live := a.players[:0]
	for _, old := range a.players {
		if old.IsPlaying() {
			live = append(live, old)
			continue
		}
		_ = old.Close()
	}
	a.players = append(live, p)
}

// squareWave renders 16-bit little-endian stereo samples.
func squareWave(freqHz uint32, d time.Duration, sampleRate int) []byte {
	n := int(int64(sampleRate) * int64(d) / int64(time.Second))
	half := sampleRate / int(freqHz) / 2
	if half <= 0 {
		half = 1
	}
	const amp = 12000
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		s := int16(amp)
		if (i/half)%2 == 1 {
			s = -amp
		}
		j := i * 4
		buf[j+0] = byte(s)
		buf[j+1] = byte(s >> 8)
		buf[j+2] = byte(s)
		buf[j+3] = byte(s >> 8)
	}
	return buf
}
