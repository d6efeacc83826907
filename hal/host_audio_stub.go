//go:build !tinygo && !cgo

package hal

import "time"

// hostAudio is a stub when CGO/window backends are unavailable.
type hostAudio struct{}

func newHostAudio() Audio { return hostAudio{} }

func (hostAudio) Beep(uint32, time.Duration) {}
