//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

// Operator keys: pedals and the cruise button are held, switches are
// toggled, digits select the overload level.
var runeKeys = []struct {
	key ebiten.Key
	r   rune
}{
	{ebiten.KeyG, 'g'},
	{ebiten.KeyB, 'b'},
	{ebiten.KeyC, 'c'},
	{ebiten.KeyE, 'e'},
	{ebiten.KeyT, 't'},
	{ebiten.KeyDigit0, '0'},
	{ebiten.KeyDigit1, '1'},
	{ebiten.KeyDigit2, '2'},
	{ebiten.KeyDigit3, '3'},
	{ebiten.KeyDigit4, '4'},
	{ebiten.KeyDigit5, '5'},
	{ebiten.KeyDigit6, '6'},
	{ebiten.KeyDigit7, '7'},
	{ebiten.KeyDigit8, '8'},
	{ebiten.KeyDigit9, '9'},
}

func (k *hostKeyboard) poll() {
	emit := func(ev KeyEvent) {
		select {
		case k.ch <- ev:
		default:
		}
	}

	for _, rk := range runeKeys {
		if inpututil.IsKeyJustPressed(rk.key) {
			emit(KeyEvent{Press: true, Rune: rk.r})
		}
		if inpututil.IsKeyJustReleased(rk.key) {
			emit(KeyEvent{Press: false, Rune: rk.r})
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		emit(KeyEvent{Code: KeyEscape, Press: true})
	}
}
