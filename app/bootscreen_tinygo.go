//go:build tinygo && bootdebug

package app

import (
	"image/color"

	"cruise/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

func bootScreen(h hal.HAL, msg string) {
	bootDiagSetStep(msg)
	bootDiagStart(h)
	if h == nil {
		return
	}
	disp := h.Display()
	if disp == nil {
		return
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return
	}

	fb.ClearRGB(0, 0, 0)

	d := panicDisplay{fb: fb}
	font := &proggy.TinySZ8pt7b
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(d, font, 0, 10, "Cruise boot", fg)
	tinyfont.WriteLine(d, font, 0, 22, msg, fg)
	_ = fb.Present()
}
