package dashboard

import (
	"image/color"

	"cruise/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay exposes a rectangular region of an RGB565 framebuffer as a
// drivers.Displayer. Coordinates are relative to the region.
type fbDisplay struct {
	fb   hal.Framebuffer
	x0   int
	y0   int
	w    int
	h    int
	skip bool
}

func newFBDisplay(fb hal.Framebuffer, x0, y0, w, h int) *fbDisplay {
	d := &fbDisplay{fb: fb, x0: x0, y0: y0, w: w, h: h}
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 || fb.Buffer() == nil {
		d.skip = true
		return d
	}
	if x0+w > fb.Width() {
		d.w = fb.Width() - x0
	}
	if y0+h > fb.Height() {
		d.h = fb.Height() - y0
	}
	if d.w <= 0 || d.h <= 0 {
		d.skip = true
	}
	return d
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.skip {
		return 0, 0
	}
	return int16(d.w), int16(d.h)
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.skip {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.w || iy < 0 || iy >= d.h {
		return
	}
	buf := d.fb.Buffer()
	pixel := rgb565From888(c.R, c.G, c.B)
	off := (d.y0+iy)*d.fb.StrideBytes() + (d.x0+ix)*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	return nil
}

// ScrollUp moves the region content up by lines and clears the exposed rows.
func (d *fbDisplay) ScrollUp(lines int16, bg color.RGBA) error {
	if d.skip || lines <= 0 {
		return nil
	}
	n := int(lines)
	if n >= d.h {
		return d.FillRectangle(0, 0, int16(d.w), int16(d.h), bg)
	}

	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	rowBytes := d.w * 2
	for y := 0; y < d.h-n; y++ {
		dst := (d.y0+y)*stride + d.x0*2
		src := (d.y0+y+n)*stride + d.x0*2
		if src+rowBytes > len(buf) {
			break
		}
		copy(buf[dst:dst+rowBytes], buf[src:src+rowBytes])
	}
	return d.FillRectangle(0, int16(d.h-n), int16(d.w), int16(n), bg)
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.skip {
		return nil
	}
	x0 := clampInt(int(x), 0, d.w)
	y0 := clampInt(int(y), 0, d.h)
	x1 := clampInt(int(x)+int(width), 0, d.w)
	y1 := clampInt(int(y)+int(height), 0, d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	buf := d.fb.Buffer()
	pixel := rgb565From888(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := (d.y0 + py) * stride
		for px := x0; px < x1; px++ {
			off := row + (d.x0+px)*2
			if off < 0 || off+1 >= len(buf) {
				continue
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

func (d *fbDisplay) SetScroll(line int16) {
	_ = line
}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
