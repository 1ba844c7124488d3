// Package oled drives an SSD1306 128x64 monochrome panel over I2C.
//
// The panel keeps a local page-ordered frame buffer and satisfies
// tinygo.org/x/drivers.Displayer, so tinyfont draws into it directly. Only
// the I2C transfers touch the hardware; any drivers.I2C works, including
// the Linux i2c-dev adapter in internal/i2c.
package oled

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Panel geometry of the common 0.96" module.
const (
	Width  = 128
	Height = 64

	DefaultAddress = 0x3C
)

const pages = Height / 8

// Control bytes that prefix every I2C write.
const (
	ctrlCommand = 0x00
	ctrlData    = 0x40
)

// SSD1306 commands.
const (
	cmdDisplayOff       = 0xAE
	cmdDisplayOn        = 0xAF
	cmdClockDiv         = 0xD5
	cmdMultiplex        = 0xA8
	cmdDisplayOffset    = 0xD3
	cmdStartLine        = 0x40
	cmdChargePump       = 0x8D
	cmdMemoryMode       = 0x20
	cmdSegRemap         = 0xA1
	cmdComScanDec       = 0xC8
	cmdComPins          = 0xDA
	cmdContrast         = 0x81
	cmdPrecharge        = 0xD9
	cmdVcomDetect       = 0xDB
	cmdResumeRAM        = 0xA4
	cmdNormalDisplay    = 0xA6
	cmdDeactivateScroll = 0x2E
	cmdColumnAddr       = 0x21
	cmdPageAddr         = 0x22
)

// initSequence configures a 128x64 panel on the internal charge pump.
var initSequence = []byte{
	cmdDisplayOff,
	cmdClockDiv, 0x80,
	cmdMultiplex, Height - 1,
	cmdDisplayOffset, 0x00,
	cmdStartLine | 0x00,
	cmdChargePump, 0x14,
	cmdMemoryMode, 0x00, // horizontal addressing
	cmdSegRemap,
	cmdComScanDec,
	cmdComPins, 0x12,
	cmdContrast, 0xCF,
	cmdPrecharge, 0xF1,
	cmdVcomDetect, 0x40,
	cmdResumeRAM,
	cmdNormalDisplay,
	cmdDeactivateScroll,
	cmdDisplayOn,
}

// Text placement relative to the top of a row.
const (
	baseline    = 6
	bannerAbove = 2
	bannerBelow = 10
)

var (
	lit  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	dark = color.RGBA{A: 255}
)

var _ drivers.Displayer = (*Panel)(nil)

// Panel is an SSD1306 behind an I2C address. Not safe for concurrent use.
type Panel struct {
	bus  drivers.I2C
	addr uint16
	buf  [Width * pages]byte
}

// New initialises the panel at addr (0 selects DefaultAddress) and blanks it.
func New(bus drivers.I2C, addr uint16) (*Panel, error) {
	if addr == 0 {
		addr = DefaultAddress
	}
	p := &Panel{bus: bus, addr: addr}
	if err := p.command(initSequence...); err != nil {
		return nil, fmt.Errorf("ssd1306 init at 0x%02x: %w", addr, err)
	}
	if err := p.Display(); err != nil {
		return nil, fmt.Errorf("ssd1306 init at 0x%02x: %w", addr, err)
	}
	return p, nil
}

// Size returns the panel resolution.
func (p *Panel) Size() (x, y int16) {
	return Width, Height
}

// SetPixel sets one pixel in the frame buffer. Any colour with a non-zero
// channel lights the pixel. Out-of-range coordinates are ignored.
func (p *Panel) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := int(x) + int(y/8)*Width
	bit := byte(1) << (uint(y) % 8)
	if c.R != 0 || c.G != 0 || c.B != 0 {
		p.buf[i] |= bit
	} else {
		p.buf[i] &^= bit
	}
}

// Pixel reports whether the pixel at (x, y) is lit in the frame buffer.
func (p *Panel) Pixel(x, y int16) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return p.buf[int(x)+int(y/8)*Width]&(1<<(uint(y)%8)) != 0
}

// Display sends the frame buffer to the panel, one page per transfer.
func (p *Panel) Display() error {
	if err := p.command(cmdColumnAddr, 0, Width-1, cmdPageAddr, 0, pages-1); err != nil {
		return err
	}
	var chunk [Width + 1]byte
	chunk[0] = ctrlData
	for page := 0; page < pages; page++ {
		copy(chunk[1:], p.buf[page*Width:(page+1)*Width])
		if err := p.bus.Tx(p.addr, chunk[:], nil); err != nil {
			return fmt.Errorf("ssd1306 page %d: %w", page, err)
		}
	}
	return nil
}

// Clear blanks the frame buffer.
func (p *Panel) Clear() {
	p.buf = [Width * pages]byte{}
}

// DrawText draws text in the TomThumb font with its top-left corner at
// (x, y). Inverted text is drawn dark on a lit full-width banner.
func (p *Panel) DrawText(text string, x, y int16, inverted bool) {
	c := lit
	if inverted {
		p.fillRows(y-bannerAbove, y+bannerBelow)
		c = dark
	}
	tinyfont.WriteLine(p, &tinyfont.TomThumb, x, y+baseline, text, c)
}

// Present sends the frame buffer to the panel.
func (p *Panel) Present() error {
	return p.Display()
}

func (p *Panel) fillRows(top, bottom int16) {
	top = max(top, 0)
	bottom = min(bottom, Height)
	for y := top; y < bottom; y++ {
		for x := int16(0); x < Width; x++ {
			p.SetPixel(x, y, lit)
		}
	}
}

func (p *Panel) command(cmds ...byte) error {
	w := make([]byte, 0, len(cmds)+1)
	w = append(w, ctrlCommand)
	w = append(w, cmds...)
	if err := p.bus.Tx(p.addr, w, nil); err != nil {
		return fmt.Errorf("ssd1306 command: %w", err)
	}
	return nil
}
