package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 16

var (
	iconOnce sync.Once
	iconPNG  []byte
	iconICO  []byte
)

// IconPNG returns the 16x16 tray icon as PNG.
func IconPNG() []byte {
	iconOnce.Do(buildIcons)
	return iconPNG
}

// IconICO returns the same icon wrapped in an ICO container, which is what
// the Windows tray expects.
func IconICO() []byte {
	iconOnce.Do(buildIcons)
	return iconICO
}

func buildIcons() {
	iconPNG = renderIcon()
	iconICO = wrapICO(iconPNG, iconSize)
}

// renderIcon draws a white "T" on a teal tile with clipped corners.
func renderIcon() []byte {
	teal := color.NRGBA{R: 0x00, G: 0x80, B: 0x80, A: 0xff}
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	last := iconSize - 1
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			corner := (x == 0 || x == last) && (y == 0 || y == last)
			if !corner {
				img.SetNRGBA(x, y, teal)
			}
		}
	}
	for x := 3; x <= 12; x++ {
		img.SetNRGBA(x, 3, white)
		img.SetNRGBA(x, 4, white)
	}
	for y := 5; y <= 12; y++ {
		img.SetNRGBA(7, y, white)
		img.SetNRGBA(8, y, white)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// wrapICO builds a single-image ICO file with PNG payload.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Reserved, Type, Count uint16
	}{0, 1, 1})
	// ICONDIRENTRY
	_ = binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{uint8(size), uint8(size), 0, 0, 1, 32, uint32(len(pngData)), 6 + 16})
	buf.Write(pngData)
	return buf.Bytes()
}
