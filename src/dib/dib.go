// Package dib converts device-independent bitmaps, as found on the Windows
// clipboard (CF_DIB), into standalone images.
//
// A DIB is a BMP file without its 14-byte file header. Decoding needs the
// pixel-data offset, which depends on the info header variant, the bit-field
// masks that may follow it and the optional color table.
package dib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/jsummers/gobmp"
	"golang.org/x/image/bmp"
)

var (
	ErrMalformed   = errors.New("dib: malformed bitmap")
	ErrUnsupported = errors.New("dib: unsupported bitmap")
)

const fileHeaderLen = 14

// Info header sizes.
const (
	coreHeaderLen = 12
	infoHeaderLen = 40
	v2HeaderLen   = 52
	v3HeaderLen   = 56
	v4HeaderLen   = 108
	v5HeaderLen   = 124
)

// Compression values.
const (
	biRGB            = 0
	biRLE8           = 1
	biRLE4           = 2
	biBitfields      = 3
	biJPEG           = 4
	biPNG            = 5
	biAlphaBitfields = 6
)

// maxDimension bounds width and height so size arithmetic cannot overflow.
const maxDimension = 1 << 16

// Header is the subset of the info header needed to locate pixel data.
type Header struct {
	Size        uint32
	Width       int32
	Height      int32 // negative for top-down bitmaps
	Planes      uint16
	BitCount    uint16
	Compression uint32
	ImageSize   uint32
	ColorsUsed  uint32
}

var le = binary.LittleEndian

// ParseHeader reads and validates the info header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < 4 {
		return Header{}, fmt.Errorf("%w: %d bytes is too short for a header", ErrMalformed, len(b))
	}
	h := Header{Size: le.Uint32(b)}
	switch h.Size {
	case coreHeaderLen, infoHeaderLen, v2HeaderLen, v3HeaderLen, v4HeaderLen, v5HeaderLen:
	default:
		return Header{}, fmt.Errorf("%w: unknown header size %d", ErrMalformed, h.Size)
	}
	if len(b) < int(h.Size) {
		return Header{}, fmt.Errorf("%w: header truncated at %d of %d bytes", ErrMalformed, len(b), h.Size)
	}

	if h.Size == coreHeaderLen {
		h.Width = int32(le.Uint16(b[4:]))
		h.Height = int32(le.Uint16(b[6:]))
		h.Planes = le.Uint16(b[8:])
		h.BitCount = le.Uint16(b[10:])
	} else {
		h.Width = int32(le.Uint32(b[4:]))
		h.Height = int32(le.Uint32(b[8:]))
		h.Planes = le.Uint16(b[12:])
		h.BitCount = le.Uint16(b[14:])
		h.Compression = le.Uint32(b[16:])
		h.ImageSize = le.Uint32(b[20:])
		h.ColorsUsed = le.Uint32(b[32:])
	}

	if h.Planes != 1 {
		return Header{}, fmt.Errorf("%w: %d planes", ErrMalformed, h.Planes)
	}
	if h.Width <= 0 || h.Width > maxDimension || h.Height == 0 || h.Height > maxDimension || h.Height < -maxDimension {
		return Header{}, fmt.Errorf("%w: dimensions %dx%d", ErrMalformed, h.Width, h.Height)
	}
	switch h.BitCount {
	case 1, 4, 8, 16, 24, 32:
	default:
		return Header{}, fmt.Errorf("%w: %d bits per pixel", ErrUnsupported, h.BitCount)
	}
	switch h.Compression {
	case biRGB, biRLE8, biRLE4, biBitfields, biAlphaBitfields:
	case biJPEG, biPNG:
		return Header{}, fmt.Errorf("%w: embedded JPEG/PNG compression", ErrUnsupported)
	default:
		return Header{}, fmt.Errorf("%w: compression %d", ErrUnsupported, h.Compression)
	}
	return h, nil
}

// PaletteEntries is the number of color table entries after the header.
func (h Header) PaletteEntries() int {
	if h.BitCount <= 8 {
		max := uint32(1) << h.BitCount
		if h.ColorsUsed == 0 || h.ColorsUsed > max {
			return int(max)
		}
		return int(h.ColorsUsed)
	}
	// Optional table for palette optimization on true-color bitmaps.
	return int(h.ColorsUsed)
}

func (h Header) paletteEntrySize() int {
	if h.Size == coreHeaderLen {
		return 3
	}
	return 4
}

// MaskBytes is the size of the bit-field masks stored after a 40-byte
// header. Later header versions carry the masks inside the header.
func (h Header) MaskBytes() int {
	if h.Size != infoHeaderLen {
		return 0
	}
	switch h.Compression {
	case biBitfields:
		return 12
	case biAlphaBitfields:
		return 16
	}
	return 0
}

// PixelOffset is the offset of the pixel array from the start of the DIB.
func (h Header) PixelOffset() int {
	return int(h.Size) + h.MaskBytes() + h.PaletteEntries()*h.paletteEntrySize()
}

// Stride is the padded byte length of one uncompressed row.
func (h Header) Stride() int {
	return ((int(h.Width)*int(h.BitCount) + 31) / 32) * 4
}

func (h Header) rows() int {
	if h.Height < 0 {
		return int(-h.Height)
	}
	return int(h.Height)
}

// pixelBytes is the minimum pixel array length the header promises.
func (h Header) pixelBytes() int {
	switch h.Compression {
	case biRLE4, biRLE8:
		return int(h.ImageSize)
	}
	return h.Stride() * h.rows()
}

// validateLength checks that dib holds the color table and pixel array.
func validateLength(dib []byte, h Header) error {
	off := h.PixelOffset()
	if off > len(dib) {
		return fmt.Errorf("%w: pixel data offset %d beyond buffer of %d bytes", ErrMalformed, off, len(dib))
	}
	need := h.pixelBytes()
	if (h.Compression == biRLE4 || h.Compression == biRLE8) && need == 0 {
		return fmt.Errorf("%w: compressed bitmap without image size", ErrMalformed)
	}
	if len(dib)-off < need {
		return fmt.Errorf("%w: pixel data truncated, have %d of %d bytes", ErrMalformed, len(dib)-off, need)
	}
	return nil
}

// FileHeader synthesizes the 14-byte BMP file header for a DIB of dibLen
// bytes whose pixels start at pixelOffset.
func FileHeader(dibLen, pixelOffset int) []byte {
	fh := make([]byte, fileHeaderLen)
	fh[0], fh[1] = 'B', 'M'
	le.PutUint32(fh[2:], uint32(fileHeaderLen+dibLen))
	le.PutUint32(fh[10:], uint32(fileHeaderLen+pixelOffset))
	return fh
}

// ToBMP validates dib and returns a complete BMP file. Header variants the
// common decoders reject are rewritten to an equivalent 40-byte header.
func ToBMP(dib []byte) ([]byte, error) {
	h, err := ParseHeader(dib)
	if err != nil {
		return nil, err
	}
	if err := validateLength(dib, h); err != nil {
		return nil, err
	}

	canon, err := canonicalize(dib, h)
	if err != nil {
		return nil, err
	}
	ch, err := ParseHeader(canon)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, fileHeaderLen+len(canon))
	out = append(out, FileHeader(len(canon), ch.PixelOffset())...)
	return append(out, canon...), nil
}

// Decode converts dib into an image.
func Decode(dib []byte) (image.Image, error) {
	file, err := ToBMP(dib)
	if err != nil {
		return nil, err
	}
	img, err := bmp.Decode(bytes.NewReader(file))
	if err == nil {
		return img, nil
	}
	img, gerr := gobmp.Decode(bytes.NewReader(file))
	if gerr == nil {
		return img, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, gerr)
}

// ToPNG converts dib into PNG bytes.
func ToPNG(dib []byte) ([]byte, error) {
	img, err := Decode(dib)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
