package dib

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(size uint32, w, h int32, bpp uint16, comp, colorsUsed uint32) []byte {
	b := make([]byte, size)
	le.PutUint32(b, size)
	le.PutUint32(b[4:], uint32(w))
	le.PutUint32(b[8:], uint32(h))
	le.PutUint16(b[12:], 1)
	le.PutUint16(b[14:], bpp)
	le.PutUint32(b[16:], comp)
	le.PutUint32(b[32:], colorsUsed)
	return b
}

func rgb(img image.Image, x, y int) [4]uint32 {
	r, g, b, a := img.At(x, y).RGBA()
	return [4]uint32{r >> 8, g >> 8, b >> 8, a >> 8}
}

// 3x2 24-bit bottom-up: top row blue, bottom-left pixel red.
func sample24() []byte {
	d := header(infoHeaderLen, 3, 2, 24, biRGB, 0)
	bottom := []byte{0, 0, 255, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	top := []byte{255, 0, 0, 255, 0, 0, 255, 0, 0, 0, 0, 0}
	d = append(d, bottom...)
	return append(d, top...)
}

func TestToPNGInfoHeader24Bit(t *testing.T) {
	out, err := ToPNG(sample24())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, [4]uint32{0, 0, 255, 255}, rgb(img, 0, 0))
	assert.Equal(t, [4]uint32{255, 0, 0, 255}, rgb(img, 0, 1))
}

func TestDecodeTopDown(t *testing.T) {
	d := header(infoHeaderLen, 1, -2, 24, biRGB, 0)
	d = append(d, 0, 0, 255, 0) // row 0 red
	d = append(d, 0, 255, 0, 0) // row 1 green

	img, err := Decode(d)
	require.NoError(t, err)
	assert.Equal(t, [4]uint32{255, 0, 0, 255}, rgb(img, 0, 0))
	assert.Equal(t, [4]uint32{0, 255, 0, 255}, rgb(img, 0, 1))
}

func TestDecode32BitBitfieldsIsOpaque(t *testing.T) {
	d := header(infoHeaderLen, 2, 1, 32, biBitfields, 0)
	masks := make([]byte, 12)
	le.PutUint32(masks, maskRed)
	le.PutUint32(masks[4:], maskGreen)
	le.PutUint32(masks[8:], maskBlue)
	d = append(d, masks...)
	d = append(d, 10, 20, 30, 0, 40, 50, 60, 0)

	h, err := ParseHeader(d)
	require.NoError(t, err)
	assert.Equal(t, 52, h.PixelOffset())

	img, err := Decode(d)
	require.NoError(t, err)
	assert.Equal(t, [4]uint32{30, 20, 10, 255}, rgb(img, 0, 0))
	assert.Equal(t, [4]uint32{60, 50, 40, 255}, rgb(img, 1, 0))
}

func TestDecodePalette8Bit(t *testing.T) {
	d := header(infoHeaderLen, 2, 1, 8, biRGB, 2)
	d = append(d, 0, 0, 0, 0, 0, 255, 0, 0)
	d = append(d, 1, 0, 0, 0)

	h, err := ParseHeader(d)
	require.NoError(t, err)
	assert.Equal(t, 2, h.PaletteEntries())
	assert.Equal(t, 48, h.PixelOffset())

	img, err := Decode(d)
	require.NoError(t, err)
	assert.Equal(t, [4]uint32{0, 255, 0, 255}, rgb(img, 0, 0))
	assert.Equal(t, [4]uint32{0, 0, 0, 255}, rgb(img, 1, 0))
}

func TestDecodeCoreHeader(t *testing.T) {
	d := make([]byte, coreHeaderLen)
	le.PutUint32(d, coreHeaderLen)
	le.PutUint16(d[4:], 1)
	le.PutUint16(d[6:], 1)
	le.PutUint16(d[8:], 1)
	le.PutUint16(d[10:], 24)
	d = append(d, 255, 0, 0, 0)

	img, err := Decode(d)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
	assert.Equal(t, [4]uint32{0, 0, 255, 255}, rgb(img, 0, 0))
}

func TestDecodeV3HeaderMasks(t *testing.T) {
	d := header(v3HeaderLen, 1, 1, 32, biBitfields, 0)
	le.PutUint32(d[40:], maskRed)
	le.PutUint32(d[44:], maskGreen)
	le.PutUint32(d[48:], maskBlue)
	le.PutUint32(d[52:], 0xFF000000)
	d = append(d, 1, 2, 3, 0)

	img, err := Decode(d)
	require.NoError(t, err)
	assert.Equal(t, [4]uint32{3, 2, 1, 255}, rgb(img, 0, 0))
}

func v5Bitfields(pixels ...byte) []byte {
	d := header(v5HeaderLen, int32(len(pixels)/4), 1, 32, biBitfields, 0)
	le.PutUint32(d[40:], maskRed)
	le.PutUint32(d[44:], maskGreen)
	le.PutUint32(d[48:], maskBlue)
	le.PutUint32(d[52:], 0xFF000000)
	return append(d, pixels...)
}

func TestDecodeV5ZeroAlphaIsOpaque(t *testing.T) {
	img, err := Decode(v5Bitfields(10, 20, 30, 0, 40, 50, 60, 0))
	require.NoError(t, err)
	assert.Equal(t, [4]uint32{30, 20, 10, 255}, rgb(img, 0, 0))
	assert.Equal(t, [4]uint32{60, 50, 40, 255}, rgb(img, 1, 0))
}

func TestCanonicalizeKeepsV5WithAlpha(t *testing.T) {
	d := v5Bitfields(10, 20, 30, 128, 40, 50, 60, 0)
	h, err := ParseHeader(d)
	require.NoError(t, err)

	out, err := canonicalize(d, h)
	require.NoError(t, err)
	assert.Equal(t, d, out)

	zero := v5Bitfields(10, 20, 30, 0)
	h, err = ParseHeader(zero)
	require.NoError(t, err)
	out, err = canonicalize(zero, h)
	require.NoError(t, err)
	assert.Equal(t, uint32(infoHeaderLen), le.Uint32(out))
	assert.Equal(t, uint32(biRGB), le.Uint32(out[16:]))
	assert.Equal(t, []byte{10, 20, 30, 0}, out[infoHeaderLen:])
}

func TestFileHeader(t *testing.T) {
	fh := FileHeader(100, 54)
	require.Len(t, fh, 14)
	assert.Equal(t, []byte("BM"), fh[:2])
	assert.Equal(t, uint32(114), le.Uint32(fh[2:]))
	assert.Equal(t, uint32(68), le.Uint32(fh[10:]))
}

func TestMalformedAndUnsupported(t *testing.T) {
	truncated := sample24()
	truncated = truncated[:len(truncated)-5]

	badSize := sample24()
	le.PutUint32(badSize, 99)

	badPlanes := sample24()
	le.PutUint16(badPlanes[12:], 2)

	zeroHeight := header(infoHeaderLen, 1, 0, 24, biRGB, 0)

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrMalformed},
		{"short", []byte{40, 0}, ErrMalformed},
		{"unknown header size", badSize, ErrMalformed},
		{"header truncated", sample24()[:20], ErrMalformed},
		{"pixels truncated", truncated, ErrMalformed},
		{"planes", badPlanes, ErrMalformed},
		{"zero height", zeroHeight, ErrMalformed},
		{"palette beyond buffer", header(infoHeaderLen, 1, 1, 8, biRGB, 0), ErrMalformed},
		{"bit depth", header(infoHeaderLen, 1, 1, 7, biRGB, 0), ErrUnsupported},
		{"embedded png", header(infoHeaderLen, 1, 1, 24, biPNG, 0), ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToPNG(tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
