package dib

const (
	maskRed   = 0x00FF0000
	maskGreen = 0x0000FF00
	maskBlue  = 0x000000FF
)

// canonicalize rewrites header variants into the 40-byte form with the
// same pixel layout. v4 and v5 headers are kept unless their alpha is unused.
func canonicalize(dib []byte, h Header) ([]byte, error) {
	switch h.Size {
	case coreHeaderLen:
		return fromCore(dib, h), nil
	case v2HeaderLen, v3HeaderLen:
		return stripStandardMasks(fromV2V3(dib, h)), nil
	case infoHeaderLen:
		return stripStandardMasks(dib), nil
	case v4HeaderLen, v5HeaderLen:
		return fromV4V5(dib, h), nil
	}
	return dib, nil
}

// fromCore widens a BITMAPCOREHEADER and its 3-byte palette entries.
func fromCore(dib []byte, h Header) []byte {
	entries := h.PaletteEntries()
	pixels := dib[h.PixelOffset():]

	out := make([]byte, infoHeaderLen, infoHeaderLen+entries*4+len(pixels))
	le.PutUint32(out[0:], infoHeaderLen)
	le.PutUint32(out[4:], uint32(h.Width))
	le.PutUint32(out[8:], uint32(h.Height))
	le.PutUint16(out[12:], 1)
	le.PutUint16(out[14:], h.BitCount)
	le.PutUint32(out[32:], uint32(entries))

	pal := dib[coreHeaderLen:]
	for i := 0; i < entries; i++ {
		out = append(out, pal[i*3], pal[i*3+1], pal[i*3+2], 0)
	}
	return append(out, pixels...)
}

// fromV2V3 moves the in-header masks of a 52 or 56 byte header behind a
// 40-byte header, where BI_BITFIELDS readers expect them.
func fromV2V3(dib []byte, h Header) []byte {
	bitfields := h.Compression == biBitfields || h.Compression == biAlphaBitfields
	rest := dib[h.Size:]

	out := make([]byte, infoHeaderLen, infoHeaderLen+12+len(rest))
	copy(out, dib[:infoHeaderLen])
	le.PutUint32(out[0:], infoHeaderLen)
	if bitfields {
		le.PutUint32(out[16:], biBitfields)
		out = append(out, dib[infoHeaderLen:infoHeaderLen+12]...)
	}
	return append(out, rest...)
}

// stripStandardMasks turns 32-bit BI_BITFIELDS data with the usual BGRX
// layout into plain BI_RGB, which every decoder accepts.
func stripStandardMasks(dib []byte) []byte {
	if le.Uint32(dib) != infoHeaderLen || le.Uint16(dib[14:]) != 32 {
		return dib
	}
	comp := le.Uint32(dib[16:])
	if comp != biBitfields && comp != biAlphaBitfields {
		return dib
	}
	maskLen := 12
	if comp == biAlphaBitfields {
		maskLen = 16
	}
	if len(dib) < infoHeaderLen+maskLen {
		return dib
	}
	masks := dib[infoHeaderLen:]
	if le.Uint32(masks) != maskRed || le.Uint32(masks[4:]) != maskGreen || le.Uint32(masks[8:]) != maskBlue {
		return dib
	}

	out := make([]byte, infoHeaderLen, len(dib)-maskLen)
	copy(out, dib[:infoHeaderLen])
	le.PutUint32(out[16:], biRGB)
	return append(out, dib[infoHeaderLen+maskLen:]...)
}

// fromV4V5 rewrites a 32-bit BGRX v4/v5 bitmap whose alpha bytes are all
// zero as plain BI_RGB. Decoders honour v4/v5 alpha, and a zero alpha
// channel would otherwise come out fully transparent.
func fromV4V5(dib []byte, h Header) []byte {
	if h.BitCount != 32 {
		return dib
	}
	switch h.Compression {
	case biRGB:
	case biBitfields, biAlphaBitfields:
		if le.Uint32(dib[40:]) != maskRed || le.Uint32(dib[44:]) != maskGreen || le.Uint32(dib[48:]) != maskBlue {
			return dib
		}
	default:
		return dib
	}

	n := h.pixelBytes()
	pixels := dib[h.PixelOffset():]
	if len(pixels) < n {
		return dib
	}
	pixels = pixels[:n]
	for i := 3; i < n; i += 4 {
		if pixels[i] != 0 {
			return dib
		}
	}

	out := make([]byte, infoHeaderLen, infoHeaderLen+n)
	copy(out, dib[:infoHeaderLen])
	le.PutUint32(out[0:], infoHeaderLen)
	le.PutUint32(out[16:], biRGB)
	le.PutUint32(out[32:], 0)
	le.PutUint32(out[36:], 0)
	return append(out, pixels...)
}
