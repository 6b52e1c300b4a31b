package clipboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gpttrans/src/dib"
)

// ErrBusy means another application holds the clipboard open. It is the
// only error that is retried.
var ErrBusy = errors.New("clipboard busy")

const (
	readRetries   = 3
	retryInterval = 100 * time.Millisecond
)

type Format int

const (
	FormatText Format = iota
	FormatImage
)

func (f Format) String() string {
	if f == FormatImage {
		return "image"
	}
	return "text"
}

// Encoding describes how a Source returns image bytes.
type Encoding int

const (
	EncodingDIB Encoding = iota
	EncodingPNG
)

// Source is a platform clipboard.
type Source interface {
	Available(f Format) (bool, error)
	ReadText() (string, error)
	ReadImage() ([]byte, Encoding, error)
	WriteText(s string) error
}

type Kind int

const (
	Empty Kind = iota
	Text
	Image
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Image:
		return "image"
	}
	return "empty"
}

// Payload is what one hotkey press captured.
type Payload struct {
	Kind  Kind
	Text  string
	Image []byte
	MIME  string
}

// Gateway adds retry and format normalization on top of a Source.
type Gateway struct {
	src     Source
	logger  *zap.SugaredLogger
	sleep   func(time.Duration)
	writeMu sync.Mutex
}

func New(src Source, logger *zap.SugaredLogger) *Gateway {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Gateway{src: src, logger: logger, sleep: time.Sleep}
}

var errNoData = errors.New("no data")

// withRetry runs fn and retries while it reports ErrBusy, up to readRetries
// extra attempts spaced retryInterval apart.
func (g *Gateway) withRetry(op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if !errors.Is(err, ErrBusy) || attempt == readRetries {
			return err
		}
		g.logger.Debugw("clipboard busy, retrying", "op", op, "attempt", attempt+1)
		g.sleep(retryInterval)
	}
}

// ReadText returns the clipboard text, or false when there is none or the
// clipboard stayed busy.
func (g *Gateway) ReadText() (string, bool) {
	var text string
	err := g.withRetry("read text", func() error {
		ok, err := g.src.Available(FormatText)
		if err != nil {
			return err
		}
		if !ok {
			return errNoData
		}
		text, err = g.src.ReadText()
		return err
	})
	switch {
	case err == nil:
		return text, text != ""
	case errors.Is(err, errNoData):
	default:
		g.logger.Warnw("clipboard text read failed", "error", err)
	}
	return "", false
}

// ImageData is a displayable clipboard image.
type ImageData struct {
	Data []byte
	MIME string
}

// ReadImage returns the clipboard image as PNG. Raw bitmaps are converted;
// a malformed bitmap fails without retry.
func (g *Gateway) ReadImage() (ImageData, bool) {
	var (
		raw []byte
		enc Encoding
	)
	err := g.withRetry("read image", func() error {
		ok, err := g.src.Available(FormatImage)
		if err != nil {
			return err
		}
		if !ok {
			return errNoData
		}
		raw, enc, err = g.src.ReadImage()
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, errNoData):
		return ImageData{}, false
	default:
		g.logger.Warnw("clipboard image read failed", "error", err)
		return ImageData{}, false
	}
	if len(raw) == 0 {
		return ImageData{}, false
	}

	if enc == EncodingPNG {
		return ImageData{Data: raw, MIME: "image/png"}, true
	}
	data, err := dib.ToPNG(raw)
	if err != nil {
		g.logger.Warnw("clipboard bitmap rejected", "bytes", len(raw), "error", err)
		return ImageData{}, false
	}
	return ImageData{Data: data, MIME: "image/png"}, true
}

// WriteText makes a single attempt to place s on the clipboard.
func (g *Gateway) WriteText(s string) bool {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	if err := g.src.WriteText(s); err != nil {
		g.logger.Warnw("clipboard write failed", "error", err)
		return false
	}
	return true
}

// Capture reads non-blank text first, then an image.
func (g *Gateway) Capture() Payload {
	if text, ok := g.ReadText(); ok && strings.TrimSpace(text) != "" {
		return Payload{Kind: Text, Text: text}
	}
	if img, ok := g.ReadImage(); ok {
		return Payload{Kind: Image, Image: img.Data, MIME: img.MIME}
	}
	return Payload{Kind: Empty}
}

func (p Payload) String() string {
	switch p.Kind {
	case Text:
		return fmt.Sprintf("text(%d chars)", len([]rune(p.Text)))
	case Image:
		return fmt.Sprintf("image(%s, %d bytes)", p.MIME, len(p.Image))
	}
	return "empty"
}
