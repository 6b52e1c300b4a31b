//go:build !windows

package clipboard

import (
	"golang.design/x/clipboard"
)

// systemSource reads through golang.design/x/clipboard, which already
// returns images as PNG and has no separate availability query.
type systemSource struct{}

func NewSystemSource() (Source, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return systemSource{}, nil
}

func (systemSource) Available(Format) (bool, error) { return true, nil }

func (systemSource) ReadText() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (systemSource) ReadImage() ([]byte, Encoding, error) {
	return clipboard.Read(clipboard.FmtImage), EncodingPNG, nil
}

func (systemSource) WriteText(s string) error {
	return writeSystemText(s)
}
