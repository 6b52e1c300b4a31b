package clipboard

import (
	"errors"

	"golang.design/x/clipboard"
)

// ErrWriteFailed means the platform refused the clipboard write.
var ErrWriteFailed = errors.New("clipboard write failed")

// systemWrite returns nil when the write did not happen.
var systemWrite = func(data []byte) <-chan struct{} {
	return clipboard.Write(clipboard.FmtText, data)
}

func writeSystemText(s string) error {
	if systemWrite([]byte(s)) == nil {
		return ErrWriteFailed
	}
	return nil
}
