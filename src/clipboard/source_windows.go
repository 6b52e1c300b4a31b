//go:build windows

package clipboard

import (
	"fmt"
	"unsafe"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"
)

const (
	cfDIB         = 8
	cfUnicodeText = 13
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procIsClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procGlobalLock                 = kernel32.NewProc("GlobalLock")
	procGlobalUnlock               = kernel32.NewProc("GlobalUnlock")
	procGlobalSize                 = kernel32.NewProc("GlobalSize")
)

// win32Source reads CF_UNICODETEXT and raw CF_DIB directly so that a busy
// clipboard is reported as ErrBusy instead of an empty read. Writes go
// through golang.design/x/clipboard.
type win32Source struct{}

func NewSystemSource() (Source, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return win32Source{}, nil
}

func formatID(f Format) uintptr {
	if f == FormatImage {
		return cfDIB
	}
	return cfUnicodeText
}

func (win32Source) Available(f Format) (bool, error) {
	r, _, _ := procIsClipboardFormatAvailable.Call(formatID(f))
	return r != 0, nil
}

// OpenClipboard fails while another window has the clipboard open.
func openClipboard() error {
	r, _, err := procOpenClipboard.Call(0)
	if r == 0 {
		return fmt.Errorf("%w: OpenClipboard: %v", ErrBusy, err)
	}
	return nil
}

func closeClipboard() { _, _, _ = procCloseClipboard.Call() }

// withLockedData runs fn on the locked global memory of format f.
func withLockedData(f uintptr, fn func(p uintptr, size int) error) error {
	if err := openClipboard(); err != nil {
		return err
	}
	defer closeClipboard()

	h, _, err := procGetClipboardData.Call(f)
	if h == 0 {
		return fmt.Errorf("GetClipboardData(%d): %v", f, err)
	}
	p, _, err := procGlobalLock.Call(h)
	if p == 0 {
		return fmt.Errorf("GlobalLock: %v", err)
	}
	defer procGlobalUnlock.Call(h)

	size, _, _ := procGlobalSize.Call(h)
	return fn(p, int(size))
}

func (win32Source) ReadText() (string, error) {
	var text string
	err := withLockedData(cfUnicodeText, func(p uintptr, size int) error {
		text = utf16Text(p, size)
		return nil
	})
	return text, err
}

// utf16Text decodes at most size bytes at p, stopping at the first NUL.
func utf16Text(p uintptr, size int) string {
	if p == 0 || size < 2 {
		return ""
	}
	return windows.UTF16ToString(unsafe.Slice((*uint16)(unsafe.Pointer(p)), size/2))
}

func (win32Source) ReadImage() ([]byte, Encoding, error) {
	var data []byte
	err := withLockedData(cfDIB, func(p uintptr, size int) error {
		if size <= 0 {
			return nil
		}
		data = make([]byte, size)
		copy(data, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
		return nil
	})
	return data, EncodingDIB, err
}

func (win32Source) WriteText(s string) error {
	return writeSystemText(s)
}
