//go:build windows

package tray

func platformIcon() []byte { return IconICO() }
