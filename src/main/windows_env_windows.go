//go:build windows

package main

import (
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const processPerMonitorDPIAware = 2

var (
	shcore                     = windows.NewLazySystemDLL("Shcore.dll")
	user32                     = windows.NewLazySystemDLL("user32.dll")
	procSetProcessDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
	procSetProcessDPIAware     = user32.NewProc("SetProcessDPIAware")
	procGetSystemMetrics       = user32.NewProc("GetSystemMetrics")
)

// enableDPIAwareness must run before any window exists, so it cannot log
// through the configured logger yet.
func enableDPIAwareness() {
	if err := procSetProcessDpiAwareness.Find(); err == nil {
		_, _, _ = procSetProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		return
	}
	if err := procSetProcessDPIAware.Find(); err == nil {
		_, _, _ = procSetProcessDPIAware.Call()
	}
}

func logMonitorConfiguration(logger *zap.SugaredLogger) {
	metric := func(index uintptr) int {
		ret, _, _ := procGetSystemMetrics.Call(index)
		return int(int32(ret))
	}
	logger.Debugw("monitor configuration",
		"monitors", metric(80), // SM_CMONITORS
		"virtual_x", metric(76), // SM_XVIRTUALSCREEN
		"virtual_y", metric(77),
		"virtual_w", metric(78),
		"virtual_h", metric(79),
		"primary_w", metric(0), // SM_CXSCREEN
		"primary_h", metric(1))
}
