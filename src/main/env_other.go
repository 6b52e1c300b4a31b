//go:build !windows

package main

import "go.uber.org/zap"

func enableDPIAwareness() {}

func logMonitorConfiguration(*zap.SugaredLogger) {}
