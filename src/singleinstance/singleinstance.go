package singleinstance

import (
	"errors"
	"fmt"
)

// Command is one line of the loopback protocol. The resident answers PING
// with PONG and every other known command with OK or ERROR plus a message.
type Command string

const (
	CmdPing    Command = "PING"
	CmdShow    Command = "SHOW"
	CmdTrigger Command = "TRIGGER"
)

const (
	residentHost = "127.0.0.1"
	pongResponse = "PONG\n"
	okResponse   = "OK\n"
	errResponse  = "ERROR\n"
)

var (
	ErrAlreadyRunning = errors.New("another instance is already running")
	ErrNoResident     = errors.New("no running instance found")
)

// Handler executes a command on behalf of a client. Its error text is sent
// back verbatim.
type Handler func(cmd Command) error

func (c Command) valid() bool {
	switch c {
	case CmdPing, CmdShow, CmdTrigger:
		return true
	}
	return false
}

func address(port int) string {
	return fmt.Sprintf("%s:%d", residentHost, port)
}
