package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const defaultDialTimeout = 2 * time.Second

// Client talks to the resident instance.
type Client struct {
	port int
}

func NewClient(port int) *Client { return &Client{port: port} }

// Send delivers cmd and waits for the reply. ErrNoResident means nothing
// listens on the port.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	if !cmd.valid() {
		return fmt.Errorf("unknown command %q", cmd)
	}
	timeout := defaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			timeout = d
		}
	}

	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := d.DialContext(dialCtx, "tcp", address(c.port))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoResident, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte(string(cmd) + "\n")); err != nil {
		return err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	switch status {
	case pongResponse, okResponse:
		return nil
	case errResponse:
		msg, _ := io.ReadAll(br)
		return errors.New(strings.TrimSpace(string(msg)))
	}
	return fmt.Errorf("unexpected reply %q", strings.TrimSpace(status))
}

// Detect reports whether a resident answers PING on the port.
func (c *Client) Detect(ctx context.Context) bool {
	return c.Send(ctx, CmdPing) == nil
}
