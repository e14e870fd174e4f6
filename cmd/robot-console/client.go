package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/pkg/protocol"
)

// client is a control channel connection that decodes incoming telemetry.
type client struct {
	conn net.Conn

	mu     sync.Mutex
	frames chan protocol.Telemetry
	logs   chan string
}

func dial(addr string, timeout time.Duration) (*client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	c := &client{
		conn:   conn,
		frames: make(chan protocol.Telemetry, 64),
		logs:   make(chan string, 16),
	}
	go c.readLoop()
	return c, nil
}

// send writes one request as a frame.
func (c *client) send(r protocol.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write(r.Command().Bytes())
	return err
}

func (c *client) readLoop() {
	defer close(c.frames)

	framer := protocol.NewFramer(0)
	buf := make([]byte, 1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			lines, ferr := framer.Feed(buf[:n])
			if ferr != nil {
				c.log(ferr.Error())
			}
			for _, line := range lines {
				t, perr := protocol.ParseTelemetry(line)
				if perr != nil {
					c.log(fmt.Sprintf("unparsed %q: %v", line, perr))
					continue
				}
				c.frames <- t
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.log("rover closed the connection")
			} else if !errors.Is(err, net.ErrClosed) {
				c.log(err.Error())
			}
			return
		}
	}
}

// log queues a message for the TUI, dropping it if the TUI is behind.
func (c *client) log(msg string) {
	select {
	case c.logs <- msg:
	default:
	}
}

func (c *client) Close() error {
	return c.conn.Close()
}
