// telemetry-tail prints the telemetry mirror of a running robotd dashboard.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jessevdk/go-flags"

	"github.com/teslashibe/go-rover/pkg/protocol"
)

// Options are the command line flags.
type Options struct {
	Addr   string `short:"a" long:"addr" default:"127.0.0.1:8080" description:"Dashboard address"`
	Status bool   `long:"status" description:"Follow the status document instead of telemetry frames"`
	Raw    bool   `long:"raw" description:"Print frames as received, without decoding"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.LongDescription = "Follow rover telemetry from the dashboard websocket"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := "/ws/telemetry"
	if opts.Status {
		path = "/ws/status"
	}
	u := url.URL{Scheme: "ws", Host: opts.Addr, Path: path}

	if err := tail(ctx, u.String(), os.Stdout, !opts.Raw && !opts.Status); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry-tail: %v\n", err)
		os.Exit(1)
	}
}

// tail copies messages from the websocket at wsURL to out until ctx ends or
// the server closes the connection.
func tail(ctx context.Context, wsURL string, out io.Writer, decode bool) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		for _, line := range strings.Split(strings.TrimRight(string(msg), "\n"), "\n") {
			if decode {
				line = describe(line)
			}
			fmt.Fprintf(out, "%s %s\n", time.Now().Format("15:04:05.000"), line)
		}
	}
}

// describe renders a telemetry frame for humans. Frames that do not parse
// are returned as they are.
func describe(frame string) string {
	t, err := protocol.ParseTelemetry(frame)
	if err != nil {
		return frame
	}
	if t.IsPower {
		return fmt.Sprintf("battery     %.2f V", t.Voltage)
	}
	switch t.Channel {
	case protocol.ChannelUltrasonic:
		return fmt.Sprintf("ultrasonic  %d cm", t.Distance)
	case protocol.ChannelLight:
		return fmt.Sprintf("light       %.2f V / %.2f V", t.Light[0], t.Light[1])
	case protocol.ChannelLine:
		return fmt.Sprintf("line        %s", t.Line)
	}
	return frame
}
