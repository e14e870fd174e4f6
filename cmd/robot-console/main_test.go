package main

import (
	"bufio"
	"net"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rover/pkg/protocol"
)

func pipeClient(t *testing.T) (*client, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	c := &client{
		conn:   local,
		frames: make(chan protocol.Telemetry, 64),
		logs:   make(chan string, 16),
	}
	go c.readLoop()
	t.Cleanup(func() {
		c.Close()
		remote.Close()
	})
	return c, remote
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConsole_KeysSendFrames(t *testing.T) {
	c, remote := pipeClient(t)
	m := newConsoleModel(c, "pipe", 1000)

	lines := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(remote)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	tests := []struct {
		key  string
		want string
	}{
		{"w", "MOTOR#1000#1000#1000#1000"},
		{"a", "MOTOR#-1000#-1000#1000#1000"},
		{" ", "MOTOR#0#0#0#0"},
		{"3", "MODE#3"},
		{"u", "SONIC_TOGGLE#1"},
		{"p", "POWER_QUERY"},
	}
	var model tea.Model = m
	for _, tt := range tests {
		model, _ = model.Update(key(tt.key))
		assert.Equal(t, tt.want, <-lines, "key %q", tt.key)
	}
}

func TestConsole_TelemetryUpdatesReadout(t *testing.T) {
	c, remote := pipeClient(t)
	m := newConsoleModel(c, "pipe", 1000)

	go remote.Write([]byte("MODE#3#42\nPOWER#6.80\n"))

	var model tea.Model = m
	for i := 0; i < 2; i++ {
		msg := waitForTelemetry(c)()
		model, _ = model.Update(msg)
	}

	cm := model.(consoleModel)
	require.Equal(t, protocol.ChannelUltrasonic, cm.last.Channel)
	assert.Equal(t, 42, cm.last.Distance)
	assert.InDelta(t, 6.8, cm.voltage, 0.001)
	assert.Contains(t, cm.readout(), "42 cm")
}

func TestConsole_Disconnect(t *testing.T) {
	c, remote := pipeClient(t)
	m := newConsoleModel(c, "pipe", 1000)

	remote.Close()
	model, _ := m.Update(waitForTelemetry(c)())

	cm := model.(consoleModel)
	assert.True(t, cm.closed)
	assert.Contains(t, cm.View(), "DISCONNECTED")
}
