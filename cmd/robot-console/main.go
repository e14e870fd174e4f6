// robot-console is a terminal operator console for the rover control
// channel. It drives the rover from the keyboard and charts the telemetry.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jessevdk/go-flags"

	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Options are the command line flags.
type Options struct {
	Addr  string `short:"a" long:"addr" default:"127.0.0.1:5000" description:"Rover control address"`
	Speed int    `short:"s" long:"speed" default:"1500" description:"Manual drive duty"`
}

const (
	headerHeight = 3
	footerHeight = 7
	maxLogs      = 5
	borderSize   = 2
	maxDistance  = 150 // chart ceiling in cm
	distanceSet  = "distance"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

const help = "w/a/s/d drive  space stop  0-3 mode  u sonic  l light  b buzzer  p power  q quit"

// Messages from the control connection
type telemetryMsg protocol.Telemetry
type logMsg string
type closedMsg struct{}

func waitForTelemetry(c *client) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-c.frames
		if !ok {
			return closedMsg{}
		}
		return telemetryMsg(t)
	}
}

func waitForLog(c *client) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-c.logs)
	}
}

type consoleModel struct {
	client *client
	addr   string
	speed  int
	chart  *streamlinechart.Model
	width  int
	height int
	logs   []string

	mode     state.Mode
	last     protocol.Telemetry
	voltage  float64
	sonicOn  bool
	lightOn  bool
	buzzerOn bool
	closed   bool
	quitting bool
}

func newConsoleModel(c *client, addr string, speed int) consoleModel {
	chart := streamlinechart.New(80, 15, streamlinechart.WithYRange(0, maxDistance))
	chart.SetDataSetStyles(distanceSet, runes.ThinLineStyle, lipgloss.NewStyle().Foreground(lipgloss.Color("51")))
	return consoleModel{
		client: c,
		addr:   addr,
		speed:  speed,
		chart:  &chart,
	}
}

func (m *consoleModel) addLog(msg string) {
	m.logs = append(m.logs, time.Now().Format("15:04:05")+" "+msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *consoleModel) resizeChart() {
	w := m.width - borderSize - 2
	if w < 40 {
		w = 40
	}
	h := m.height - headerHeight - footerHeight - borderSize
	if h < 8 {
		h = 8
	}
	m.chart.Resize(w, h)
}

func (m *consoleModel) send(r protocol.Request) {
	if m.closed {
		return
	}
	if err := m.client.send(r); err != nil {
		m.addLog("send failed: " + err.Error())
	}
}

// drive maps a key to a manual motor vector.
func (m *consoleModel) drive(key string) bool {
	s := m.speed
	var v robot.Motors
	switch key {
	case "w":
		v = robot.Motors{s, s, s, s}
	case "s":
		v = robot.Motors{-s, -s, -s, -s}
	case "a":
		v = robot.Motors{-s, -s, s, s}
	case "d":
		v = robot.Motors{s, s, -s, -s}
	case " ":
		v = robot.Stop
	default:
		return false
	}
	m.send(protocol.MotorRequest{Motors: v})
	return true
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(
		waitForTelemetry(m.client),
		waitForLog(m.client),
	)
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			m.send(protocol.MotorRequest{Motors: robot.Stop})
			return m, tea.Quit
		case "0", "1", "2", "3":
			md, _ := state.ParseMode(key)
			m.mode = md
			m.send(protocol.ModeRequest{Mode: md})
			m.addLog("mode " + md.String())
		case "u":
			m.sonicOn = !m.sonicOn
			m.send(protocol.SonicToggle{On: m.sonicOn})
		case "l":
			m.lightOn = !m.lightOn
			m.send(protocol.LightToggle{On: m.lightOn})
		case "b":
			m.buzzerOn = !m.buzzerOn
			m.send(protocol.BuzzerRequest{On: m.buzzerOn})
		case "p":
			m.send(protocol.PowerQuery{})
		default:
			m.drive(key)
		}
		return m, nil

	case telemetryMsg:
		t := protocol.Telemetry(msg)
		if t.IsPower {
			m.voltage = t.Voltage
		} else {
			m.last = t
			if t.Channel == protocol.ChannelUltrasonic {
				d := t.Distance
				if d > maxDistance {
					d = maxDistance
				}
				m.chart.PushDataSet(distanceSet, float64(d))
				m.chart.DrawAll()
			}
		}
		return m, waitForTelemetry(m.client)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.client)

	case closedMsg:
		m.closed = true
		m.addLog("disconnected")
		return m, nil
	}

	return m, nil
}

func (m consoleModel) View() string {
	if m.quitting {
		return "Console closed.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Rover Console"))
	sb.WriteString(statusStyle.Render("  " + m.addr))
	if m.closed {
		sb.WriteString("  " + warnStyle.Render("DISCONNECTED"))
	}
	sb.WriteString("\n")
	sb.WriteString(m.readout())
	sb.WriteString("\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	lines := statusStyle.Render(help)
	if len(m.logs) > 0 {
		lines = strings.Join(m.logs, "\n") + "\n" + lines
	}
	sb.WriteString(logStyle.Render(lines))
	sb.WriteString("\n")

	return sb.String()
}

// readout renders the latest telemetry values on one line.
func (m consoleModel) readout() string {
	fields := []string{"mode " + valueStyle.Render(m.mode.String())}
	switch m.last.Channel {
	case protocol.ChannelUltrasonic:
		fields = append(fields, "distance "+valueStyle.Render(fmt.Sprintf("%d cm", m.last.Distance)))
	case protocol.ChannelLight:
		fields = append(fields, "light "+valueStyle.Render(fmt.Sprintf("%.2f / %.2f V", m.last.Light[0], m.last.Light[1])))
	case protocol.ChannelLine:
		fields = append(fields, "line "+valueStyle.Render(m.last.Line))
	}
	if m.voltage > 0 {
		style := valueStyle
		if m.voltage < 7.0 {
			style = warnStyle
		}
		fields = append(fields, "battery "+style.Render(fmt.Sprintf("%.2f V", m.voltage)))
	}
	return strings.Join(fields, "  ")
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.LongDescription = "Keyboard console for the rover control channel"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	c, err := dial(opts.Addr, 3*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer c.Close()

	p := tea.NewProgram(newConsoleModel(c, opts.Addr, opts.Speed), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
