package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Battery thresholds in volts.
const (
	BatteryCritical = 6.5
	BatteryLow      = 7.0
	beepLength      = 100 * time.Millisecond
)

// PowerMonitor periodically reports the battery voltage and beeps when it
// runs low.
type PowerMonitor struct {
	battery  robot.BatterySensor
	buzzer   robot.BuzzerDriver
	state    *state.Robot
	out      Sender
	interval time.Duration
	log      *slog.Logger
}

// NewPowerMonitor creates a monitor that sends POWER frames through out.
func NewPowerMonitor(battery robot.BatterySensor, buzzer robot.BuzzerDriver, st *state.Robot, out Sender, interval time.Duration, log *slog.Logger) *PowerMonitor {
	if log == nil {
		log = slog.Default()
	}
	return &PowerMonitor{
		battery:  battery,
		buzzer:   buzzer,
		state:    st,
		out:      out,
		interval: interval,
		log:      log.With("component", "power"),
	}
}

// Run checks the battery every interval until ctx is cancelled.
func (p *PowerMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Check reads the battery once, reports it and sounds the alarm.
func (p *PowerMonitor) Check(ctx context.Context) {
	v, err := p.Query()
	if err != nil {
		p.log.Warn("sensor fault", "sensor", "battery", "err", err)
		return
	}

	switch {
	case v < BatteryCritical:
		p.log.Warn("battery critical", "volts", v)
		p.beep(ctx, 4)
	case v < BatteryLow:
		p.log.Info("battery low", "volts", v)
		p.beep(ctx, 2)
	default:
		p.setBuzzer(false)
	}
}

// Query reads the voltage, caches it and sends a POWER frame. A missing
// peer is not an error.
func (p *PowerMonitor) Query() (float64, error) {
	v, err := p.battery.ReadBatteryVoltage()
	if err != nil {
		return 0, err
	}
	p.state.SetVoltage(v)
	if err := p.out.Send(protocol.PowerFrame(v)); err != nil && !errors.Is(err, ErrNoPeer) {
		p.log.Debug("power frame not sent", "err", err)
	}
	return v, nil
}

func (p *PowerMonitor) beep(ctx context.Context, n int) {
	defer p.setBuzzer(false)
	for i := 0; i < n; i++ {
		p.setBuzzer(true)
		if !wait(ctx, beepLength) {
			return
		}
		p.setBuzzer(false)
		if !wait(ctx, beepLength) {
			return
		}
	}
}

func (p *PowerMonitor) setBuzzer(on bool) {
	if err := p.buzzer.SetBuzzer(on); err != nil {
		p.log.Warn("actuator fault", "buzzer", on, "err", err)
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
