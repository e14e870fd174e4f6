package telemetry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-rover/pkg/state"
)

// CSVHeader is the fixed header row of the data log.
var CSVHeader = []string{
	"timestamp",
	"L_distance", "M_distance", "R_distance",
	"light1", "light2",
	"line_sensors",
	"motor1", "motor2", "motor3", "motor4",
}

// CSVLogger appends one row of cached state per tick, independent of any
// connection.
type CSVLogger struct {
	state    *state.Robot
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu   sync.Mutex
	w    *csv.Writer
	c    io.Closer
	rows uint64
}

// OpenCSV opens path for appending, writing the header when the file is new
// or empty.
func OpenCSV(path string, st *state.Robot, interval time.Duration, log *slog.Logger) (*CSVLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv log: %w", err)
	}

	l := NewCSVLogger(f, st, interval, log)
	l.c = f
	if info.Size() == 0 {
		if err := l.writeRow(CSVHeader, false); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

// NewCSVLogger logs to w. No header is written.
func NewCSVLogger(w io.Writer, st *state.Robot, interval time.Duration, log *slog.Logger) *CSVLogger {
	if log == nil {
		log = slog.Default()
	}
	return &CSVLogger{
		state:    st,
		interval: interval,
		log:      log.With("component", "csv"),
		now:      time.Now,
		w:        csv.NewWriter(w),
	}
}

// Run logs until ctx is cancelled, then closes the file.
func (l *CSVLogger) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Log(); err != nil {
				l.log.Warn("csv row not written", "err", err)
			}
		}
	}
}

// Log appends one row for the current state.
func (l *CSVLogger) Log() error {
	return l.writeRow(Row(l.now(), l.state.Snapshot()), true)
}

// Rows returns how many data rows were written.
func (l *CSVLogger) Rows() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rows
}

// Close flushes and closes the underlying file, if any.
func (l *CSVLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if l.c == nil {
		return l.w.Error()
	}
	c := l.c
	l.c = nil
	return c.Close()
}

func (l *CSVLogger) writeRow(rec []string, data bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(rec); err != nil {
		return err
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return err
	}
	if data {
		l.rows++
	}
	return nil
}

// Row formats one snapshot in CSVHeader order.
func Row(ts time.Time, s state.Snapshot) []string {
	return []string{
		ts.Format(time.RFC3339Nano),
		strconv.Itoa(s.L), strconv.Itoa(s.M), strconv.Itoa(s.R),
		strconv.FormatFloat(s.Light1, 'f', 2, 64),
		strconv.FormatFloat(s.Light2, 'f', 2, 64),
		s.Line,
		strconv.Itoa(s.Motors[0]), strconv.Itoa(s.Motors[1]),
		strconv.Itoa(s.Motors[2]), strconv.Itoa(s.Motors[3]),
	}
}
