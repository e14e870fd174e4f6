package telemetry

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

func TestRow(t *testing.T) {
	st := state.New()
	st.SetScan(state.Distances{L: 12, M: 34, R: 56})
	st.SetLight(1.234, 2.5)
	st.SetLine(robot.LineReading{1, 0, 1})
	st.SetMotors(robot.Motors{600, -600, 1200, 0})

	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	got := Row(ts, st.Snapshot())

	want := []string{"2026-01-02T03:04:05.000000006Z", "12", "34", "56", "1.23", "2.50", "101", "600", "-600", "1200", "0"}
	assert.Equal(t, want, got)
	assert.Len(t, got, len(CSVHeader))
}

func TestCSVLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	l := NewCSVLogger(&buf, state.New(), time.Hour, quietLogger())

	require.NoError(t, l.Log())
	require.NoError(t, l.Log())
	assert.Equal(t, uint64(2), l.Rows())

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "100", recs[0][1], "initial distances are the no-reading sentinel")
}

func TestOpenCSV_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot_data.csv")
	st := state.New()

	for i := 0; i < 2; i++ {
		l, err := OpenCSV(path, st, time.Hour, quietLogger())
		require.NoError(t, err)
		require.NoError(t, l.Log())
		require.NoError(t, l.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, CSVHeader, recs[0])
}

func TestCSVLogger_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	l, err := OpenCSV(path, state.New(), 5*time.Millisecond, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return l.Rows() >= 3 }, time.Second, 2*time.Millisecond)
	cancel()
	<-done
}

func TestOpenCSV_BadPath(t *testing.T) {
	_, err := OpenCSV(filepath.Join(t.TempDir(), "missing", "x.csv"), state.New(), time.Second, quietLogger())
	assert.Error(t, err)
}
