package web

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/state"
)

func newCameraServer() (*Server, *camera.Manager) {
	mgr := camera.NewManager(camera.DefaultConfig())
	st := state.New()
	s := NewServer(":0", Deps{
		State:   st,
		Modes:   &mockModes{state: st},
		Control: &mockControl{},
		Camera:  mgr,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return s, mgr
}

func TestCameraPreset(t *testing.T) {
	s, mgr := newCameraServer()

	resp, err := s.App().Test(httptest.NewRequest("POST", "/api/camera/preset/vga", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var cfg camera.Config
	decode(t, resp.Body, &cfg)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, mgr.GetConfig().Height)

	resp, err = s.App().Test(httptest.NewRequest("POST", "/api/camera/preset/fisheye", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCameraQuality(t *testing.T) {
	s, mgr := newCameraServer()

	resp, err := s.App().Test(httptest.NewRequest("POST", "/api/camera/quality/55", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 55, mgr.GetConfig().Quality)

	for _, q := range []string{"0", "abc"} {
		resp, err = s.App().Test(httptest.NewRequest("POST", "/api/camera/quality/"+q, nil))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode, q)
	}
	assert.Equal(t, 55, mgr.GetConfig().Quality)
}

func TestCameraRoutesAbsentWithoutManager(t *testing.T) {
	s, _, _, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/camera", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
