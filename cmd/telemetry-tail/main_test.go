package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		frame string
		want  string
	}{
		{"MODE#3#42", "ultrasonic  42 cm"},
		{"MODE#1#3.10#2.95", "light       3.10 V / 2.95 V"},
		{"MODE#2#010", "line        010"},
		{"POWER#7.45", "battery     7.45 V"},
		{"MOTOR#1#2#3#4", "MOTOR#1#2#3#4"},
	}
	for _, tt := range tests {
		t.Run(tt.frame, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.frame))
		})
	}
}

func TestTail(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.TextMessage, []byte("MODE#3#17\n"))
		ws.WriteMessage(websocket.TextMessage, []byte("POWER#8.20\n"))
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	require.NoError(t, tail(context.Background(), wsURL, &out, true))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ultrasonic  17 cm")
	assert.Contains(t, lines[1], "battery     8.20 V")
}
