package server

import "errors"

var (
	// ErrNotConnected is returned when sending on a closed or missing session.
	ErrNotConnected = errors.New("control client not connected")

	// ErrServerStopped is returned by Run after Stop.
	ErrServerStopped = errors.New("server stopped")
)
