// Package hub fans messages out to websocket clients using a single
// goroutine that owns the client set.
package hub

// MessageType indicates the websocket message format
type MessageType int

const (
	// TextMessage is a raw protocol frame, e.g. MODE#3#42
	TextMessage MessageType = iota
	// JSONMessage is a JSON-encoded status document
	JSONMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}

// NewTextMessage wraps a protocol frame. The trailing newline is kept.
func NewTextMessage(data []byte) Message {
	return Message{Type: TextMessage, Data: data}
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}
