package model

type Type string

func (t Type) String() string { return string(t) }

const (
	SSE       Type = "sse"
	WebSocket Type = "websocket"
	Local     Type = "local" // in-process, fed by the caller
)
