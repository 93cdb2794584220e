package model

import (
	"fmt"
	"net/url"
	"strings"
)

// Subscription names the event stream of one thread.
type Subscription struct {
	AgentId  string
	ThreadId string
}

func (s Subscription) String() string {
	return fmt.Sprintf("%s:%s", s.AgentId, s.ThreadId)
}

// Path expands {agent_id} and {thread_id} in template.
func (s Subscription) Path(template string) string {
	return strings.NewReplacer(
		"{agent_id}", url.PathEscape(s.AgentId),
		"{thread_id}", url.PathEscape(s.ThreadId),
	).Replace(template)
}

// Frame is one raw event as received, tagged with the subscription that
// produced it.
type Frame struct {
	Scope    Subscription
	Epoch    uint64
	Received int64 // unix milli
	Data     []byte
}

type State string

const (
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Status reports transport health. It never carries conversation state.
type Status struct {
	Scope   Subscription
	State   State
	Attempt int
	Err     error
}

func (s Status) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s (attempt %d): %v", s.State, s.Attempt, s.Err)
	}
	return string(s.State)
}
