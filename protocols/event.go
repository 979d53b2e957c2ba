package protocols

import (
	"encoding/json"
	"fmt"
)

// Event is a message crossing the isolation boundary between the engine
// executor and the sandbox executor. Every event is JSON-serializable so the
// boundary can later move out of process without changing the contract.
type Event interface {
	isEvent()
	EventKind() string
}

type EventInitialise struct{}

type EventInitialiseDone struct {
	Err string
}

type EventFirstRunCycle struct {
	SessionID int64
}

type EventNextRunCycle struct {
	Response Response
}

// EventRunCycleDone carries the next Command, or a nil Command when the
// script ran to completion, or Err when the cycle failed.
type EventRunCycleDone struct {
	Command Command
	Err     string
}

func (EventInitialise) isEvent()     {}
func (EventInitialiseDone) isEvent() {}
func (EventFirstRunCycle) isEvent()  {}
func (EventNextRunCycle) isEvent()   {}
func (EventRunCycleDone) isEvent()   {}

func (EventInitialise) EventKind() string     { return "initialise" }
func (EventInitialiseDone) EventKind() string { return "initialiseDone" }
func (EventFirstRunCycle) EventKind() string  { return "firstRunCycle" }
func (EventNextRunCycle) EventKind() string   { return "nextRunCycle" }
func (EventRunCycleDone) EventKind() string   { return "runCycleDone" }

func EncodeEvent(ev Event) ([]byte, error) {
	switch ev := ev.(type) {

	case EventInitialise:
		return json.Marshal(struct {
			Kind string `json:"kind"`
		}{ev.EventKind()})

	case EventInitialiseDone:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Err  string `json:"err,omitempty"`
		}{ev.EventKind(), ev.Err})

	case EventFirstRunCycle:
		return json.Marshal(struct {
			Kind      string `json:"kind"`
			SessionID int64  `json:"sessionId"`
		}{ev.EventKind(), ev.SessionID})

	case EventNextRunCycle:
		return json.Marshal(struct {
			Kind     string   `json:"kind"`
			Response Response `json:"response"`
		}{ev.EventKind(), ev.Response})

	case EventRunCycleDone:
		var command json.RawMessage
		if ev.Command != nil {
			data, err := json.Marshal(ev.Command)
			if err != nil {
				return nil, err
			}
			command = data
		}
		return json.Marshal(struct {
			Kind    string          `json:"kind"`
			Command json.RawMessage `json:"command,omitempty"`
			Err     string          `json:"err,omitempty"`
		}{ev.EventKind(), command, ev.Err})

	}
	return nil, fmt.Errorf("unknown event type: %T", ev)
}

func DecodeEvent(data []byte) (Event, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch head.Kind {

	case "initialise":
		return EventInitialise{}, nil

	case "initialiseDone":
		var v struct {
			Err string `json:"err"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return EventInitialiseDone{Err: v.Err}, nil

	case "firstRunCycle":
		var v struct {
			SessionID int64 `json:"sessionId"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return EventFirstRunCycle{SessionID: v.SessionID}, nil

	case "nextRunCycle":
		var v struct {
			Response Response `json:"response"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return EventNextRunCycle{Response: v.Response}, nil

	case "runCycleDone":
		var v struct {
			Command json.RawMessage `json:"command"`
			Err     string          `json:"err"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		var command Command
		if len(v.Command) > 0 && string(v.Command) != "null" {
			c, err := UnmarshalCommand(v.Command)
			if err != nil {
				return nil, err
			}
			command = c
		}
		return EventRunCycleDone{Command: command, Err: v.Err}, nil

	}
	return nil, fmt.Errorf("unknown event kind: %q", head.Kind)
}
