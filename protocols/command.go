package protocols

import (
	"encoding/json"
	"fmt"
)

// Command is emitted by the sandbox at a suspension point. The router must
// tolerate kinds it does not know, so decoding never fails on an
// unrecognized kind; it yields a CommandUnknown instead.
type Command interface {
	isCommand()
	CommandKind() string
}

type CommandUIRender struct {
	Page Page
}

type CommandSystemDonate struct {
	Key        string
	JSONString string
}

type CommandUnknown struct {
	Kind string
	Raw  json.RawMessage
}

func (CommandUIRender) isCommand()     {}
func (CommandSystemDonate) isCommand() {}
func (CommandUnknown) isCommand()      {}

func (CommandUIRender) CommandKind() string     { return "render-page" }
func (CommandSystemDonate) CommandKind() string { return "donate" }
func (c CommandUnknown) CommandKind() string    { return c.Kind }

func (c CommandUIRender) MarshalJSON() ([]byte, error) {
	if c.Page == nil {
		return nil, fmt.Errorf("render-page command without page")
	}
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Page Page   `json:"page"`
	}{c.CommandKind(), c.Page})
}

func (c CommandSystemDonate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       string `json:"kind"`
		Key        string `json:"key"`
		JSONString string `json:"json_string"`
	}{c.CommandKind(), c.Key, c.JSONString})
}

func (c CommandUnknown) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{c.Kind})
}

func UnmarshalCommand(data []byte) (Command, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	switch head.Kind {

	case "render-page":
		var v struct {
			Page json.RawMessage `json:"page"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		page, err := UnmarshalPage(v.Page)
		if err != nil {
			return nil, err
		}
		return CommandUIRender{Page: page}, nil

	case "donate":
		var v struct {
			Key        string `json:"key"`
			JSONString string `json:"json_string"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return CommandSystemDonate{Key: v.Key, JSONString: v.JSONString}, nil

	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return CommandUnknown{Kind: head.Kind, Raw: raw}, nil
}
