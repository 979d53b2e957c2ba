package protocols

import (
	"encoding/json"
	"fmt"
)

// Payload is the value resumed into a suspended script. Single use.
type Payload interface {
	isPayload()
	PayloadKind() string
}

type PayloadJSON struct {
	Value string
}

type PayloadTrue struct{}

type PayloadFalse struct{}

type PayloadString struct {
	Value string
}

type PayloadFile struct {
	Name string
	Data []byte
}

type PayloadVoid struct{}

func (PayloadJSON) isPayload()   {}
func (PayloadTrue) isPayload()   {}
func (PayloadFalse) isPayload()  {}
func (PayloadString) isPayload() {}
func (PayloadFile) isPayload()   {}
func (PayloadVoid) isPayload()   {}

func (PayloadJSON) PayloadKind() string   { return "json" }
func (PayloadTrue) PayloadKind() string   { return "true" }
func (PayloadFalse) PayloadKind() string  { return "false" }
func (PayloadString) PayloadKind() string { return "string" }
func (PayloadFile) PayloadKind() string   { return "file" }
func (PayloadVoid) PayloadKind() string   { return "void" }

func (p PayloadJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}{p.PayloadKind(), p.Value})
}

func (p PayloadTrue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value bool   `json:"value"`
	}{p.PayloadKind(), true})
}

func (p PayloadFalse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value bool   `json:"value"`
	}{p.PayloadKind(), false})
}

func (p PayloadString) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}{p.PayloadKind(), p.Value})
}

func (p PayloadFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
		Data []byte `json:"data"`
	}{p.PayloadKind(), p.Name, p.Data})
}

func (p PayloadVoid) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{p.PayloadKind()})
}

func UnmarshalPayload(data []byte) (Payload, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	switch head.Kind {

	case "json":
		var v struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return PayloadJSON{Value: v.Value}, nil

	case "true":
		return PayloadTrue{}, nil

	case "false":
		return PayloadFalse{}, nil

	case "string":
		var v struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return PayloadString{Value: v.Value}, nil

	case "file":
		var v struct {
			Name string `json:"name"`
			Data []byte `json:"data"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return PayloadFile{Name: v.Name, Data: v.Data}, nil

	case "void":
		return PayloadVoid{}, nil

	}
	return nil, fmt.Errorf("unknown payload kind: %q", head.Kind)
}

// PromptID identifies one rendered page instance. A Response carrying a
// stale PromptID resolves nothing.
type PromptID string

// Response pairs a Payload with the prompt it resolves. Consumed exactly
// once per cycle.
type Response struct {
	Payload Payload
	Prompt  PromptID
}

func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Payload Payload  `json:"payload"`
		Prompt  PromptID `json:"prompt"`
	}{r.Payload, r.Prompt})
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var v struct {
		Payload json.RawMessage `json:"payload"`
		Prompt  PromptID        `json:"prompt"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	payload, err := UnmarshalPayload(v.Payload)
	if err != nil {
		return err
	}
	r.Payload = payload
	r.Prompt = v.Prompt
	return nil
}
