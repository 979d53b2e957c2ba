package sandboxes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"go.starlark.net/starlark"
	"port/protocols"
)

// starlarkToJSON serializes a starlark value to JSON preserving dict
// insertion order, which the column-major table encoding depends on. The
// stock map-based route would sort the keys.
func starlarkToJSON(v starlark.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v starlark.Value) error {
	switch v := v.(type) {

	case starlark.NoneType:
		buf.WriteString("null")
		return nil

	case starlark.Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil

	case starlark.Int:
		buf.WriteString(v.String())
		return nil

	case starlark.Float:
		buf.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 64))
		return nil

	case starlark.String:
		data, err := json.Marshal(string(v))
		if err != nil {
			return err
		}
		buf.Write(data)
		return nil

	case *starlark.List:
		buf.WriteByte('[')
		for i := range v.Len() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, v.Index(i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case starlark.Tuple:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case *starlark.Dict:
		buf.WriteByte('{')
		for i, item := range v.Items() {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, ok := item[0].(starlark.String)
			if !ok {
				return fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			data, err := json.Marshal(string(key))
			if err != nil {
				return err
			}
			buf.Write(data)
			buf.WriteByte(':')
			if err := appendJSON(buf, item[1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	}
	return fmt.Errorf("type %s is not serializable", v.Type())
}

// payloadValue converts a resume payload to the value the script sees. A
// file payload must already be mounted and rewritten to a string payload.
func payloadValue(payload protocols.Payload) (starlark.Value, error) {
	kinded := func(value starlark.Value) starlark.Value {
		d := starlark.NewDict(2)
		_ = d.SetKey(starlark.String("kind"), starlark.String(payload.PayloadKind()))
		_ = d.SetKey(starlark.String("value"), value)
		return d
	}

	switch p := payload.(type) {

	case protocols.PayloadJSON:
		return kinded(starlark.String(p.Value)), nil

	case protocols.PayloadTrue:
		return kinded(starlark.Bool(true)), nil

	case protocols.PayloadFalse:
		return kinded(starlark.Bool(false)), nil

	case protocols.PayloadString:
		return kinded(starlark.String(p.Value)), nil

	case protocols.PayloadVoid:
		return starlark.None, nil

	}
	return nil, fmt.Errorf("payload kind %q cannot enter the sandbox", payload.PayloadKind())
}
