package protocols

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TableSpec is the column-major table encoding emitted by the script.
type TableSpec struct {
	ID    string       `json:"id"`
	Title Translatable `json:"title"`
	Data  ColumnMajor  `json:"data"`
}

// ColumnMajor maps column name to a mapping from row-index-string to cell
// value. Column order is the encoding's key insertion order, so the generic
// JSON machinery cannot decode it.
type ColumnMajor struct {
	Columns []Column
}

type Column struct {
	Name  string
	Keys  []string
	Cells map[string]Cell
}

// Cell holds a scalar as decoded from JSON: string, json.Number, bool or nil.
type Cell struct {
	value any
}

func NewCell(value any) Cell {
	return Cell{value: value}
}

func (c Cell) Text() string {
	switch v := c.value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value)
}

func (m *ColumnMajor) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("column-major encoding must be an object, got %v", tok)
	}

	m.Columns = nil
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return err
		}
		name := nameTok.(string)

		column := Column{
			Name:  name,
			Cells: make(map[string]Cell),
		}

		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if tok != json.Delim('{') {
			return fmt.Errorf("column %q must be an object, got %v", name, tok)
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key := keyTok.(string)
			var value any
			if err := dec.Decode(&value); err != nil {
				return err
			}
			column.Keys = append(column.Keys, key)
			column.Cells[key] = Cell{value: value}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}

		m.Columns = append(m.Columns, column)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	return nil
}

func (m ColumnMajor) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range m.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(column.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteByte('{')
		for j, key := range column.Keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			v, err := json.Marshal(column.Cells[key])
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
