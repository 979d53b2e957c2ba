package consents

import (
	"bytes"
	"encoding/json"
	"fmt"

	"port/protocols"
)

// Form tracks the editable state of one rendered consent form. Tables are
// created when the prompt is first rendered, mutated in place by edits, and
// consumed once at donate or cancel.
type Form struct {
	tables     []*Table
	metaTables []*Table
	byID       map[string]*Table
}

func NewForm(prompt protocols.PromptConsentForm, locale string) (*Form, error) {
	form := &Form{
		byID: make(map[string]*Table),
	}
	for _, spec := range prompt.Tables {
		table, err := ParseTable(spec, locale)
		if err != nil {
			return nil, err
		}
		form.tables = append(form.tables, table)
		form.byID[table.ID] = table
	}
	for _, spec := range prompt.MetaTables {
		table, err := ParseTable(spec, locale)
		if err != nil {
			return nil, err
		}
		form.metaTables = append(form.metaTables, table)
	}
	return form, nil
}

func (f *Form) Tables() []*Table {
	return f.tables
}

func (f *Form) MetaTables() []*Table {
	return f.metaTables
}

// Edit replaces a table's rows. The deletion count accumulates the signed
// difference; it is deliberately not clamped at zero.
func (f *Form) Edit(tableID string, newRows [][]string) error {
	table, ok := f.byID[tableID]
	if !ok {
		return fmt.Errorf("no such table: %q", tableID)
	}
	if err := table.checkWidth(newRows); err != nil {
		return err
	}

	rows := make([][]string, len(newRows))
	for i, row := range newRows {
		rows[i] = append([]string(nil), row...)
	}

	table.DeletedRowCount += len(table.Rows) - len(rows)
	table.Rows = rows
	return nil
}

// Serialize produces the donation bundle: one object per editable table in
// its latest state, one per meta table, then the user_omissions entry, which
// is present even when no rows were deleted.
func (f *Form) Serialize() (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	first := true
	writeTable := func(table *Table) error {
		if err := table.checkWidth(table.Rows); err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		return appendTableEntry(&buf, table)
	}

	for _, table := range f.tables {
		if err := writeTable(table); err != nil {
			return "", err
		}
	}
	for _, table := range f.metaTables {
		if err := writeTable(table); err != nil {
			return "", err
		}
	}

	var notices []string
	for _, table := range f.tables {
		if table.DeletedRowCount > 0 {
			notices = append(notices, fmt.Sprintf(
				"User deleted %d rows from table: %s",
				table.DeletedRowCount, table.ID,
			))
		}
	}
	if notices == nil {
		notices = []string{}
	}
	noticesJSON, err := json.Marshal(notices)
	if err != nil {
		return "", err
	}
	omissions, err := json.Marshal(map[string]string{
		"user_omissions": string(noticesJSON),
	})
	if err != nil {
		return "", err
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.Write(omissions)

	buf.WriteByte(']')
	return buf.String(), nil
}

// Payload wraps the serialized bundle as the resume value for a donate
// resolution.
func (f *Form) Payload() (protocols.Payload, error) {
	bundle, err := f.Serialize()
	if err != nil {
		return nil, err
	}
	return protocols.PayloadJSON{Value: bundle}, nil
}

// appendTableEntry writes {"id":[{col:cell,...},...]} with columns in head
// order; the generic map marshaling would sort them.
func appendTableEntry(buf *bytes.Buffer, table *Table) error {
	id, err := json.Marshal(table.ID)
	if err != nil {
		return err
	}
	buf.WriteByte('{')
	buf.Write(id)
	buf.WriteByte(':')
	buf.WriteByte('[')
	for i, row := range table.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, name := range table.Head {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(name)
			if err != nil {
				return err
			}
			v, err := json.Marshal(row[j])
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	buf.WriteByte('}')
	return nil
}
