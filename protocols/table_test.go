package protocols

import (
	"encoding/json"
	"testing"
)

func TestColumnMajorOrder(t *testing.T) {
	// key order must survive decoding even when it is not alphabetical
	src := `{"zeta":{"0":"a","1":"b"},"alpha":{"0":1,"1":2},"mid":{"0":true,"1":null}}`

	var m ColumnMajor
	if err := json.Unmarshal([]byte(src), &m); err != nil {
		t.Fatal(err)
	}

	if len(m.Columns) != 3 {
		t.Fatalf("got %d columns", len(m.Columns))
	}
	for i, want := range []string{"zeta", "alpha", "mid"} {
		if m.Columns[i].Name != want {
			t.Fatalf("column %d = %q, want %q", i, m.Columns[i].Name, want)
		}
	}

	if got := m.Columns[0].Cells["1"].Text(); got != "b" {
		t.Fatalf("got %q", got)
	}
	if got := m.Columns[1].Cells["0"].Text(); got != "1" {
		t.Fatalf("got %q", got)
	}
	if got := m.Columns[2].Cells["0"].Text(); got != "true" {
		t.Fatalf("got %q", got)
	}
	if got := m.Columns[2].Cells["1"].Text(); got != "" {
		t.Fatalf("got %q", got)
	}

	// round trip preserves order
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != src {
		t.Fatalf("got %s", data)
	}
}

func TestColumnMajorNumberText(t *testing.T) {
	// numbers keep their source text, no float mangling
	src := `{"n":{"0":9007199254740993,"1":1.50}}`
	var m ColumnMajor
	if err := json.Unmarshal([]byte(src), &m); err != nil {
		t.Fatal(err)
	}
	if got := m.Columns[0].Cells["0"].Text(); got != "9007199254740993" {
		t.Fatalf("got %q", got)
	}
	if got := m.Columns[0].Cells["1"].Text(); got != "1.50" {
		t.Fatalf("got %q", got)
	}
}

func TestColumnMajorRejectsNonObject(t *testing.T) {
	var m ColumnMajor
	if err := json.Unmarshal([]byte(`[1,2]`), &m); err == nil {
		t.Fatal("expected error")
	}
	if err := json.Unmarshal([]byte(`{"col":[1,2]}`), &m); err == nil {
		t.Fatal("expected error")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	for _, payload := range []Payload{
		PayloadJSON{Value: `[{"x":"y"}]`},
		PayloadTrue{},
		PayloadFalse{},
		PayloadString{Value: "/mnt/abc/export.zip"},
		PayloadFile{Name: "export.zip", Data: []byte{1, 2, 3}},
		PayloadVoid{},
	} {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := UnmarshalPayload(data)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.PayloadKind() != payload.PayloadKind() {
			t.Fatalf("got %q, want %q", decoded.PayloadKind(), payload.PayloadKind())
		}
	}

	data, _ := json.Marshal(Payload(PayloadFile{Name: "a.zip", Data: []byte("zip")}))
	decoded, err := UnmarshalPayload(data)
	if err != nil {
		t.Fatal(err)
	}
	file := decoded.(PayloadFile)
	if file.Name != "a.zip" || string(file.Data) != "zip" {
		t.Fatalf("got %+v", file)
	}
}

func TestEventRoundTrip(t *testing.T) {
	events := []Event{
		EventInitialise{},
		EventInitialiseDone{},
		EventInitialiseDone{Err: "boom"},
		EventFirstRunCycle{SessionID: 1700000000000},
		EventNextRunCycle{Response: Response{
			Payload: PayloadString{Value: "x"},
			Prompt:  "p1",
		}},
		EventRunCycleDone{Command: CommandUIRender{Page: PageEnd{}}},
		EventRunCycleDone{}, // script completed
	}
	for _, ev := range events {
		data, err := EncodeEvent(ev)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := DecodeEvent(data)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.EventKind() != ev.EventKind() {
			t.Fatalf("got %q, want %q", decoded.EventKind(), ev.EventKind())
		}
	}

	data, _ := EncodeEvent(EventNextRunCycle{Response: Response{
		Payload: PayloadTrue{},
		Prompt:  "p2",
	}})
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatal(err)
	}
	next := decoded.(EventNextRunCycle)
	if next.Response.Prompt != "p2" {
		t.Fatalf("got %+v", next.Response)
	}
	if _, ok := next.Response.Payload.(PayloadTrue); !ok {
		t.Fatalf("got %T", next.Response.Payload)
	}
}
