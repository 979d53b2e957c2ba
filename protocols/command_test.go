package protocols

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCommandRoundTrip(t *testing.T) {
	command := Command(CommandUIRender{
		Page: PageDonation{
			Platform: "Twitter",
			Header: Header{
				Title: Text("en", "Twitter", "nl", "Twitter"),
			},
			Body: PromptConfirm{
				Text:   Text("en", "sure?"),
				Ok:     Text("en", "yes"),
				Cancel: Text("en", "no"),
			},
			Footer: Footer{
				Progress: 25,
			},
		},
	})

	data, err := json.Marshal(command)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalCommand(data)
	if err != nil {
		t.Fatal(err)
	}

	render, ok := decoded.(CommandUIRender)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	page, ok := render.Page.(PageDonation)
	if !ok {
		t.Fatalf("got %T", render.Page)
	}
	if page.Platform != "Twitter" {
		t.Fatalf("got %q", page.Platform)
	}
	if page.Footer.Progress != 25 {
		t.Fatalf("got %v", page.Footer.Progress)
	}
	confirm, ok := page.Body.(PromptConfirm)
	if !ok {
		t.Fatalf("got %T", page.Body)
	}
	if confirm.Ok.Lookup("en") != "yes" {
		t.Fatalf("got %q", confirm.Ok.Lookup("en"))
	}
}

func TestCommandDonate(t *testing.T) {
	data, err := json.Marshal(Command(CommandSystemDonate{
		Key:        "Twitter",
		JSONString: `[{"a":1}]`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalCommand(data)
	if err != nil {
		t.Fatal(err)
	}
	donate, ok := decoded.(CommandSystemDonate)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if donate.Key != "Twitter" {
		t.Fatalf("got %q", donate.Key)
	}
	if donate.JSONString != `[{"a":1}]` {
		t.Fatalf("got %q", donate.JSONString)
	}
}

func TestCommandUnknownKind(t *testing.T) {
	decoded, err := UnmarshalCommand([]byte(`{"kind":"open-portal","target":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	unknown, ok := decoded.(CommandUnknown)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if unknown.Kind != "open-portal" {
		t.Fatalf("got %q", unknown.Kind)
	}
	// raw content survives for logging
	if !strings.Contains(string(unknown.Raw), "open-portal") {
		t.Fatalf("got %s", unknown.Raw)
	}
}

func TestPageKinds(t *testing.T) {
	for _, page := range []Page{
		PageSplash{},
		PageEnd{},
	} {
		data, err := json.Marshal(page)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := UnmarshalPage(data)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.PageKind() != page.PageKind() {
			t.Fatalf("got %q, want %q", decoded.PageKind(), page.PageKind())
		}
	}
}

func TestConsentFormBody(t *testing.T) {
	body := Body(PromptConsentForm{
		Description:    Text("en", "review"),
		DonateQuestion: Text("en", "donate?"),
		DonateButton:   Text("en", "donate"),
		CancelButton:   Text("en", "cancel"),
		Tables: []TableSpec{
			{
				ID:    "t1",
				Title: Text("en", "table one"),
			},
		},
	})
	data, err := MarshalBody(body)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalBody(data)
	if err != nil {
		t.Fatal(err)
	}
	form, ok := decoded.(PromptConsentForm)
	if !ok {
		t.Fatalf("got %T", decoded)
	}
	if len(form.Tables) != 1 || form.Tables[0].ID != "t1" {
		t.Fatalf("got %+v", form.Tables)
	}
	if form.MetaTables != nil {
		t.Fatalf("got %+v", form.MetaTables)
	}
}
