package protocols

import (
	"encoding/json"
	"fmt"
)

// Page is what the visualisation is asked to show at a suspension point.
type Page interface {
	isPage()
	PageKind() string
}

type PageSplash struct{}

type PageDonation struct {
	Platform string
	Header   Header
	Body     Body
	Footer   Footer
}

type PageEnd struct{}

func (PageSplash) isPage()   {}
func (PageDonation) isPage() {}
func (PageEnd) isPage()      {}

func (PageSplash) PageKind() string   { return "splash" }
func (PageDonation) PageKind() string { return "donation" }
func (PageEnd) PageKind() string      { return "end" }

type Header struct {
	Title Translatable `json:"title"`
}

type Footer struct {
	Progress float64 `json:"progress"`
}

// Body is the prompt shown inside a donation page.
type Body interface {
	isBody()
	BodyKind() string
}

type PromptFileInput struct {
	Description Translatable `json:"description"`
	Extensions  string       `json:"extensions"`
}

type PromptConfirm struct {
	Text   Translatable `json:"text"`
	Ok     Translatable `json:"ok"`
	Cancel Translatable `json:"cancel"`
}

type PromptConsentForm struct {
	Description    Translatable `json:"description"`
	DonateQuestion Translatable `json:"donateQuestion"`
	DonateButton   Translatable `json:"donateButton"`
	CancelButton   Translatable `json:"cancelButton"`
	Tables         []TableSpec  `json:"tables"`
	MetaTables     []TableSpec  `json:"metaTables"`
}

func (PromptFileInput) isBody()   {}
func (PromptConfirm) isBody()     {}
func (PromptConsentForm) isBody() {}

func (PromptFileInput) BodyKind() string   { return "file-input" }
func (PromptConfirm) BodyKind() string     { return "confirm" }
func (PromptConsentForm) BodyKind() string { return "consent-form" }

func (p PageSplash) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{p.PageKind()})
}

func (p PageDonation) MarshalJSON() ([]byte, error) {
	body, err := MarshalBody(p.Body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Kind     string          `json:"kind"`
		Platform string          `json:"platform"`
		Header   Header          `json:"header"`
		Body     json.RawMessage `json:"body"`
		Footer   Footer          `json:"footer"`
	}{p.PageKind(), p.Platform, p.Header, body, p.Footer})
}

func (p PageEnd) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{p.PageKind()})
}

func UnmarshalPage(data []byte) (Page, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	switch head.Kind {

	case "splash":
		return PageSplash{}, nil

	case "donation":
		var v struct {
			Platform string          `json:"platform"`
			Header   Header          `json:"header"`
			Body     json.RawMessage `json:"body"`
			Footer   Footer          `json:"footer"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		body, err := UnmarshalBody(v.Body)
		if err != nil {
			return nil, err
		}
		return PageDonation{
			Platform: v.Platform,
			Header:   v.Header,
			Body:     body,
			Footer:   v.Footer,
		}, nil

	case "end":
		return PageEnd{}, nil

	}
	return nil, fmt.Errorf("unknown page kind: %q", head.Kind)
}

func MarshalBody(body Body) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("nil page body")
	}
	type envelope struct {
		Kind string `json:"kind"`
	}
	switch b := body.(type) {
	case PromptFileInput:
		return json.Marshal(struct {
			envelope
			PromptFileInput
		}{envelope{b.BodyKind()}, b})
	case PromptConfirm:
		return json.Marshal(struct {
			envelope
			PromptConfirm
		}{envelope{b.BodyKind()}, b})
	case PromptConsentForm:
		return json.Marshal(struct {
			envelope
			PromptConsentForm
		}{envelope{b.BodyKind()}, b})
	}
	return nil, fmt.Errorf("unknown body type: %T", body)
}

func UnmarshalBody(data []byte) (Body, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	switch head.Kind {

	case "file-input":
		var v PromptFileInput
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	case "confirm":
		var v PromptConfirm
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	case "consent-form":
		var v PromptConsentForm
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil

	}
	return nil, fmt.Errorf("unknown body kind: %q", head.Kind)
}
