package engines

import (
	"port/protocols"
)

// Visualisation presents a page to the participant. The implementation calls
// resolve with the participant's payload when the page is answered; exactly
// one resolve per Render is honored.
type Visualisation interface {
	Render(page protocols.Page, resolve func(protocols.Payload))
}
