package webhookreplay

import "encoding/json"

// Kind is the operation kind handled by this module.
const Kind = "webhook_replay"

// Payload is the stored description of one webhook delivery to replay. It is
// captured when the original delivery fails and must stay self-contained:
// the handler sees only the payload, never the owner's settings.
type Payload struct {
	// URL is the subscriber endpoint to POST to.
	URL string `json:"url"`

	// Secret signs the request so the receiver can authenticate it.
	Secret string `json:"secret"`

	// Event is the original event body, delivered verbatim.
	Event json.RawMessage `json:"event"`
}
