package outboundcall

// Kind is the operation kind handled by this module.
const Kind = "outbound_call"

// Payload describes one return call the AI receptionist should place. It is
// captured when the callback is first requested and stays self-contained.
type Payload struct {
	// OwnerID is the business on whose behalf the call is placed. Duplicated
	// from the operation record because handlers only see the payload.
	OwnerID string `json:"owner_id"`

	// Number is the callee in E.164 format.
	Number string `json:"number"`

	// AgentID selects the voice agent configuration to use.
	AgentID string `json:"agent_id"`

	// Reason is a short human-readable trigger, e.g. "missed_call" or
	// "callback_request". Passed to the agent as context.
	Reason string `json:"reason,omitempty"`
}
