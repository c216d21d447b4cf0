package calendarsync

// Kind is the operation kind handled by this module.
const Kind = "calendar_sync"

// Payload identifies one calendar connection whose access token expired.
type Payload struct {
	// OwnerID is the business the calendar belongs to.
	OwnerID string `json:"owner_id"`

	// Provider names the calendar provider, e.g. "google" or "outlook".
	Provider string `json:"provider"`

	// AccountID distinguishes multiple connected calendars per owner.
	AccountID string `json:"account_id"`
}
