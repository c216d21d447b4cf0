// Package webhookreplay re-delivers webhook events whose original delivery
// failed. The stored payload carries the endpoint, signing secret, and event
// body; each attempt POSTs the body with fresh HMAC-SHA256 signature headers
// so receivers authenticate replays exactly like first deliveries.
//
// The module makes one HTTP attempt per call and classifies the result:
// 408, 429, 5xx, and network errors are retryable; any other non-2xx status
// means the endpoint will never accept this delivery.
package webhookreplay
