// Package redis connects the engine to Redis: a retrying Connect over
// go-redis and a ping-based healthcheck for readiness probes. The daily
// quota counters in pkg/eligibility ride on the client this package opens.
package redis
