// Package redis connects go-redis clients with startup retry and exposes a
// healthcheck closure for readiness probes.
package redis
