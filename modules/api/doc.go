// Package api mounts the HTTP surface of the service: public catalog and
// health endpoints, bearer-authenticated account and payment routes,
// tier-gated content and the payment gateway webhook.
//
// Every error leaving a handler or middleware is rendered by one JSON error
// handler with a fixed code per domain error; wrapped causes are logged but
// never returned to the client.
package api
