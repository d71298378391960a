// Package webhook signs and verifies webhook payloads with a timestamped
// HMAC-SHA256 scheme.
//
// The signature header has the form
//
//	t=1718000000,v1=5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd
//
// where v1 is hex(HMAC-SHA256(secret, "<t>.<payload>")). Binding the
// timestamp into the MAC lets the receiver reject replays older than its
// tolerance. Several v1 entries may be present while a secret is rotated;
// any match is accepted.
//
//	s, _ := webhook.NewSigner(secret)
//	header := s.Sign(payload)
//	err := s.Verify(payload, header)
package webhook
