// Package relay is a store-and-forward mailbox for protocol envelopes and a
// public key directory, served over HTTP.
//
// Server keeps everything in memory:
//
//	POST /msg/{to}        queue an envelope for {to}
//	GET  /msg/{to}        list queued envelopes (?from=, ?limit=)
//	POST /msg/{to}/ack    drop the oldest count envelopes (optionally per sender)
//	PUT  /keys/{id}       publish a public key, first writer wins
//	GET  /keys/{id}       fetch a public key
//
// HTTP is the matching client. Mailbox adapts it to session.Transport so a
// Secure Session can run between two parties that are never online at the
// same time. The relay only ever sees opaque envelopes.
package relay
