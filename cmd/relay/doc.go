// Package main runs the in-memory HTTP relay that carries themis envelopes
// between parties and publishes their public keys.
//
// HTTP API
//
//	POST /msg/{to} {"from": ..., "data": ...}
//	    Enqueue an envelope destined to {to}. The relay assigns an id and a
//	    receive time. A full mailbox answers 429.
//
//	GET /msg/{to}?from=P&limit=N
//	    Return up to N queued envelopes for {to}, oldest first, optionally
//	    only those sent by P.
//
//	POST /msg/{to}/ack {"from": ..., "count": N}
//	    Drop the first N queued envelopes for {to} (from that sender, when
//	    given).
//
//	PUT /keys/{id} {"key": ...}
//	    Publish the public key of {id}. The first key wins; a different key
//	    later answers 409.
//
//	GET /keys/{id}
//	    Return the published key of {id}.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Settings come from flags, THEMIS_* environment variables and an
//     optional YAML file (listen, relay.max.queue, log.level).
//   - At debug level an access log records method, path, remote, status,
//     size and duration for each request.
//   - SIGINT and SIGTERM shut the server down gracefully.
//
// The relay never sees plaintext or private keys; Secure Session envelopes
// are opaque to it.
package main
