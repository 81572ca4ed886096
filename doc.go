// Package themis is the root of a native Go engine for secure sessions,
// secure comparison, data-at-rest protection and point-to-point messages.
//
// Packages
//
//   - keys        RSA, EC (P-256) and ML-DSA-65 key pairs and their container format
//   - cell        Secure Cell: Seal, Token Protect and Context Imprint modes
//   - message     Secure Message: encrypt-and-authenticate or sign-only envelopes
//   - session     Secure Session: authenticated key agreement and ordered transport
//   - comparator  Secure Comparator: zero-knowledge equality of shared secrets
//
// This package only defines the error taxonomy shared by all of them. Every
// error returned by the engine is a *Error whose Kind is one of the Err*
// sentinels below, so callers branch with errors.Is:
//
//	if errors.Is(err, themis.ErrReplayOrOrdering) {
//		// drop the envelope, the session is still usable
//	}
package themis
