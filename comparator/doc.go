// Package comparator implements Secure Comparator, an interactive
// zero-knowledge proof that two parties hold the same secret.
//
// The exchange is the Socialist Millionaires' Protocol over the ristretto255
// prime-order group. It always takes four messages of fixed size:
//
//	initiator                          responder
//	Begin        -- round 1 (192) -->
//	             <-- round 2 (352) --  Proceed
//	Proceed      -- round 3 (256) -->
//	             <-- round 4  (96) --  Proceed
//	Proceed
//
// Every group element sent is accompanied by a Fiat-Shamir proof of
// knowledge of its discrete logarithm, so neither side can steer the result.
// A peer learns only whether the secrets are equal.
//
// Any malformed, truncated or unverifiable round aborts the comparison.
// An aborted comparison never reports Match or NoMatch.
//
// A Comparator is single use and not safe for concurrent use.
package comparator
