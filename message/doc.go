// Package message implements Secure Message, stateless point-to-point
// messages between two long-term key pairs.
//
// Two envelope kinds are produced:
//
//   - Encrypted (SecureMessage.Wrap): confidentiality and authenticity. Both
//     parties must use keys of the same family. EC keys agree on a static
//     P-256 secret; RSA keys transport a random data key with RSA-OAEP and
//     the sender signs the envelope with RSA-PSS. The payload is sealed with
//     AES-256-GCM in both cases.
//   - Signed (Signer.Sign): authenticity only. The signature algorithm
//     follows the sender's key family (ECDSA P-256, RSA-PSS or ML-DSA-65).
//
// Unwrap and Verify fail closed with themis.ErrAuthenticationFailure on any
// tag or signature mismatch and never return partial plaintext.
package message
