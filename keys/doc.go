// Package keys provides the asymmetric key pairs used across the engine.
//
// Three families are supported:
//
//   - EC: NIST P-256, used for ECDSA signatures and static ECDH
//   - RSA: 2048 bits or more, used for RSA-PSS signatures and RSA-OAEP
//   - MLDSA: ML-DSA-65, signature only
//
// Keys serialize to a self-describing container:
//
//	tag[4] | total length u32 BE | CRC-32C u32 BE | body
//
// where the CRC is computed over the whole container with the CRC field set
// to zero. Length and checksum are validated before the body is parsed.
//
// A PrivateKey holds secret material until Destroy is called. Callers own
// that lifecycle and should defer Destroy right after obtaining the key.
package keys
