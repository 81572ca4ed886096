package keys

import "github.com/cloudflare/circl/sign/mldsa/mldsa65"

// MLDSA exposes the circl private key so tests can inspect it after Destroy.
func (k *PrivateKey) MLDSA() *mldsa65.PrivateKey { return k.ml }
