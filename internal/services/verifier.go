package services

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureVerifier turns a croupie signature over a seed into a binary
// game outcome. The croupie signs the seed the way eth_sign does: the
// digest is keccak256("\x19Ethereum Signed Message:\n32" || seed). The
// signer is recovered from the (v,r,s) components; only the croupie's
// signature is accepted, and the outcome is the parity of the s-value.
// The player picks the seed but cannot predict the parity of a signature
// that has not been produced yet, while anyone can re-verify it later.
type SignatureVerifier struct {
	access *AccessControl
}

func NewSignatureVerifier(access *AccessControl) *SignatureVerifier {
	return &SignatureVerifier{access: access}
}

// Outcome recovers the signer of the seed and derives the game result.
func (sv *SignatureVerifier) Outcome(seed common.Hash, v uint8, r, s [32]byte) (uint8, error) {
	signer, err := RecoverSigner(SeedDigest(seed), v, r, s)
	if err != nil {
		return 0, err
	}

	if err := sv.access.RequireCroupie(signer); err != nil {
		return 0, err
	}

	return s[31] & 1, nil
}

// SeedDigest is the digest the croupie actually signs: the eth_sign
// prefixed hash of the raw 32-byte seed.
func SeedDigest(seed common.Hash) []byte {
	return crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), seed.Bytes())
}

// TextDigest hashes an arbitrary message with the same personal-sign
// prefix, used for the login challenge.
func TextDigest(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix), message)
}

// RecoverSigner performs secp256k1 public key recovery over a digest and
// returns the signer's address. v is expected in its transaction form
// (27 or 28).
func RecoverSigner(digest []byte, v uint8, r, s [32]byte) (common.Address, error) {
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrBadSignature, v)
	}

	sig := make([]byte, 65)
	copy(sig[0:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = v - 27

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// RecoverTextSigner recovers the address that personal-signed a message
// with a packed 65-byte R||S||V signature.
func RecoverTextSigner(message, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("%w: signature must be 65 bytes", ErrBadSignature)
	}

	var r, s [32]byte
	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])

	v := sig[64]
	if v < 27 {
		v += 27
	}

	return RecoverSigner(TextDigest(message), v, r, s)
}
