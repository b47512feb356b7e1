// Package signature provides helper functions for handling the blockchain
// digest and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// minichainStamp is mixed into every signed message so signatures we
// produce are unique to the minichain ledger. Ethereum and Bitcoin do this
// as well with their own prefixes.
const minichainStamp = "\x19Minichain Signed Message:\n32"

// =============================================================================

// Hash returns a unique string for the value. The value is marshaled to
// JSON which is the canonical serialization used by every digest in the
// system.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sum returns the sha256 digest of the concatenation of the specified
// byte slices.
func Sum(data ...[]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}

	return h.Sum(nil)
}

// Hash160 performs sha256 followed by ripemd160. This is the digest used to
// lock an output to the hash of a public key.
func Hash160(data []byte) []byte {
	return btcutil.Hash160(data)
}

// Decode converts a hex encoded hash back into its bytes. It accepts the
// hash with or without the 0x prefix.
func Decode(hash string) ([]byte, error) {
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}

	return hexutil.Decode(hash)
}

// Encode converts the hash bytes into the hex string form.
func Encode(hash []byte) string {
	return hexutil.Encode(hash)
}

// Normalize returns the hash in the lower case 0x prefixed form the chain
// uses for ids.
func Normalize(hash string) (string, error) {
	b, err := Decode(hash)
	if err != nil {
		return "", err
	}

	return Encode(b), nil
}

// =============================================================================

// Sign uses the specified private key to sign the data. The result is the
// 65 byte [R|S|V] recoverable signature.
func Sign(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is required")
	}

	sig, err := crypto.Sign(stamp(data), privateKey)
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// Verify checks the signature was produced over the data by the private key
// that matches the specified public key. Malformed input fails closed.
func Verify(data []byte, sig []byte, publicKey []byte) bool {
	if len(sig) < crypto.RecoveryIDOffset || len(publicKey) == 0 {
		return false
	}

	return crypto.VerifySignature(publicKey, stamp(data), sig[:crypto.RecoveryIDOffset])
}

// PublicKeyBytes returns the compressed encoding of the public key.
func PublicKeyBytes(pk ecdsa.PublicKey) []byte {
	return crypto.CompressPubkey(&pk)
}

// ToPublicKey converts the compressed encoding back into a public key.
func ToPublicKey(pubKey []byte) (*ecdsa.PublicKey, error) {
	return crypto.DecompressPubkey(pubKey)
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the minichain stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	dataHash := crypto.Keccak256(data)

	// Hash the stamp and dataHash together in a final 32 byte array
	// that represents the data.
	return crypto.Keccak256([]byte(minichainStamp), dataHash)
}
