// Package script implements the pay to public key hash locking and unlocking
// scripts that guard every output in the ledger. The scripts are encoded
// with the bitcoin opcode set and executed by a small stack machine that
// only understands the opcodes P2PKH needs.
package script

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/btcsuite/btcd/txscript"
)

// scriptVersion is the only script version the tokenizer is asked to parse.
const scriptVersion = 0

// Set of errors returned by the stack machine.
var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrEqualVerify    = errors.New("equal verify failed")
	ErrUnsupportedOp  = errors.New("unsupported opcode")
)

// =============================================================================

// LockingScript returns the script that locks an output to the specified
// public key hash.
//
//	OP_DUP OP_HASH160 <pubKeyHash> OP_EQUALVERIFY OP_CHECKSIG
func LockingScript(pubKeyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// UnlockingScript returns the script a spender provides to satisfy a
// locking script.
//
//	<sig> <pubKey>
func UnlockingScript(sig []byte, pubKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(sig).
		AddData(pubKey).
		Script()
}

// UnlockSignature produces the signature a key holder presents to unlock
// outputs locked to their public key hash. The holder signs their own
// compressed public key.
func UnlockSignature(privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is required")
	}

	return signature.Sign(signature.PublicKeyBytes(privateKey.PublicKey), privateKey)
}

// Unlock reports whether the signature and public key satisfy the locking
// script of the specified output. Any failure to build or run the scripts
// returns false.
func Unlock(utxo database.UTXO, sig []byte, pubKey []byte) bool {
	locking, err := LockingScript(utxo.PubKeyHash)
	if err != nil {
		return false
	}

	unlocking, err := UnlockingScript(sig, pubKey)
	if err != nil {
		return false
	}

	program := make([]byte, 0, len(unlocking)+len(locking))
	program = append(program, unlocking...)
	program = append(program, locking...)

	ok, err := Execute(program)
	if err != nil {
		return false
	}

	return ok
}

// Owns reports whether the public key hashes to the lock of the specified
// output. It runs the hash check half of the locking script.
//
//	<pubKey> OP_DUP OP_HASH160 <pubKeyHash> OP_EQUALVERIFY
func Owns(utxo database.UTXO, pubKey []byte) bool {
	program, err := txscript.NewScriptBuilder().
		AddData(pubKey).
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(utxo.PubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		Script()
	if err != nil {
		return false
	}

	ok, err := Execute(program)
	if err != nil {
		return false
	}

	return ok
}

// Execute runs the script and reports whether it finished with exactly one
// true value on the stack.
func Execute(program []byte) (bool, error) {
	var s stack

	tokenizer := txscript.MakeScriptTokenizer(scriptVersion, program)
	for tokenizer.Next() {
		if err := s.step(tokenizer.Opcode(), tokenizer.Data()); err != nil {
			return false, err
		}
	}

	if err := tokenizer.Err(); err != nil {
		return false, err
	}

	if len(s) != 1 {
		return false, nil
	}

	return isTrue(s[0]), nil
}
